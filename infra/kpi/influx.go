// Package kpi exports planning KPIs to external time-series storage.
package kpi

import (
	"context"
	"net/http"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/aseptiq/fillsched/core/model"
)

// Config holds the InfluxDB connection settings for KPI export.
type Config struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Token   string `json:"token"`
	Org     string `json:"org"`
	Bucket  string `json:"bucket"`
}

// InfluxSink writes one KPI point per planning run using the official
// client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(cfg Config) *InfluxSink {
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

// RecordRun writes the KPI summary of one planning run.
func (s *InfluxSink) RecordRun(ctx context.Context, runID, strategy string, kpis model.KPISet, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plan_run").
		AddTag("run_id", runID).
		AddTag("strategy", strategy).
		AddField("makespan_h", kpis.MakespanHours).
		AddField("clean_h", kpis.CleanHours).
		AddField("changeover_h", kpis.ChangeoverHours).
		AddField("fill_h", kpis.FillHours).
		AddField("utilization", kpis.Utilization).
		AddField("lots_scheduled", kpis.LotsScheduled).
		AddField("clean_blocks", kpis.CleanBlocks).
		SetTime(at)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
