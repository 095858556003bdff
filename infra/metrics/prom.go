// Package metrics records planning activity in Prometheus collectors and
// optionally exposes them over HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aseptiq/fillsched/core/model"
)

// Config holds the metrics endpoint settings.
type Config struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":9090"
	}
}

// PromSink records planning runs in Prometheus metrics.
type PromSink struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cleans   *prometheus.CounterVec
}

// NewPromSink registers planning metrics on the provided registerer. If reg
// is nil, the default registerer is used; collectors already registered are
// reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fillsched_plan_runs_total",
		Help: "Total number of planning runs",
	}, []string{"strategy"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fillsched_plan_failures_total",
		Help: "Total number of failed planning runs",
	}, []string{"strategy"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fillsched_plan_duration_seconds",
		Help:    "Wall-clock time spent planning",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})
	cleans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fillsched_clean_blocks_total",
		Help: "Clean blocks emitted across planning runs",
	}, []string{"strategy"})

	for i, c := range []prometheus.Collector{runs, failures, duration, cleans} {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			switch i {
			case 0:
				runs = are.ExistingCollector.(*prometheus.CounterVec)
			case 1:
				failures = are.ExistingCollector.(*prometheus.CounterVec)
			case 2:
				duration = are.ExistingCollector.(*prometheus.HistogramVec)
			case 3:
				cleans = are.ExistingCollector.(*prometheus.CounterVec)
			}
		}
	}
	return &PromSink{runs: runs, failures: failures, duration: duration, cleans: cleans}, nil
}

// RecordRun counts one finished planning run and its KPI consequences.
func (s *PromSink) RecordRun(strategy string, kpis model.KPISet, seconds float64) {
	s.runs.WithLabelValues(strategy).Inc()
	s.duration.WithLabelValues(strategy).Observe(seconds)
	s.cleans.WithLabelValues(strategy).Add(float64(kpis.CleanBlocks))
}

// RecordFailure counts one failed planning run.
func (s *PromSink) RecordFailure(strategy string) {
	s.failures.WithLabelValues(strategy).Inc()
}
