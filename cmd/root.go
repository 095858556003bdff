// Package cmd wires the command line surface around the planning core.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aseptiq/fillsched/config"
	"github.com/aseptiq/fillsched/core/logger"
	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/strategy"
	"github.com/aseptiq/fillsched/infra/kpi"
	infralogger "github.com/aseptiq/fillsched/infra/logger"
	"github.com/aseptiq/fillsched/infra/metrics"
	"github.com/aseptiq/fillsched/infra/mqtt"
	"github.com/aseptiq/fillsched/internal/eventbus"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "fillsched",
	Short: "Filling line lot sequencer",
	Long: "fillsched sequences production lots onto a filling line under " +
		"mandatory clean, changeover and fill-window constraints.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runtime bundles the collaborators a planning command wires up from
// configuration: progress fan-out, metrics and KPI export.
type runtime struct {
	cfg     *config.Config
	log     logger.Logger
	runID   string
	bus     *eventbus.Bus[strategy.ProgressEvent]
	prom    *metrics.PromSink
	influx  *kpi.InfluxSink
	mqttPub *mqtt.Publisher
	stopped chan struct{}
}

func newRuntime(ctx context.Context, cfg *config.Config, component string) (*runtime, error) {
	log := infralogger.New(component)
	rt := &runtime{
		cfg:     cfg,
		log:     log,
		runID:   uuid.NewString(),
		bus:     eventbus.New[strategy.ProgressEvent](),
		stopped: make(chan struct{}),
	}

	if cfg.Metrics.Enabled {
		sink, err := metrics.NewPromSink(nil)
		if err != nil {
			return nil, err
		}
		rt.prom = sink
		go func() {
			if err := metrics.StartServer(ctx, cfg.Metrics.Addr, log); err != nil {
				log.Errorf("metrics server: %v", err)
			}
		}()
	}
	if cfg.KPI.Enabled {
		rt.influx = kpi.NewInfluxSink(cfg.KPI)
	}
	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPublisher(cfg.MQTT, log)
		if err != nil {
			return nil, err
		}
		rt.mqttPub = pub
	}

	// One goroutine drains the bus into the log and, when configured, the
	// broker. Progress is a side channel; it never alters planning.
	sub := rt.bus.Subscribe()
	go func() {
		defer close(rt.stopped)
		for ev := range sub {
			log.Debugw("lot placed", map[string]any{
				"strategy": ev.Strategy,
				"placed":   ev.Placed,
				"total":    ev.Total,
				"lot":      ev.LotID,
			})
			if rt.mqttPub != nil {
				rt.mqttPub.Publish(ev)
			}
		}
	}()
	return rt, nil
}

// progress returns the sink strategies publish checkpoints to.
func (rt *runtime) progress() strategy.ProgressSink { return rt.bus }

// recordRun forwards a finished run to the wired sinks.
func (rt *runtime) recordRun(ctx context.Context, name string, kpis model.KPISet, took time.Duration) {
	if rt.prom != nil {
		rt.prom.RecordRun(name, kpis, took.Seconds())
	}
	if rt.influx != nil {
		if err := rt.influx.RecordRun(ctx, rt.runID, name, kpis, time.Now()); err != nil {
			rt.log.Errorf("kpi export: %v", err)
		}
	}
}

// recordFailure counts a failed run.
func (rt *runtime) recordFailure(name string) {
	if rt.prom != nil {
		rt.prom.RecordFailure(name)
	}
}

func (rt *runtime) close() {
	rt.bus.Close()
	<-rt.stopped
	if rt.mqttPub != nil {
		rt.mqttPub.Close()
	}
	if rt.influx != nil {
		rt.influx.Close()
	}
}
