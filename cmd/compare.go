package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aseptiq/fillsched/config"
	"github.com/aseptiq/fillsched/core/compare"
	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/strategy"
	"github.com/aseptiq/fillsched/core/validate"
	"github.com/aseptiq/fillsched/internal/lotio"
)

var (
	compareData       string
	compareOut        string
	compareStrategies []string
	compareSortBy     string
	compareSequence   string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run every strategy on one lot table and rank the outcomes",
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().StringVarP(&compareData, "data", "d", "", "lot table (csv), overrides config")
	compareCmd.Flags().StringVarP(&compareOut, "out", "o", "", "output directory, overrides config")
	compareCmd.Flags().StringSliceVar(&compareStrategies, "strategies", nil, "strategies to compare (default: all)")
	compareCmd.Flags().StringVar(&compareSortBy, "sort-by", string(compare.SortMakespan), "ranking metric: makespan, utilization or changeovers")
	compareCmd.Flags().StringVar(&compareSequence, "sequence", "", "also replay this sequence csv as a given-order baseline")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyRunOverrides(cfg, compareData, "", compareOut)

	rt, err := newRuntime(ctx, cfg, "compare")
	if err != nil {
		return err
	}
	defer rt.close()

	lots, err := loadLots(cfg, rt)
	if err != nil {
		return err
	}
	start, err := cfg.Run.Start()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Run.OutputDir, 0o755); err != nil {
		return err
	}

	names := compareStrategies
	if len(names) == 0 {
		names = strategy.Names()
	}

	began := time.Now()
	report, err := compare.Run(ctx, lots, names, start, cfg.Planning,
		compare.SortKey(compareSortBy), strategy.WithProgress(rt.progress()))
	if err != nil {
		return err
	}

	rows := make([]lotio.KPIRow, 0, len(report.Results)+1)
	for _, res := range report.Results {
		if res.Err != nil {
			rt.recordFailure(res.Strategy)
			rt.log.Warnf("%s failed: %v", res.Strategy, res.Err)
			continue
		}
		rt.recordRun(ctx, res.Strategy, res.KPIs, time.Since(began))
		path := filepath.Join(cfg.Run.OutputDir,
			"schedule_"+strings.ReplaceAll(res.Strategy, "-", "_")+".csv")
		if err := lotio.WriteSchedule(path, res.Schedule); err != nil {
			return err
		}
		rows = append(rows, lotio.KPIRow{Name: res.Strategy, KPIs: res.KPIs})
	}

	if compareSequence != "" {
		row, err := replaySequence(ctx, cfg, rt, lots, start)
		if err != nil {
			rt.log.Warnf("given-order baseline failed: %v", err)
		} else {
			rows = append(rows, *row)
		}
	}

	if len(rows) == 0 {
		return fmt.Errorf("every strategy failed")
	}
	if err := lotio.WriteKPIs(filepath.Join(cfg.Run.OutputDir, "kpis.csv"), rows); err != nil {
		return err
	}

	rt.log.Infof("ranking by %s:", report.SortBy)
	for i, res := range report.Ranked() {
		rt.log.Infof("  %d. %-12s makespan %.2f h, utilization %.1f%%, %d changeovers",
			i+1, res.Strategy, res.KPIs.MakespanHours, 100*res.KPIs.Utilization, res.KPIs.Changeovers)
	}
	return nil
}

// replaySequence plans the lots in the caller-provided order so the ranked
// strategies can be read against the plan a human would have run.
func replaySequence(ctx context.Context, cfg *config.Config, rt *runtime, lots []model.Lot, start time.Time) (*lotio.KPIRow, error) {
	seq, err := lotio.ReadSequence(compareSequence)
	if err != nil {
		return nil, err
	}
	sched, err := strategy.PlanGivenOrder(ctx, lotio.OrderLots(lots, seq), start, cfg.Planning)
	if err != nil {
		return nil, err
	}
	if err := validate.Postflight(sched, cfg.Planning); err != nil {
		return nil, err
	}
	path := filepath.Join(cfg.Run.OutputDir, "schedule_given_order.csv")
	if err := lotio.WriteSchedule(path, sched); err != nil {
		return nil, err
	}
	return &lotio.KPIRow{Name: "given-order", KPIs: sched.KPIs()}, nil
}
