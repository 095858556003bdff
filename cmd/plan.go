package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aseptiq/fillsched/config"
	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/strategy"
	"github.com/aseptiq/fillsched/core/validate"
	"github.com/aseptiq/fillsched/internal/lotio"
)

var (
	planData     string
	planStrategy string
	planOut      string
	planSequence string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Sequence a lot table with one strategy",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planData, "data", "d", "", "lot table (csv), overrides config")
	planCmd.Flags().StringVarP(&planStrategy, "strategy", "s", "", "strategy name, overrides config")
	planCmd.Flags().StringVarP(&planOut, "out", "o", "", "output directory, overrides config")
	planCmd.Flags().StringVar(&planSequence, "sequence", "", "fill lots in the order of this sequence csv instead of optimizing")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyRunOverrides(cfg, planData, planStrategy, planOut)

	rt, err := newRuntime(ctx, cfg, "plan")
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

	name := cfg.Run.Strategy
	began := time.Now()
	sched, err := func() (s *scheduleResult, err error) {
		if planSequence != "" {
			seq, err := lotio.ReadSequence(planSequence)
			if err != nil {
				return nil, err
			}
			sched, err := strategy.PlanGivenOrder(ctx, lotio.OrderLots(lots, seq), start, cfg.Planning)
			if err != nil {
				return nil, err
			}
			return &scheduleResult{name: "given-order", sched: sched}, nil
		}
		strat, err := strategy.New(name, strategy.WithProgress(rt.progress()))
		if err != nil {
			return nil, err
		}
		sched, err := strat.Plan(ctx, lots, start, cfg.Planning)
		if err != nil {
			return nil, err
		}
		return &scheduleResult{name: strat.Name(), sched: sched}, nil
	}()
	if err != nil {
		rt.recordFailure(name)
		return err
	}

	if err := validate.Postflight(sched.sched, cfg.Planning); err != nil {
		rt.recordFailure(sched.name)
		return fmt.Errorf("postflight: %w", err)
	}
	kpis := sched.sched.KPIs()
	rt.recordRun(ctx, sched.name, kpis, time.Since(began))

	schedPath := filepath.Join(cfg.Run.OutputDir,
		"schedule_"+strings.ReplaceAll(sched.name, "-", "_")+".csv")
	if err := lotio.WriteSchedule(schedPath, sched.sched); err != nil {
		return err
	}
	kpiPath := filepath.Join(cfg.Run.OutputDir, "kpis.csv")
	if err := lotio.WriteKPIs(kpiPath, []lotio.KPIRow{{Name: sched.name, KPIs: kpis}}); err != nil {
		return err
	}

	rt.log.Infof("%s: makespan %.2f h, utilization %.1f%%, %d cleans, %d changeovers -> %s",
		sched.name, kpis.MakespanHours, 100*kpis.Utilization, kpis.CleanBlocks, kpis.Changeovers, schedPath)
	return nil
}

type scheduleResult struct {
	name  string
	sched *model.Schedule
}

func applyRunOverrides(cfg *config.Config, data, strat, out string) {
	if data != "" {
		cfg.Run.DataPath = data
	}
	if strat != "" {
		cfg.Run.Strategy = strat
	}
	if out != "" {
		cfg.Run.OutputDir = out
	}
}

func loadLots(cfg *config.Config, rt *runtime) ([]model.Lot, error) {
	records, err := lotio.ReadLots(cfg.Run.DataPath)
	if err != nil {
		return nil, err
	}
	lots, res := validate.Preflight(records, cfg.Planning)
	for _, w := range res.Warnings {
		rt.log.Warnf("%s", w)
	}
	if !res.OK() {
		for _, e := range res.Errors {
			rt.log.Errorf("%s", e)
		}
		return nil, fmt.Errorf("input validation failed with %d error(s)", len(res.Errors))
	}
	return lots, nil
}
