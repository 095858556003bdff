// Package compare runs several sequencing strategies against the identical
// lot set and ranks the outcomes.
package compare

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/rules"
	"github.com/aseptiq/fillsched/core/strategy"
	"github.com/aseptiq/fillsched/core/validate"
)

// SortKey selects the ranking metric.
type SortKey string

const (
	SortMakespan    SortKey = "makespan"    // ascending
	SortUtilization SortKey = "utilization" // descending
	SortChangeovers SortKey = "changeovers" // ascending
)

// Result is the outcome of one strategy run. Either Schedule and KPIs are
// set, or Err records why the run failed.
type Result struct {
	Strategy string
	Schedule *model.Schedule
	KPIs     model.KPISet
	Err      error
}

// Report holds the ranked results of one comparison run.
type Report struct {
	RunID   string
	SortBy  SortKey
	Results []Result // successes ranked first, failures after, each tie-broken by name
}

// Ranked returns only the successful results, in rank order.
func (r Report) Ranked() []Result {
	out := make([]Result, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res)
		}
	}
	return out
}

// Run plans the lot set once per named strategy. Runs execute concurrently;
// each reads the same immutable inputs and writes only its own result slot,
// and a failure (or panic) in one run never aborts the siblings. Every
// successful schedule is re-checked through postflight before ranking.
func Run(ctx context.Context, lots []model.Lot, strategies []string, start time.Time, cfg rules.Config, sortBy SortKey, opts ...strategy.Option) (Report, error) {
	if len(strategies) == 0 {
		return Report{}, fmt.Errorf("no strategies requested")
	}
	if sortBy == "" {
		sortBy = SortMakespan
	}
	switch sortBy {
	case SortMakespan, SortUtilization, SortChangeovers:
	default:
		return Report{}, fmt.Errorf("unknown sort key %q", sortBy)
	}

	results := make([]Result, len(strategies))
	var wg sync.WaitGroup
	for i, name := range strategies {
		wg.Add(1)
		go func(slot int, name string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[slot] = Result{Strategy: name, Err: fmt.Errorf("strategy panicked: %v", r)}
				}
			}()
			results[slot] = runOne(ctx, name, lots, start, cfg, opts)
		}(i, name)
	}
	wg.Wait()

	rankResults(results, sortBy)
	return Report{RunID: uuid.NewString(), SortBy: sortBy, Results: results}, nil
}

func runOne(ctx context.Context, name string, lots []model.Lot, start time.Time, cfg rules.Config, opts []strategy.Option) Result {
	strat, err := strategy.New(name, opts...)
	if err != nil {
		return Result{Strategy: name, Err: err}
	}
	sched, err := strat.Plan(ctx, append([]model.Lot(nil), lots...), start, cfg)
	if err != nil {
		return Result{Strategy: strat.Name(), Err: err}
	}
	if err := validate.Postflight(sched, cfg); err != nil {
		return Result{Strategy: strat.Name(), Err: err}
	}
	return Result{Strategy: strat.Name(), Schedule: sched, KPIs: sched.KPIs()}
}

func rankResults(results []Result, sortBy SortKey) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		if a.Err != nil {
			return a.Strategy < b.Strategy
		}
		var less, equal bool
		switch sortBy {
		case SortUtilization:
			less = a.KPIs.Utilization > b.KPIs.Utilization
			equal = a.KPIs.Utilization == b.KPIs.Utilization
		case SortChangeovers:
			less = a.KPIs.Changeovers < b.KPIs.Changeovers
			equal = a.KPIs.Changeovers == b.KPIs.Changeovers
		default:
			less = a.KPIs.MakespanHours < b.KPIs.MakespanHours
			equal = a.KPIs.MakespanHours == b.KPIs.MakespanHours
		}
		if equal {
			return a.Strategy < b.Strategy
		}
		return less
	})
}
