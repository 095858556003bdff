package strategy

import (
	"context"
	"time"

	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/rules"
)

// DefaultLine identifies the single filling line schedules are built for.
const DefaultLine = "line-1"

// policy is the variant-specific part of a packing strategy: a global
// preorder of the lot set and a per-step pick from the remaining lots.
// pickNext returns the index of the lot to place next, or -1 to close the
// current block with a clean.
type policy interface {
	preorder(ctx context.Context, lots []model.Lot, cfg rules.Config) ([]model.Lot, error)
	pickNext(remaining []model.Lot, prevType string, windowUsed float64, cfg rules.Config) int
}

// packer drives the packing skeleton shared by every strategy: it walks the
// policy's picks, inserts mandatory cleans when the window budget runs out
// and emits changeover and fill activities.
type packer struct {
	name     string
	pol      policy
	progress ProgressSink
}

func (p *packer) Name() string { return p.name }

func (p *packer) Plan(ctx context.Context, lots []model.Lot, start time.Time, cfg rules.Config) (*model.Schedule, error) {
	// Oversize lots can never be scheduled, regardless of policy. Checked
	// before any placement is committed.
	for _, l := range lots {
		if l.FillHours > cfg.WindowHours+rules.Eps {
			return nil, &OversizeLotError{LotID: l.ID, FillHours: l.FillHours, WindowHours: cfg.WindowHours}
		}
	}

	sched := &model.Schedule{Line: DefaultLine, Strategy: p.name}
	if len(lots) == 0 {
		return sched, nil
	}

	remaining, err := p.pol.preorder(ctx, append([]model.Lot(nil), lots...), cfg)
	if err != nil {
		return nil, err
	}

	now := start
	emit := func(a model.Activity) {
		a.Line = DefaultLine
		sched.Activities = append(sched.Activities, a)
	}
	var lastCleanEnd time.Time
	clean := func() {
		end := now.Add(hoursDur(rules.CleanHours(cfg)))
		emit(model.Activity{Kind: model.KindClean, Start: now, End: end, Note: "line reset"})
		now = end
		lastCleanEnd = end
	}

	// The line starts dirty: every schedule opens with a clean.
	clean()
	windowUsed := 0.0
	prevType := ""
	total := len(remaining)
	placed := 0

	for len(remaining) > 0 {
		idx := p.pol.pickNext(remaining, prevType, windowUsed, cfg)
		if idx < 0 {
			if prevType == "" && windowUsed == 0 {
				return nil, &InfeasibleScheduleError{Strategy: p.name,
					Reason: "no remaining lot fits an empty window"}
			}
			clean()
			windowUsed = 0
			prevType = ""
			continue
		}

		lot := remaining[idx]
		chg := rules.ChangeoverHours(prevType, lot.Type, cfg)
		need := chg + lot.FillHours
		if rules.RequiresForcedClean(rules.WindowBudget(lastCleanEnd, now, cfg), need) {
			// The policy picked a lot that does not fit; force the clean it
			// implies and re-pick against the reset state.
			if prevType == "" && windowUsed == 0 {
				return nil, &InfeasibleScheduleError{Strategy: p.name,
					Reason: "lot " + lot.ID + " does not fit an empty window"}
			}
			clean()
			windowUsed = 0
			prevType = ""
			continue
		}
		remaining = append(remaining[:idx], remaining[idx+1:]...)

		if chg > 0 {
			end := now.Add(hoursDur(chg))
			emit(model.Activity{Kind: model.KindChangeover, Start: now, End: end,
				LotType: prevType + "->" + lot.Type})
			now = end
		}
		end := now.Add(hoursDur(lot.FillHours))
		emit(model.Activity{Kind: model.KindFill, Start: now, End: end,
			LotID: lot.ID, LotType: lot.Type})
		now = end

		windowUsed += need
		prevType = lot.Type
		placed++
		if p.progress != nil {
			p.progress.Publish(ProgressEvent{Strategy: p.name, Placed: placed, Total: total, LotID: lot.ID})
		}
	}
	return sched, nil
}

func hoursDur(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

// fits reports whether a changeover+fill of the given span still fits the
// window with the configured utilisation pad.
func fits(windowUsed, need float64, cfg rules.Config) bool {
	return windowUsed+need <= cfg.WindowHours-cfg.UtilPadHours+rules.Eps
}

// PlanGivenOrder builds a schedule that fills lots strictly in the supplied
// order, closing a block whenever the next lot no longer fits. It is the
// baseline the comparator reports optimized strategies against.
func PlanGivenOrder(ctx context.Context, lots []model.Lot, start time.Time, cfg rules.Config) (*model.Schedule, error) {
	p := &packer{name: "given-order", pol: givenOrder{}}
	return p.Plan(ctx, lots, start, cfg)
}

// givenOrder keeps the caller's order and always places the head lot.
type givenOrder struct{}

func (givenOrder) preorder(_ context.Context, lots []model.Lot, _ rules.Config) ([]model.Lot, error) {
	return lots, nil
}

func (givenOrder) pickNext(remaining []model.Lot, prevType string, windowUsed float64, cfg rules.Config) int {
	return headIfFits(remaining, prevType, windowUsed, cfg)
}

// headIfFits is the pick shared by every strict-order policy: place the
// head lot when it fits, otherwise close the block.
func headIfFits(remaining []model.Lot, prevType string, windowUsed float64, cfg rules.Config) int {
	chg := rules.ChangeoverHours(prevType, remaining[0].Type, cfg)
	if rules.RequiresForcedClean(cfg.WindowHours-windowUsed, chg+remaining[0].FillHours) {
		return -1
	}
	return 0
}
