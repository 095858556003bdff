package validate

import (
	"fmt"
	"math"

	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/rules"
)

// WindowOverrunError reports that the fill+changeover span between two
// cleans exceeded the configured window. It always signals a defect in the
// strategy that produced the schedule.
type WindowOverrunError struct {
	Index       int
	UsedHours   float64
	WindowHours float64
}

func (e *WindowOverrunError) Error() string {
	return fmt.Sprintf("window overrun at activity %d: %.2f h used > %g h window",
		e.Index, e.UsedHours, e.WindowHours)
}

// LotSplitError reports a fill that appears more than once, i.e. a lot
// whose fill operation was split across interruptions.
type LotSplitError struct {
	LotID string
	Index int
}

func (e *LotSplitError) Error() string {
	return fmt.Sprintf("lot %s split across activities (second fill at activity %d)", e.LotID, e.Index)
}

// ScheduleInvariantError reports an ordering or changeover invariant broken
// by the producing strategy.
type ScheduleInvariantError struct {
	Index int
	Msg   string
}

func (e *ScheduleInvariantError) Error() string {
	return fmt.Sprintf("schedule invariant broken at activity %d: %s", e.Index, e.Msg)
}

// Postflight re-walks a finished schedule and checks every structural
// invariant. Unlike preflight it fails fast: any violation means the
// producing strategy is defective, not the data.
func Postflight(s *model.Schedule, cfg rules.Config) error {
	acts := s.Activities
	if len(acts) == 0 {
		return nil
	}
	if acts[0].Kind != model.KindClean {
		return &ScheduleInvariantError{Index: 0, Msg: "schedule must open with a clean"}
	}

	prevType := ""
	pendingChg := false
	chgHours := 0.0
	windowUsed := 0.0
	seenFills := make(map[string]bool)

	for i, a := range acts {
		if err := a.Validate(); err != nil {
			return &ScheduleInvariantError{Index: i, Msg: err.Error()}
		}
		if i > 0 && a.Start.Before(acts[i-1].End) {
			return &ScheduleInvariantError{Index: i, Msg: fmt.Sprintf(
				"activity overlaps predecessor (activities %d and %d)", i-1, i)}
		}

		switch a.Kind {
		case model.KindClean:
			if pendingChg {
				return &ScheduleInvariantError{Index: i, Msg: "changeover not followed by a fill"}
			}
			if want := rules.CleanHours(cfg); math.Abs(a.Hours()-want) > rules.Eps {
				return &ScheduleInvariantError{Index: i, Msg: fmt.Sprintf(
					"clean lasts %.2f h, configured %g h", a.Hours(), want)}
			}
			windowUsed = 0
			prevType = ""

		case model.KindChangeover:
			if pendingChg {
				return &ScheduleInvariantError{Index: i, Msg: "consecutive changeovers"}
			}
			pendingChg = true
			chgHours = a.Hours()
			windowUsed += chgHours
			if windowUsed > cfg.WindowHours+rules.Eps {
				return &WindowOverrunError{Index: i, UsedHours: windowUsed, WindowHours: cfg.WindowHours}
			}

		case model.KindFill:
			want := rules.ChangeoverHours(prevType, a.LotType, cfg)
			switch {
			case want == 0 && pendingChg:
				return &ScheduleInvariantError{Index: i, Msg: "unexpected changeover directly after clean"}
			case want > 0 && !pendingChg:
				return &ScheduleInvariantError{Index: i, Msg: fmt.Sprintf(
					"missing %g h changeover before lot %s", want, a.LotID)}
			case want > 0 && math.Abs(chgHours-want) > rules.Eps:
				return &ScheduleInvariantError{Index: i, Msg: fmt.Sprintf(
					"changeover before lot %s is %.2f h, rule table says %g h", a.LotID, chgHours, want)}
			}
			if seenFills[a.LotID] {
				return &LotSplitError{LotID: a.LotID, Index: i}
			}
			seenFills[a.LotID] = true
			windowUsed += a.Hours()
			if windowUsed > cfg.WindowHours+rules.Eps {
				return &WindowOverrunError{Index: i, UsedHours: windowUsed, WindowHours: cfg.WindowHours}
			}
			prevType = a.LotType
			pendingChg = false

		default:
			return &ScheduleInvariantError{Index: i, Msg: fmt.Sprintf("unknown activity kind %q", a.Kind)}
		}
	}
	if pendingChg {
		return &ScheduleInvariantError{Index: len(acts) - 1, Msg: "schedule ends on a changeover"}
	}
	return nil
}
