package strategy

import "fmt"

// OversizeLotError reports a lot whose fill alone exceeds the clean window.
// No strategy can schedule such a lot because a fill may never be
// interrupted by a clean.
type OversizeLotError struct {
	LotID       string
	FillHours   float64
	WindowHours float64
}

func (e *OversizeLotError) Error() string {
	return fmt.Sprintf("lot %s: fill of %.2f h exceeds the %g h clean window",
		e.LotID, e.FillHours, e.WindowHours)
}

// InfeasibleScheduleError reports that a strategy could not produce any
// valid schedule for reasons other than a single oversize lot.
type InfeasibleScheduleError struct {
	Strategy string
	Reason   string
}

func (e *InfeasibleScheduleError) Error() string {
	return fmt.Sprintf("%s: no feasible schedule: %s", e.Strategy, e.Reason)
}
