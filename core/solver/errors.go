package solver

import (
	"errors"
	"fmt"
	"time"
)

// ErrInfeasible indicates the formulated problem has no feasible solution.
var ErrInfeasible = errors.New("milp infeasible")

// SizeLimitError is returned before any solve attempt when an instance
// exceeds the configured lot cap; solve time grows combinatorially past it.
type SizeLimitError struct {
	Count int
	Max   int
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("milp disabled: %d lots exceed the configured cap of %d", e.Count, e.Max)
}

// TimeoutError is returned when the backend exhausts its time or node
// budget without proving an optimum.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("milp solve exceeded the %s time limit", e.Limit)
}

// UnavailableError is returned when no solver backend is wired in.
type UnavailableError struct {
	Backend string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("solver backend %q unavailable", e.Backend)
}
