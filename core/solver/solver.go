// Package solver defines the narrow boundary to the exact-optimization
// backend used by the milp-opt strategy: a formulated problem goes in, an
// assignment comes out. The default backend is an in-process
// branch-and-bound over the gonum simplex; callers may substitute any other
// implementation of Solver.
package solver

import (
	"context"
	"fmt"
	"time"
)

// Problem is a mixed-integer linear program in inequality/equality form:
// minimise Minimize·x subject to AEq·x = BEq, AUb·x <= BUb and
// Lower <= x <= Upper, with x[i] integral where Integer[i] is set.
type Problem struct {
	Minimize []float64
	AEq      [][]float64
	BEq      []float64
	AUb      [][]float64
	BUb      []float64
	Lower    []float64
	Upper    []float64
	Integer  []bool
}

// NumVars returns the number of decision variables.
func (p Problem) NumVars() int { return len(p.Minimize) }

func (p Problem) validate() error {
	n := p.NumVars()
	if n == 0 {
		return fmt.Errorf("problem has no variables")
	}
	if len(p.AEq) != len(p.BEq) || len(p.AUb) != len(p.BUb) {
		return fmt.Errorf("constraint matrix and rhs lengths differ")
	}
	for _, row := range p.AEq {
		if len(row) != n {
			return fmt.Errorf("equality row width %d, want %d", len(row), n)
		}
	}
	for _, row := range p.AUb {
		if len(row) != n {
			return fmt.Errorf("inequality row width %d, want %d", len(row), n)
		}
	}
	if len(p.Lower) != n || len(p.Upper) != n || len(p.Integer) != n {
		return fmt.Errorf("bounds and integrality markers must cover all %d variables", n)
	}
	return nil
}

// Solution holds an optimal assignment and its objective value.
type Solution struct {
	X         []float64
	Objective float64
}

// Solver solves a formulated problem within the given timeout. A zero
// timeout means no limit beyond ctx.
type Solver interface {
	Solve(ctx context.Context, p Problem, timeout time.Duration) (Solution, error)
}
