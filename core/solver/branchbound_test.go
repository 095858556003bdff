package solver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// knapsackProblem maximises the value packed under a weight cap, phrased as
// a minimisation: min -3x0 -2x1 s.t. 2x0 + x1 <= 2, x binary.
func knapsackProblem() Problem {
	return Problem{
		Minimize: []float64{-3, -2},
		AUb:      [][]float64{{2, 1}},
		BUb:      []float64{2},
		Lower:    []float64{0, 0},
		Upper:    []float64{1, 1},
		Integer:  []bool{true, true},
	}
}

func TestBranchBoundSolvesIntegerProblem(t *testing.T) {
	bb := NewBranchBound()
	sol, err := bb.Solve(context.Background(), knapsackProblem(), 0)
	require.NoError(t, err)

	// Taking only x0 scores -3; the LP relaxation's fractional mix is cut off.
	assert.InDelta(t, -3, sol.Objective, 1e-6)
	assert.InDelta(t, 1, sol.X[0], 1e-6)
	assert.InDelta(t, 0, sol.X[1], 1e-6)
}

func TestBranchBoundHonoursEqualities(t *testing.T) {
	// Pick exactly one of two binary options; the cheaper one wins.
	p := Problem{
		Minimize: []float64{5, 3},
		AEq:      [][]float64{{1, 1}},
		BEq:      []float64{1},
		Lower:    []float64{0, 0},
		Upper:    []float64{1, 1},
		Integer:  []bool{true, true},
	}
	sol, err := NewBranchBound().Solve(context.Background(), p, 0)
	require.NoError(t, err)
	assert.InDelta(t, 3, sol.Objective, 1e-6)
	assert.InDelta(t, 0, sol.X[0], 1e-6)
	assert.InDelta(t, 1, sol.X[1], 1e-6)
}

func TestBranchBoundInfeasible(t *testing.T) {
	// x0 >= 2 contradicts the unit upper bound.
	p := Problem{
		Minimize: []float64{1},
		AUb:      [][]float64{{-1}},
		BUb:      []float64{-2},
		Lower:    []float64{0},
		Upper:    []float64{1},
		Integer:  []bool{true},
	}
	_, err := NewBranchBound().Solve(context.Background(), p, 0)
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestBranchBoundCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBranchBound().Solve(ctx, knapsackProblem(), 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBranchBoundTimeout(t *testing.T) {
	bb := NewBranchBound()
	_, err := bb.Solve(context.Background(), knapsackProblem(), time.Nanosecond)
	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, time.Nanosecond, timeout.Limit)
}

func TestBranchBoundSurvivesSingularRelaxations(t *testing.T) {
	orig := lpSimplex
	defer func() { lpSimplex = orig }()
	lpSimplex = func(_ []float64, _ mat.Matrix, _ []float64, _ mat.Matrix, _ []float64) ([]float64, error) {
		return nil, lp.ErrSingular
	}

	// A singular basis is not an infeasibility proof: the search must fall
	// back to pinning variables and still reach the optimum.
	sol, err := NewBranchBound().Solve(context.Background(), knapsackProblem(), 0)
	require.NoError(t, err)
	assert.InDelta(t, -3, sol.Objective, 1e-6)
	assert.InDelta(t, 1, sol.X[0], 1e-6)
	assert.InDelta(t, 0, sol.X[1], 1e-6)
}

func TestBranchBoundFailingRelaxationsStillProveInfeasible(t *testing.T) {
	orig := lpSimplex
	defer func() { lpSimplex = orig }()
	lpSimplex = func(_ []float64, _ mat.Matrix, _ []float64, _ mat.Matrix, _ []float64) ([]float64, error) {
		return nil, errors.New("simplex blew up")
	}

	// Two binaries can never sum to 3; pinned enumeration finds no point.
	p := Problem{
		Minimize: []float64{1, 1},
		AEq:      [][]float64{{1, 1}},
		BEq:      []float64{3},
		Lower:    []float64{0, 0},
		Upper:    []float64{1, 1},
		Integer:  []bool{true, true},
	}
	_, err := NewBranchBound().Solve(context.Background(), p, 0)
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestProblemValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Problem)
	}{
		{"no variables", func(p *Problem) { p.Minimize = nil }},
		{"rhs mismatch", func(p *Problem) { p.BUb = nil }},
		{"row width", func(p *Problem) { p.AUb = [][]float64{{1}} }},
		{"missing bounds", func(p *Problem) { p.Lower = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := knapsackProblem()
			tt.mutate(&p)
			_, err := NewBranchBound().Solve(context.Background(), p, 0)
			assert.Error(t, err)
		})
	}
}
