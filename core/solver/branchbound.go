package solver

import (
	"context"
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// BranchBound solves mixed-integer programs by depth-first branch and
// bound over simplex relaxations.
type BranchBound struct {
	// NodeLimit caps the number of explored relaxations; hitting it
	// surfaces as a timeout.
	NodeLimit int
	// Tol is the integrality tolerance.
	Tol float64
}

// NewBranchBound returns a backend with default limits.
func NewBranchBound() *BranchBound {
	return &BranchBound{NodeLimit: 200000, Tol: 1e-6}
}

// lpSimplex points at the relaxation solve so tests can simulate backend
// failures.
var lpSimplex = func(c []float64, g mat.Matrix, h []float64, a mat.Matrix, b []float64) ([]float64, error) {
	cStd, aStd, bStd := lp.Convert(c, g, h, a, b)
	_, sol, err := lp.Simplex(cStd, aStd, bStd, 1e-9, nil)
	return sol, err
}

type bbNode struct {
	lower []float64
	upper []float64
}

// relaxStatus classifies the outcome of one relaxation solve. Only a
// proven-infeasible relaxation may prune its node; a singular or otherwise
// failed solve leaves the node unresolved.
type relaxStatus int

const (
	relaxSolved relaxStatus = iota
	relaxInfeasible
	relaxFailed
)

// Solve explores the branch-and-bound tree until it proves an optimum,
// the problem turns out infeasible, or the time/node budget runs out.
func (bb *BranchBound) Solve(ctx context.Context, p Problem, timeout time.Duration) (Solution, error) {
	if err := p.validate(); err != nil {
		return Solution{}, err
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	n := p.NumVars()
	root := bbNode{lower: append([]float64(nil), p.Lower...), upper: append([]float64(nil), p.Upper...)}
	stack := []bbNode{root}
	var best *Solution
	nodes := 0

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return Solution{}, err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return Solution{}, &TimeoutError{Limit: timeout}
		}
		nodes++
		if bb.NodeLimit > 0 && nodes > bb.NodeLimit {
			if best != nil {
				return *best, nil
			}
			return Solution{}, &TimeoutError{Limit: timeout}
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, obj, status := bb.relax(p, nd)
		if status == relaxInfeasible {
			continue
		}
		if status == relaxFailed {
			// No bound for this node, but no proof of infeasibility either.
			// Split on an unpinned integral variable so descendants shrink
			// until the relaxation succeeds or the node is fully pinned.
			if down, up, ok := splitUnresolved(p, nd); ok {
				stack = append(stack, up, down)
				continue
			}
			if sol, ok := evalPinned(p, nd); ok && (best == nil || sol.Objective < best.Objective-1e-9) {
				best = &sol
			}
			continue
		}
		if best != nil && obj >= best.Objective-1e-9 {
			continue
		}

		branch := -1
		worstFrac := bb.Tol
		for i := 0; i < n; i++ {
			if !p.Integer[i] {
				continue
			}
			f := x[i] - math.Floor(x[i])
			dist := math.Min(f, 1-f)
			if dist > worstFrac {
				worstFrac = dist
				branch = i
			}
		}
		if branch < 0 {
			sol := Solution{X: roundIntegral(x, p.Integer), Objective: obj}
			best = &sol
			continue
		}

		down := bbNode{lower: append([]float64(nil), nd.lower...), upper: append([]float64(nil), nd.upper...)}
		up := bbNode{lower: append([]float64(nil), nd.lower...), upper: append([]float64(nil), nd.upper...)}
		down.upper[branch] = math.Floor(x[branch])
		up.lower[branch] = math.Ceil(x[branch])
		// Explore the rounded-down child first.
		stack = append(stack, up, down)
	}

	if best == nil {
		return Solution{}, ErrInfeasible
	}
	return *best, nil
}

// relax solves the LP relaxation of the problem under the node's variable
// bounds.
func (bb *BranchBound) relax(p Problem, nd bbNode) (x []float64, obj float64, status relaxStatus) {
	n := p.NumVars()
	rows := len(p.AUb)
	for i := 0; i < n; i++ {
		if !math.IsInf(nd.upper[i], 1) {
			rows++
		}
		rows++ // lower bound row
	}
	g := mat.NewDense(rows, n, nil)
	h := make([]float64, rows)
	r := 0
	for i, row := range p.AUb {
		g.SetRow(r, row)
		h[r] = p.BUb[i]
		r++
	}
	for i := 0; i < n; i++ {
		if !math.IsInf(nd.upper[i], 1) {
			g.Set(r, i, 1)
			h[r] = nd.upper[i]
			r++
		}
		g.Set(r, i, -1)
		h[r] = -nd.lower[i]
		r++
	}

	var a mat.Matrix
	var b []float64
	if len(p.AEq) > 0 {
		ae := mat.NewDense(len(p.AEq), n, nil)
		for i, row := range p.AEq {
			ae.SetRow(i, row)
		}
		a = ae
		b = p.BEq
	}

	sol, err := lpSimplex(p.Minimize, g, h, a, b)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return nil, 0, relaxInfeasible
		}
		// Singular basis, unbounded relaxation or a solver breakdown: the
		// node's feasibility is unknown and it must not be pruned.
		return nil, 0, relaxFailed
	}
	if len(sol) < n {
		return nil, 0, relaxFailed
	}
	x = make([]float64, n)
	for i := 0; i < n; i++ {
		v := sol[i]
		if v < nd.lower[i] {
			v = nd.lower[i]
		}
		if v > nd.upper[i] {
			v = nd.upper[i]
		}
		x[i] = v
		obj += p.Minimize[i] * v
	}
	return x, obj, relaxSolved
}

// splitUnresolved branches on the first unpinned integral variable of a
// node whose relaxation failed. ok is false once every integral variable
// is pinned by equal bounds.
func splitUnresolved(p Problem, nd bbNode) (down, up bbNode, ok bool) {
	for i := range p.Integer {
		if !p.Integer[i] || nd.upper[i]-nd.lower[i] < 0.5 {
			continue
		}
		mid := math.Floor((nd.lower[i] + nd.upper[i]) / 2)
		down = bbNode{lower: append([]float64(nil), nd.lower...), upper: append([]float64(nil), nd.upper...)}
		up = bbNode{lower: append([]float64(nil), nd.lower...), upper: append([]float64(nil), nd.upper...)}
		down.upper[i] = mid
		up.lower[i] = mid + 1
		return down, up, true
	}
	return bbNode{}, bbNode{}, false
}

// evalPinned judges a node whose variables are all pinned to a single
// point: the point either satisfies every constraint or the node is dead.
func evalPinned(p Problem, nd bbNode) (Solution, bool) {
	const tol = 1e-6
	n := p.NumVars()
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		if nd.upper[i]-nd.lower[i] > tol {
			return Solution{}, false
		}
		x[i] = nd.lower[i]
	}
	for i, row := range p.AEq {
		if math.Abs(dot(row, x)-p.BEq[i]) > tol {
			return Solution{}, false
		}
	}
	for i, row := range p.AUb {
		if dot(row, x) > p.BUb[i]+tol {
			return Solution{}, false
		}
	}
	return Solution{X: roundIntegral(x, p.Integer), Objective: dot(p.Minimize, x)}, true
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func roundIntegral(x []float64, integer []bool) []float64 {
	out := append([]float64(nil), x...)
	for i, isInt := range integer {
		if isInt {
			out[i] = math.Round(out[i])
		}
	}
	return out
}
