package strategy

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/rules"
	"github.com/aseptiq/fillsched/core/solver"
)

// milpOpt finds the exact optimum for small instances. Lots are assigned to
// clean-bounded blocks and ordered inside each block; since total fill time
// is constant, minimising clean plus changeover cost minimises makespan.
// The formulation is handed to a pluggable backend; instances above the
// configured lot cap fail fast instead of attempting a combinatorial solve.
type milpOpt struct {
	backend solver.Solver
}

func (m *milpOpt) preorder(ctx context.Context, lots []model.Lot, cfg rules.Config) ([]model.Lot, error) {
	n := len(lots)
	if n > cfg.MILPMaxLots {
		return nil, &solver.SizeLimitError{Count: n, Max: cfg.MILPMaxLots}
	}
	if m.backend == nil {
		return nil, &solver.UnavailableError{Backend: "milp"}
	}

	prob, vars := formulate(lots, cfg)
	timeout := time.Duration(cfg.MILPTimeLimitSeconds) * time.Second
	sol, err := m.backend.Solve(ctx, prob, timeout)
	if err != nil {
		if errors.Is(err, solver.ErrInfeasible) {
			return nil, &InfeasibleScheduleError{Strategy: "milp-opt", Reason: "milp model infeasible"}
		}
		return nil, err
	}
	return vars.order(lots, sol.X), nil
}

func (m *milpOpt) pickNext(remaining []model.Lot, prevType string, windowUsed float64, cfg rules.Config) int {
	// Follow the exact order; a clean starts wherever the solution placed
	// a block boundary.
	return headIfFits(remaining, prevType, windowUsed, cfg)
}

// milpVars maps the flat variable vector back onto the model's decision
// variables.
//
//	y[b][i]    lot i assigned to block b
//	u[b]       block b used
//	s[b][i]    lot i starts block b
//	e[b][i]    lot i ends block b
//	z[b][i][j] lot j immediately follows lot i in block b
//	p[b][i]    position of lot i inside block b (subtour elimination)
type milpVars struct {
	n, blocks              int
	offY, offU, offS, offE int
	offZ, offP             int
	total                  int
}

func newMilpVars(n, blocks int) milpVars {
	v := milpVars{n: n, blocks: blocks}
	v.offY = 0
	v.offU = v.offY + blocks*n
	v.offS = v.offU + blocks
	v.offE = v.offS + blocks*n
	v.offZ = v.offE + blocks*n
	v.offP = v.offZ + blocks*n*n
	v.total = v.offP + blocks*n
	return v
}

func (v milpVars) y(b, i int) int    { return v.offY + b*v.n + i }
func (v milpVars) u(b int) int       { return v.offU + b }
func (v milpVars) s(b, i int) int    { return v.offS + b*v.n + i }
func (v milpVars) e(b, i int) int    { return v.offE + b*v.n + i }
func (v milpVars) z(b, i, j int) int { return v.offZ + b*v.n*v.n + i*v.n + j }
func (v milpVars) p(b, i int) int    { return v.offP + b*v.n + i }

func formulate(lots []model.Lot, cfg rules.Config) (solver.Problem, milpVars) {
	n := len(lots)
	blocks := cfg.MILPMaxBlocks
	if blocks > n {
		blocks = n
	}
	if blocks < 1 {
		blocks = 1
	}
	v := newMilpVars(n, blocks)

	setup := func(i, j int) float64 {
		return rules.ChangeoverHours(lots[i].Type, lots[j].Type, cfg)
	}

	obj := make([]float64, v.total)
	lower := make([]float64, v.total)
	upper := make([]float64, v.total)
	integer := make([]bool, v.total)
	for i := range upper {
		upper[i] = 1
		integer[i] = true
	}
	for b := 0; b < blocks; b++ {
		obj[v.u(b)] = cfg.CleanHours
		for i := 0; i < n; i++ {
			upper[v.p(b, i)] = float64(n)
			upper[v.z(b, i, i)] = 0 // no self-loops
			for j := 0; j < n; j++ {
				if i != j {
					obj[v.z(b, i, j)] = setup(i, j)
				}
			}
		}
	}

	var p solver.Problem
	p.Minimize = obj
	p.Lower = lower
	p.Upper = upper
	p.Integer = integer

	eq := func(row []float64, rhs float64) {
		p.AEq = append(p.AEq, row)
		p.BEq = append(p.BEq, rhs)
	}
	ub := func(row []float64, rhs float64) {
		p.AUb = append(p.AUb, row)
		p.BUb = append(p.BUb, rhs)
	}
	row := func() []float64 { return make([]float64, v.total) }

	// Each lot lands in exactly one block.
	for i := 0; i < n; i++ {
		r := row()
		for b := 0; b < blocks; b++ {
			r[v.y(b, i)] = 1
		}
		eq(r, 1)
	}

	for b := 0; b < blocks; b++ {
		// A block is used iff it holds at least one lot.
		r := row()
		r[v.u(b)] = 1
		for i := 0; i < n; i++ {
			r[v.y(b, i)] = -1
		}
		ub(r, 0)
		r = row()
		r[v.u(b)] = -float64(n)
		for i := 0; i < n; i++ {
			r[v.y(b, i)] = 1
		}
		ub(r, 0)

		// Exactly one start lot per used block. The matching one-end count
		// is implied by this row plus the degree rows below; stating it as
		// another equality would leave the system rank deficient and the
		// relaxation unsolvable.
		r = row()
		for i := 0; i < n; i++ {
			r[v.s(b, i)] = 1
		}
		r[v.u(b)] = -1
		eq(r, 0)

		// Path degree constraints within the block.
		for i := 0; i < n; i++ {
			r = row()
			for j := 0; j < n; j++ {
				if j != i {
					r[v.z(b, i, j)] = 1
				}
			}
			r[v.y(b, i)] = -1
			r[v.e(b, i)] = 1
			eq(r, 0)

			r = row()
			for j := 0; j < n; j++ {
				if j != i {
					r[v.z(b, j, i)] = 1
				}
			}
			r[v.y(b, i)] = -1
			r[v.s(b, i)] = 1
			eq(r, 0)
		}

		// Position bounds tie to assignment; MTZ rows break subtours.
		for i := 0; i < n; i++ {
			r = row()
			r[v.y(b, i)] = 1
			r[v.p(b, i)] = -1
			ub(r, 0)
			r = row()
			r[v.p(b, i)] = 1
			r[v.y(b, i)] = -float64(n)
			ub(r, 0)
		}
		bigM := float64(n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				r = row()
				r[v.p(b, i)] = 1
				r[v.p(b, j)] = -1
				r[v.z(b, i, j)] = bigM
				ub(r, bigM-1)
			}
		}

		// Window capacity: fills plus in-block changeovers fit one window.
		// Unused blocks satisfy it trivially through the u term.
		r = row()
		for i := 0; i < n; i++ {
			r[v.y(b, i)] = lots[i].FillHours
			for j := 0; j < n; j++ {
				if i != j {
					r[v.z(b, i, j)] = setup(i, j)
				}
			}
		}
		r[v.u(b)] = cfg.WindowHours
		ub(r, 2*cfg.WindowHours)
	}

	return p, v
}

// order reconstructs the global lot order from a solved assignment:
// blocks in index order, lots following the successor arcs inside each.
func (v milpVars) order(lots []model.Lot, x []float64) []model.Lot {
	on := func(idx int) bool { return x[idx] > 0.5 }

	var orderIdx []int
	taken := make([]bool, v.n)
	for b := 0; b < v.blocks; b++ {
		if !on(v.u(b)) {
			continue
		}
		start := -1
		for i := 0; i < v.n; i++ {
			if on(v.s(b, i)) {
				start = i
				break
			}
		}
		if start < 0 {
			continue
		}
		cur := start
		for cur >= 0 && !taken[cur] {
			orderIdx = append(orderIdx, cur)
			taken[cur] = true
			next := -1
			for j := 0; j < v.n; j++ {
				if j != cur && on(v.z(b, cur, j)) {
					next = j
					break
				}
			}
			cur = next
		}
	}

	// Any lot the arc walk missed is appended shortest-first so the result
	// is still a complete, deterministic order.
	var rest []int
	for i := 0; i < v.n; i++ {
		if !taken[i] {
			rest = append(rest, i)
		}
	}
	sort.Slice(rest, func(a, b int) bool {
		if lots[rest[a]].FillHours != lots[rest[b]].FillHours {
			return lots[rest[a]].FillHours < lots[rest[b]].FillHours
		}
		return lots[rest[a]].ID < lots[rest[b]].ID
	})
	orderIdx = append(orderIdx, rest...)

	out := make([]model.Lot, 0, v.n)
	for _, i := range orderIdx {
		out = append(out, lots[i])
	}
	return out
}
