// Package strategy implements the sequencing strategies for the filling
// line. Each strategy turns a validated lot set into a schedule honouring
// the clean window, changeover and no-split rules; they differ only in
// ordering policy.
package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/rules"
	"github.com/aseptiq/fillsched/core/solver"
)

// Strategy plans a schedule for one lot set. Planning is pure and
// deterministic: identical input always yields an identical schedule.
type Strategy interface {
	Name() string
	Plan(ctx context.Context, lots []model.Lot, start time.Time, cfg rules.Config) (*model.Schedule, error)
}

// Option configures optional strategy collaborators.
type Option func(*options)

type options struct {
	progress ProgressSink
	backend  solver.Solver
}

// WithProgress attaches a sink receiving placement checkpoints during
// planning. The sink never influences planning results.
func WithProgress(sink ProgressSink) Option {
	return func(o *options) { o.progress = sink }
}

// WithSolver overrides the exact-optimization backend used by milp-opt.
func WithSolver(s solver.Solver) Option {
	return func(o *options) { o.backend = s }
}

// Names lists the registered strategy names in their canonical order.
func Names() []string {
	return []string{"spt-pack", "lpt-pack", "cfs-pack", "smart-pack", "hybrid-pack", "milp-opt"}
}

// New returns the strategy registered under name. Aliases drop the "-pack"
// suffix and tolerate underscores.
func New(name string, opts ...Option) (Strategy, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	switch canonical(name) {
	case "spt-pack":
		return &packer{name: "spt-pack", pol: sptPack{}, progress: o.progress}, nil
	case "lpt-pack":
		return &packer{name: "lpt-pack", pol: lptPack{}, progress: o.progress}, nil
	case "cfs-pack":
		return &packer{name: "cfs-pack", pol: cfsPack{}, progress: o.progress}, nil
	case "smart-pack":
		return &packer{name: "smart-pack", pol: smartPack{}, progress: o.progress}, nil
	case "hybrid-pack":
		return &packer{name: "hybrid-pack", pol: hybridPack{}, progress: o.progress}, nil
	case "milp-opt":
		backend := o.backend
		if backend == nil {
			backend = solver.NewBranchBound()
		}
		return &packer{name: "milp-opt", pol: &milpOpt{backend: backend}, progress: o.progress}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q (known: %s)", name, strings.Join(Names(), ", "))
}

func canonical(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "spt", "sptpack":
		return "spt-pack"
	case "lpt", "lptpack":
		return "lpt-pack"
	case "cfs", "cfspack":
		return "cfs-pack"
	case "smart", "smartpack":
		return "smart-pack"
	case "hybrid", "hybridpack":
		return "hybrid-pack"
	case "milp", "milpopt", "milp-pack":
		return "milp-opt"
	}
	return n
}
