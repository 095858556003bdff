package strategy

import (
	"context"
	"sort"

	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/rules"
)

// cfsPack clusters lots by type before sequencing: clusters are ordered by
// descending total vial count (type name breaks ties), lots inside a
// cluster by id. Keeping same-type work together minimises changeovers.
type cfsPack struct{}

func (cfsPack) preorder(_ context.Context, lots []model.Lot, _ rules.Config) ([]model.Lot, error) {
	return clusterByType(lots), nil
}

func (cfsPack) pickNext(remaining []model.Lot, prevType string, windowUsed float64, cfg rules.Config) int {
	return headIfFits(remaining, prevType, windowUsed, cfg)
}

func clusterByType(lots []model.Lot) []model.Lot {
	byType := make(map[string][]model.Lot)
	totals := make(map[string]int)
	for _, l := range lots {
		byType[l.Type] = append(byType[l.Type], l)
		totals[l.Type] += l.Vials
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if totals[types[i]] != totals[types[j]] {
			return totals[types[i]] > totals[types[j]]
		}
		return types[i] < types[j]
	})

	ordered := make([]model.Lot, 0, len(lots))
	for _, t := range types {
		group := byType[t]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
		ordered = append(ordered, group...)
	}
	return ordered
}
