package strategy

import (
	"context"
	"sort"

	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/rules"
)

// sptPack fills shortest lots first. Lot id breaks ties so the plan is
// deterministic.
type sptPack struct{}

func (sptPack) preorder(_ context.Context, lots []model.Lot, _ rules.Config) ([]model.Lot, error) {
	sort.SliceStable(lots, func(i, j int) bool {
		if lots[i].FillHours != lots[j].FillHours {
			return lots[i].FillHours < lots[j].FillHours
		}
		return lots[i].ID < lots[j].ID
	})
	return lots, nil
}

func (sptPack) pickNext(remaining []model.Lot, prevType string, windowUsed float64, cfg rules.Config) int {
	return headIfFits(remaining, prevType, windowUsed, cfg)
}
