package strategy

import (
	"context"

	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/rules"
)

// hybridPack fixes the inter-cluster order with CFS clustering, then runs
// the smart scoring beam within it. Extra bonuses keep type streaks alive
// and prefer short fills while staying on a type, so the window is packed
// tightly without paying the full-changeover price CFS avoids.
type hybridPack struct{}

func (hybridPack) preorder(_ context.Context, lots []model.Lot, _ rules.Config) ([]model.Lot, error) {
	return clusterByType(lots), nil
}

func (hybridPack) pickNext(remaining []model.Lot, prevType string, windowUsed float64, cfg rules.Config) int {
	return beamPick(remaining, prevType, windowUsed, cfg, hybridScore)
}

func hybridScore(remaining []model.Lot, idx int, prevType string, windowUsed float64, cfg rules.Config) (float64, bool) {
	lot := remaining[idx]
	chg := rules.ChangeoverHours(prevType, lot.Type, cfg)
	need := chg + lot.FillHours
	if !fits(windowUsed, need, cfg) {
		return 0, false
	}

	var switchPen float64
	if prevType != "" {
		if prevType == lot.Type {
			switchPen = cfg.ScoreBeta
		} else {
			switchPen = cfg.ScoreAlpha
		}
		switchPen *= cfg.HybridSwitchPenaltyMult
	}

	sameType := prevType == "" || prevType == lot.Type
	slack := unusableSlack(remaining, idx, lot.Type, windowUsed+need, cfg)
	score := need - switchPen - cfg.SlackWasteWeight*slack
	if slack > 0 {
		score -= cfg.ForcedCleanPenalty
	}
	if sameType {
		score += cfg.HybridSameTypeBonus + cfg.StreakBonus
		if lot.FillHours > 0 {
			score += cfg.HybridSPTWeight / lot.FillHours
		}
	} else {
		score += typeSPTHint(remaining, idx, lot.Type)
	}
	score -= 0.005 * lot.FillHours
	return score, true
}

// typeSPTHint rewards switching to a type whose queue holds short fills,
// so a switch lands where the window can still be topped up.
func typeSPTHint(remaining []model.Lot, placed int, target string) float64 {
	shortest := -1.0
	for i, c := range remaining {
		if i == placed || c.Type != target {
			continue
		}
		if shortest < 0 || c.FillHours < shortest {
			shortest = c.FillHours
		}
	}
	if shortest < 0 {
		return 0
	}
	hint := 2.0 - 0.02*shortest
	if hint < 0 {
		return 0
	}
	return hint
}
