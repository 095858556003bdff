package strategy

import (
	"context"
	"math"

	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/rules"
)

// smartPack scores every remaining lot at each placement step and commits
// the first decision of a bounded beam search. The score rewards filling
// the window tightly and penalises changeovers and unusable slack that
// would force an avoidable clean.
type smartPack struct{}

func (smartPack) preorder(_ context.Context, lots []model.Lot, _ rules.Config) ([]model.Lot, error) {
	// No global reorder: ordering emerges from per-step scoring.
	return lots, nil
}

func (smartPack) pickNext(remaining []model.Lot, prevType string, windowUsed float64, cfg rules.Config) int {
	return beamPick(remaining, prevType, windowUsed, cfg, smartScore)
}

// scoreFunc rates placing remaining[idx] against the current block state.
// ok is false when the lot does not fit the remaining window budget.
type scoreFunc func(remaining []model.Lot, idx int, prevType string, windowUsed float64, cfg rules.Config) (score float64, ok bool)

func smartScore(remaining []model.Lot, idx int, prevType string, windowUsed float64, cfg rules.Config) (float64, bool) {
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
	}

	slack := unusableSlack(remaining, idx, lot.Type, windowUsed+need, cfg)
	score := need - switchPen - cfg.SlackWasteWeight*slack
	if slack > 0 {
		// Positive unusable slack means this placement forces a clean
		// while other lots still wait.
		score -= cfg.ForcedCleanPenalty
	}
	if prevType != "" && prevType == lot.Type {
		score += cfg.StreakBonus
	}
	// Mild preference for shorter fills when everything else ties.
	score -= 0.01 * lot.FillHours
	return score, true
}

// unusableSlack returns the window hours left after placing the candidate
// when no remaining lot can use them, i.e. slack that will be wasted by the
// forced clean it implies.
func unusableSlack(remaining []model.Lot, placed int, newPrev string, usedAfter float64, cfg rules.Config) float64 {
	capLeft := cfg.WindowHours - usedAfter
	if capLeft <= rules.Eps {
		return 0
	}
	minNeed := math.Inf(1)
	for i, c := range remaining {
		if i == placed {
			continue
		}
		need := rules.ChangeoverHours(newPrev, c.Type, cfg) + c.FillHours
		if need < minNeed {
			minNeed = need
		}
	}
	if math.IsInf(minNeed, 1) {
		return 0 // nothing left to place, slack costs nothing
	}
	if minNeed > capLeft+rules.Eps {
		return capLeft
	}
	return 0
}

// beamPick retains the top-width scored candidates and rates each by its
// base score plus a discounted bounded lookahead over the placements it
// enables. Ties resolve to the lowest candidate index, keeping the plan
// deterministic.
func beamPick(remaining []model.Lot, prevType string, windowUsed float64, cfg rules.Config, score scoreFunc) int {
	var base []scored
	for i := range remaining {
		if s, ok := score(remaining, i, prevType, windowUsed, cfg); ok {
			base = append(base, scored{idx: i, val: s})
		}
	}
	if len(base) == 0 {
		return -1
	}
	sortScored(base)

	width := cfg.BeamWidth
	if width < 1 {
		width = 1
	}
	if width > len(base) {
		width = len(base)
	}

	bestIdx := base[0].idx
	bestCombo := math.Inf(-1)
	for _, cand := range base[:width] {
		lot := remaining[cand.idx]
		need := rules.ChangeoverHours(prevType, lot.Type, cfg) + lot.FillHours
		rest := without(remaining, cand.idx)
		combo := cand.val + lookaheadDiscount*lookahead(rest, lot.Type, windowUsed+need, cfg, score, cfg.LookaheadDepth)
		if combo > bestCombo+rules.Eps {
			bestCombo = combo
			bestIdx = cand.idx
		}
	}
	return bestIdx
}

// lookaheadDiscount weights future placements below the committed one.
const lookaheadDiscount = 0.25

// lookahead returns the best achievable score over a bounded horizon of
// further placements from the simulated block state.
func lookahead(remaining []model.Lot, prevType string, windowUsed float64, cfg rules.Config, score scoreFunc, depth int) float64 {
	if depth <= 0 || len(remaining) == 0 {
		return 0
	}
	best := 0.0
	for i := range remaining {
		s, ok := score(remaining, i, prevType, windowUsed, cfg)
		if !ok {
			continue
		}
		if depth > 1 {
			lot := remaining[i]
			need := rules.ChangeoverHours(prevType, lot.Type, cfg) + lot.FillHours
			s += lookaheadDiscount * lookahead(without(remaining, i), lot.Type, windowUsed+need, cfg, score, depth-1)
		}
		if s > best {
			best = s
		}
	}
	return best
}

type scored struct {
	idx int
	val float64
}

func sortScored(s []scored) {
	// Insertion sort keeps the order stable on equal scores; candidate
	// lists are small.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].val > s[j-1].val+rules.Eps; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func without(lots []model.Lot, idx int) []model.Lot {
	out := make([]model.Lot, 0, len(lots)-1)
	out = append(out, lots[:idx]...)
	return append(out, lots[idx+1:]...)
}
