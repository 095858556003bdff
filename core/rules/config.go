package rules

import "fmt"

// Config holds every planning parameter consumed by the rule engine, the
// validator and the strategies. It is an immutable value passed explicitly
// into each call; there is no process-wide settings object.
type Config struct {
	FillRateVPH  float64 `json:"fill_rate_vph"`
	CleanHours   float64 `json:"clean_hours"`
	WindowHours  float64 `json:"window_hours"`
	ChgSameHours float64 `json:"chg_same_hours"`
	ChgDiffHours float64 `json:"chg_diff_hours"`
	StrictDupIDs bool    `json:"strict_duplicate_ids"`

	// Smart-pack tuning.
	BeamWidth          int     `json:"beam_width"`
	LookaheadDepth     int     `json:"lookahead_depth"`
	UtilPadHours       float64 `json:"util_pad_hours"`
	ScoreAlpha         float64 `json:"score_alpha"` // different-type changeover penalty
	ScoreBeta          float64 `json:"score_beta"`  // same-type changeover penalty
	SlackWasteWeight   float64 `json:"slack_waste_weight"`
	ForcedCleanPenalty float64 `json:"forced_clean_penalty"`
	StreakBonus        float64 `json:"streak_bonus"`

	// Hybrid-pack tuning.
	HybridSameTypeBonus     float64 `json:"hybrid_same_type_bonus"`
	HybridSPTWeight         float64 `json:"hybrid_spt_weight"`
	HybridSwitchPenaltyMult float64 `json:"hybrid_switch_penalty_mult"`

	// MILP limits.
	MILPMaxLots          int `json:"milp_max_lots"`
	MILPMaxBlocks        int `json:"milp_max_blocks"`
	MILPTimeLimitSeconds int `json:"milp_time_limit_seconds"`
}

// Default returns the planning configuration used when no file overrides it.
func Default() Config {
	return Config{
		FillRateVPH:  19920,
		CleanHours:   24,
		WindowHours:  120,
		ChgSameHours: 4,
		ChgDiffHours: 8,

		BeamWidth:          3,
		LookaheadDepth:     1,
		ScoreAlpha:         8,
		ScoreBeta:          4,
		SlackWasteWeight:   3,
		ForcedCleanPenalty: 50,
		StreakBonus:        1,

		HybridSameTypeBonus:     2,
		HybridSPTWeight:         0.5,
		HybridSwitchPenaltyMult: 1.1,

		MILPMaxLots:          30,
		MILPMaxBlocks:        30,
		MILPTimeLimitSeconds: 60,
	}
}

// Validate checks that the process constants are usable.
func (c Config) Validate() error {
	if c.FillRateVPH <= 0 {
		return fmt.Errorf("fill_rate_vph must be > 0, got %g", c.FillRateVPH)
	}
	if c.CleanHours <= 0 {
		return fmt.Errorf("clean_hours must be > 0, got %g", c.CleanHours)
	}
	if c.WindowHours <= 0 {
		return fmt.Errorf("window_hours must be > 0, got %g", c.WindowHours)
	}
	if c.ChgSameHours < 0 || c.ChgDiffHours < 0 {
		return fmt.Errorf("changeover hours must be >= 0")
	}
	if c.BeamWidth < 1 {
		return fmt.Errorf("beam_width must be >= 1, got %d", c.BeamWidth)
	}
	if c.MILPMaxLots < 1 {
		return fmt.Errorf("milp_max_lots must be >= 1, got %d", c.MILPMaxLots)
	}
	return nil
}
