// Package rules implements the stateless rule engine for the filling line:
// clean duration, type-dependent changeover durations and the bounded
// fill window between mandatory cleans.
package rules

import "time"

// Eps absorbs float rounding when comparing spans of hours.
const Eps = 1e-9

// CleanHours returns the duration of a mandatory line clean.
func CleanHours(cfg Config) float64 { return cfg.CleanHours }

// ChangeoverHours returns the setup delay between two consecutive fills.
// An empty prevType means the fill directly follows a clean and carries no
// changeover.
func ChangeoverHours(prevType, nextType string, cfg Config) float64 {
	if prevType == "" {
		return 0
	}
	if prevType == nextType {
		return cfg.ChgSameHours
	}
	return cfg.ChgDiffHours
}

// WindowBudget returns the remaining hours of fill+changeover work allowed
// before the next mandatory clean. The window clock starts when a clean
// completes; clean time itself never consumes budget.
func WindowBudget(lastCleanEnd, now time.Time, cfg Config) float64 {
	return cfg.WindowHours - now.Sub(lastCleanEnd).Hours()
}

// RequiresForcedClean reports whether placing work of the given span would
// overrun the remaining window budget.
func RequiresForcedClean(remainingHours, neededHours float64) bool {
	return neededHours > remainingHours+Eps
}

// FillHours converts a vial count to fill duration at the configured rate.
func FillHours(vials int, cfg Config) float64 {
	return float64(vials) / cfg.FillRateVPH
}
