// Package validate implements the two validation phases around planning:
// preflight on raw lot records and postflight on produced schedules.
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/rules"
)

// RawLot is one unvalidated record from a lot source. All fields arrive as
// text; preflight owns parsing and range checks.
type RawLot struct {
	ID    string
	Type  string
	Vials string
}

// Issue describes one record-level problem found during preflight.
type Issue struct {
	LotID string
	Field string
	Msg   string
}

func (i Issue) String() string {
	id := i.LotID
	if id == "" {
		id = "(unknown)"
	}
	return fmt.Sprintf("lot %s: %s: %s", id, i.Field, i.Msg)
}

// Result collects every error and warning from a preflight pass. Preflight
// never fails fast: callers get the full list in one run.
type Result struct {
	Errors   []Issue
	Warnings []Issue
}

// OK reports whether the input can be planned.
func (r Result) OK() bool { return len(r.Errors) == 0 }

func (r *Result) errf(id, field, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{LotID: id, Field: field, Msg: fmt.Sprintf(format, args...)})
}

func (r *Result) warnf(id, field, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{LotID: id, Field: field, Msg: fmt.Sprintf(format, args...)})
}

// Preflight validates raw records and constructs the immutable lot set.
// Records with errors are excluded from the returned lots; duplicates are
// warnings unless cfg.StrictDupIDs promotes them to errors. Running
// preflight twice on the same input yields identical output.
func Preflight(records []RawLot, cfg rules.Config) ([]model.Lot, Result) {
	var res Result
	if err := cfg.Validate(); err != nil {
		res.errf("", "config", "%v", err)
		return nil, res
	}

	lots := make([]model.Lot, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		id := strings.TrimSpace(rec.ID)
		typ := strings.TrimSpace(rec.Type)
		bad := false

		if id == "" {
			res.errf("", "id", "blank lot id")
			bad = true
		}
		if typ == "" {
			res.errf(id, "type", "blank lot type")
			bad = true
		}

		vials := 0
		vialsStr := strings.TrimSpace(rec.Vials)
		if vialsStr == "" {
			res.errf(id, "vials", "missing vial count")
			bad = true
		} else if n, err := strconv.Atoi(vialsStr); err != nil {
			res.errf(id, "vials", "non-numeric vial count %q", vialsStr)
			bad = true
		} else if n <= 0 {
			res.errf(id, "vials", "vial count must be positive, got %d", n)
			bad = true
		} else {
			vials = n
		}

		if id != "" {
			if seen[id] {
				if cfg.StrictDupIDs {
					res.errf(id, "id", "duplicate lot id")
					bad = true
				} else {
					res.warnf(id, "id", "duplicate lot id")
				}
			}
			seen[id] = true
		}

		if bad {
			continue
		}

		fillHours := rules.FillHours(vials, cfg)
		if fillHours > cfg.WindowHours+rules.Eps {
			maxVials := int(cfg.WindowHours * cfg.FillRateVPH)
			res.errf(id, "vials",
				"%d vials (~%.2f h) exceed the %g h clean window; max vials per lot at current rate: %d",
				vials, fillHours, cfg.WindowHours, maxVials)
			continue
		}

		lots = append(lots, model.Lot{ID: id, Type: typ, Vials: vials, FillHours: fillHours})
	}
	return lots, res
}
