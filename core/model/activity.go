package model

import (
	"fmt"
	"time"
)

// ActivityKind enumerates the block types that can occupy the line.
type ActivityKind string

const (
	KindClean      ActivityKind = "CLEAN"
	KindChangeover ActivityKind = "CHANGEOVER"
	KindFill       ActivityKind = "FILL"
)

// Activity is one scheduled block on the line. Activities are produced by a
// strategy and never mutated after creation.
type Activity struct {
	Kind  ActivityKind
	Start time.Time
	End   time.Time
	LotID string // set for FILL only
	// LotType carries the lot type for FILL blocks and the "A->B"
	// transition label for CHANGEOVER blocks.
	LotType string
	Line    string
	Note    string
}

// Hours returns the activity duration in hours.
func (a Activity) Hours() float64 {
	return a.End.Sub(a.Start).Hours()
}

// Validate checks the basic activity invariant: a positive time span.
func (a Activity) Validate() error {
	if !a.End.After(a.Start) {
		return fmt.Errorf("%s activity: end %v not after start %v", a.Kind, a.End, a.Start)
	}
	return nil
}
