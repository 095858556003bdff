package model

import "time"

// Schedule is an ordered, non-overlapping sequence of activities for a
// single filling line, sorted by start time.
type Schedule struct {
	Line       string
	Strategy   string
	Activities []Activity
}

// KPISet summarises a schedule. All values are derived from the activity
// sequence; nothing here is stored independently.
type KPISet struct {
	MakespanHours   float64
	CleanHours      float64
	ChangeoverHours float64
	FillHours       float64
	Utilization     float64
	LotsScheduled   int
	CleanBlocks     int
	Changeovers     int
}

// Start returns the start of the first activity, or the zero time for an
// empty schedule.
func (s *Schedule) Start() time.Time {
	if len(s.Activities) == 0 {
		return time.Time{}
	}
	return s.Activities[0].Start
}

// End returns the end of the last activity, or the zero time for an empty
// schedule.
func (s *Schedule) End() time.Time {
	if len(s.Activities) == 0 {
		return time.Time{}
	}
	return s.Activities[len(s.Activities)-1].End
}

// KPIs derives the KPI summary from the activity sequence.
func (s *Schedule) KPIs() KPISet {
	var k KPISet
	if len(s.Activities) == 0 {
		return k
	}
	for _, a := range s.Activities {
		h := a.Hours()
		switch a.Kind {
		case KindClean:
			k.CleanHours += h
			k.CleanBlocks++
		case KindChangeover:
			k.ChangeoverHours += h
			k.Changeovers++
		case KindFill:
			k.FillHours += h
			k.LotsScheduled++
		}
	}
	k.MakespanHours = s.End().Sub(s.Start()).Hours()
	if k.MakespanHours > 0 {
		k.Utilization = k.FillHours / k.MakespanHours
	}
	return k
}
