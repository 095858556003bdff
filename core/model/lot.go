package model

import "fmt"

// Lot represents one production batch queued for the filling line.
// Lots are immutable: they are constructed by the preflight validator
// and never modified afterwards.
type Lot struct {
	ID        string
	Type      string
	Vials     int
	FillHours float64 // Vials / fill rate, derived at validation time
}

// Validate checks that the lot value is internally sound.
func (l Lot) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("lot id must not be blank")
	}
	if l.Type == "" {
		return fmt.Errorf("lot %s: type must not be blank", l.ID)
	}
	if l.Vials <= 0 {
		return fmt.Errorf("lot %s: vials must be positive, got %d", l.ID, l.Vials)
	}
	if l.FillHours <= 0 {
		return fmt.Errorf("lot %s: fill hours must be positive, got %g", l.ID, l.FillHours)
	}
	return nil
}
