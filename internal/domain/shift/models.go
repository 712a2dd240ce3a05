package shift

import "time"

// Shift is one clock-in to clock-out work period. While a shift is in
// progress EndTime equals StartTime and Duration is zero.
type Shift struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Duration  float64   `json:"duration"`
	OwnerID   string    `json:"ownerId"`
	IsPaid    bool      `json:"isPaid"`
}

// Hours is the shift length in fractional hours.
func (s Shift) Hours() float64 {
	return s.Duration / 3600
}

func (s Shift) Elapsed() time.Duration {
	return time.Duration(s.Duration * float64(time.Second))
}

type Expense struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Amount   float64   `json:"amount"`
	IsIncome bool      `json:"isIncome"`
}

// ActiveShift is the in-progress shift together with the time elapsed since
// clock-in at the moment it was observed.
type ActiveShift struct {
	Shift   Shift         `json:"shift"`
	Elapsed time.Duration `json:"elapsed"`
}
