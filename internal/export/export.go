// Package export projects shift history into report rows and writes them as
// CSV or PDF.
package export

import (
	"time"

	"wagevo/internal/domain/earnings"
	"wagevo/internal/domain/shift"
)

const (
	dateLayout      = "January 2"
	timestampLayout = "2006-01-02 15:04"
)

var csvHeader = []string{"Date", "Start", "End", "Duration (s)", "Hours", "Earnings"}

type Row struct {
	Date            string  `json:"date"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	DurationSeconds float64 `json:"durationSeconds"`
	Hours           float64 `json:"hours"`
	Earnings        float64 `json:"earnings"`
}

// Rows keeps the order of shifts. Times are rendered in loc.
func Rows(shifts []shift.Shift, rate float64, loc *time.Location) []Row {
	if loc == nil {
		loc = time.Local
	}
	rows := make([]Row, 0, len(shifts))
	for _, s := range shifts {
		start := s.StartTime.In(loc)
		rows = append(rows, Row{
			Date:            start.Format(dateLayout),
			Start:           start.Format(timestampLayout),
			End:             s.EndTime.In(loc).Format(timestampLayout),
			DurationSeconds: s.Duration,
			Hours:           s.Hours(),
			Earnings:        earnings.ShiftEarnings(s, rate),
		})
	}
	return rows
}

func totals(rows []Row) (hours, earned float64) {
	for _, r := range rows {
		hours += r.Hours
		earned += r.Earnings
	}
	return hours, earned
}
