package earnings

import (
	"time"

	"wagevo/internal/domain/shift"
)

// Policy carries the pay parameters the aggregates are computed with.
type Policy struct {
	WageRate           float64 `json:"wageRate"`
	OvertimeThreshold  float64 `json:"overtimeThresholdHours"`
	OvertimeMultiplier float64 `json:"overtimeMultiplier"`
	WithholdingPercent float64 `json:"withholdingPercent"`
}

func DefaultPolicy() Policy {
	return Policy{
		WageRate:           DefaultWageRate,
		OvertimeThreshold:  DefaultOvertimeThreshold,
		OvertimeMultiplier: DefaultOvertimeMultiplier,
		WithholdingPercent: DefaultWithholdingPercent,
	}
}

func shiftOvertime(s shift.Shift, threshold float64) float64 {
	over := s.Hours() - threshold
	if over < 0 {
		return 0
	}
	return over
}

// Overtime sums, per shift started inside iv, the hours beyond threshold and
// prices them at rate times multiplier.
func Overtime(shifts []shift.Shift, rate float64, iv Interval, threshold, multiplier float64) (hours, pay float64) {
	for _, s := range shifts {
		if iv.Contains(s.StartTime) {
			hours += shiftOvertime(s, threshold)
		}
	}
	return hours, hours * rate * multiplier
}

// OvertimeByDay buckets per-shift overtime hours by calendar day.
func OvertimeByDay(shifts []shift.Shift, iv Interval, loc *time.Location, policy Policy) []Bucket {
	return fillDays(shifts, iv, loc, func(s shift.Shift) float64 {
		return shiftOvertime(s, policy.OvertimeThreshold)
	})
}

// HighestOvertimeDay returns the first day with the most overtime hours.
func HighestOvertimeDay(shifts []shift.Shift, iv Interval, loc *time.Location, policy Policy) (Bucket, bool) {
	days := OvertimeByDay(shifts, iv, loc, policy)
	if len(days) == 0 {
		return Bucket{}, false
	}
	best := days[0]
	for _, d := range days[1:] {
		if d.Value > best.Value {
			best = d
		}
	}
	return best, true
}
