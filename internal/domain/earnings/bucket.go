package earnings

import (
	"fmt"
	"time"

	"wagevo/internal/domain/shift"
)

// Bucket is one labelled slice of a chart series covering [Start, End).
type Bucket struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Value float64   `json:"value"`
}

func (b Bucket) contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// BucketByDay returns one bucket per calendar day in loc that overlaps iv,
// labelled with the short weekday name. Days without shifts hold zero. When
// iv is unbounded the range is taken from the shifts it contains.
func BucketByDay(shifts []shift.Shift, rate float64, iv Interval, loc *time.Location) []Bucket {
	return fillDays(shifts, iv, loc, func(s shift.Shift) float64 {
		return ShiftEarnings(s, rate)
	})
}

func HoursByDay(shifts []shift.Shift, iv Interval, loc *time.Location) []Bucket {
	return fillDays(shifts, iv, loc, shift.Shift.Hours)
}

func fillDays(shifts []shift.Shift, iv Interval, loc *time.Location, value func(shift.Shift) float64) []Bucket {
	start, end, ok := dayRange(shifts, iv)
	if !ok {
		return []Bucket{}
	}

	var buckets []Bucket
	index := map[string]int{}
	for day := startOfDay(start, loc); day.Before(end); day = day.AddDate(0, 0, 1) {
		index[day.Format(time.DateOnly)] = len(buckets)
		buckets = append(buckets, Bucket{
			Label: day.Format("Mon"),
			Start: day,
			End:   day.AddDate(0, 0, 1),
		})
	}
	for _, s := range shifts {
		if !iv.Contains(s.StartTime) {
			continue
		}
		if i, ok := index[s.StartTime.In(location(loc)).Format(time.DateOnly)]; ok {
			buckets[i].Value += value(s)
		}
	}
	return buckets
}

func dayRange(shifts []shift.Shift, iv Interval) (time.Time, time.Time, bool) {
	if iv.Bounded() {
		return iv.Start, iv.End, iv.Start.Before(iv.End)
	}
	start, end := iv.Start, iv.End
	var first, last time.Time
	found := false
	for _, s := range shifts {
		if !iv.Contains(s.StartTime) {
			continue
		}
		if !found || s.StartTime.Before(first) {
			first = s.StartTime
		}
		if !found || s.StartTime.After(last) {
			last = s.StartTime
		}
		found = true
	}
	if !found {
		return time.Time{}, time.Time{}, false
	}
	if start.IsZero() {
		start = first
	}
	if end.IsZero() {
		end = last.Add(time.Nanosecond)
	}
	return start, end, true
}

// BucketByWeekOfMonth splits the month containing month into Sunday-start
// weeks. Week 1 holds the first of the month; the first and last weeks are
// clipped to the month.
func BucketByWeekOfMonth(shifts []shift.Shift, rate float64, month time.Time, loc *time.Location) []Bucket {
	monthStart := startOfMonth(month, loc)
	monthEnd := monthStart.AddDate(0, 1, 0)

	var buckets []Bucket
	weekStart := monthStart.AddDate(0, 0, -int(monthStart.Weekday()))
	for week := 1; weekStart.Before(monthEnd); week++ {
		weekEnd := weekStart.AddDate(0, 0, 7)
		b := Bucket{Label: fmt.Sprintf("Week %d", week), Start: weekStart, End: weekEnd}
		if b.Start.Before(monthStart) {
			b.Start = monthStart
		}
		if b.End.After(monthEnd) {
			b.End = monthEnd
		}
		buckets = append(buckets, b)
		weekStart = weekEnd
	}
	for _, s := range shifts {
		for i := range buckets {
			if buckets[i].contains(s.StartTime) {
				buckets[i].Value += ShiftEarnings(s, rate)
				break
			}
		}
	}
	return buckets
}

// BucketByMonth returns January through asOf's month of asOf's year, counting
// shifts that started no later than asOf.
func BucketByMonth(shifts []shift.Shift, rate float64, asOf time.Time, loc *time.Location) []Bucket {
	local := asOf.In(location(loc))
	var buckets []Bucket
	for m := time.January; m <= local.Month(); m++ {
		start := time.Date(local.Year(), m, 1, 0, 0, 0, 0, location(loc))
		buckets = append(buckets, Bucket{
			Label: start.Format("Jan"),
			Start: start,
			End:   start.AddDate(0, 1, 0),
		})
	}
	for _, s := range shifts {
		if s.StartTime.After(asOf) {
			continue
		}
		for i := range buckets {
			if buckets[i].contains(s.StartTime) {
				buckets[i].Value += ShiftEarnings(s, rate)
				break
			}
		}
	}
	return buckets
}

// SpendingByWeekday sums non-income expenses dated inside iv by weekday,
// Sunday first.
func SpendingByWeekday(expenses []shift.Expense, iv Interval, loc *time.Location) []Bucket {
	buckets := make([]Bucket, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		buckets[d].Label = d.String()[:3]
	}
	for _, e := range expenses {
		if e.IsIncome || !iv.Contains(e.Date) {
			continue
		}
		buckets[e.Date.In(location(loc)).Weekday()].Value += e.Amount
	}
	return buckets
}
