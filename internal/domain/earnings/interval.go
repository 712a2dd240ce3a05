package earnings

import "time"

// Interval is the half-open range [Start, End). A zero Start or End leaves
// that side unbounded.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (iv Interval) Contains(t time.Time) bool {
	if !iv.Start.IsZero() && t.Before(iv.Start) {
		return false
	}
	if !iv.End.IsZero() && !t.Before(iv.End) {
		return false
	}
	return true
}

func (iv Interval) Bounded() bool {
	return !iv.Start.IsZero() && !iv.End.IsZero()
}

func AllTime() Interval {
	return Interval{}
}

// LastNDays covers the n*24h before asOf, with asOf itself included.
func LastNDays(asOf time.Time, n int) Interval {
	return Interval{
		Start: asOf.Add(-time.Duration(n) * 24 * time.Hour),
		End:   asOf.Add(time.Nanosecond),
	}
}

// CurrentWeek is the Sunday-start calendar week containing asOf.
func CurrentWeek(asOf time.Time, loc *time.Location) Interval {
	day := startOfDay(asOf, loc)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	return Interval{Start: start, End: start.AddDate(0, 0, 7)}
}

func LastWeek(asOf time.Time, loc *time.Location) Interval {
	current := CurrentWeek(asOf, loc)
	return Interval{Start: current.Start.AddDate(0, 0, -7), End: current.Start}
}

func CurrentMonth(asOf time.Time, loc *time.Location) Interval {
	start := startOfMonth(asOf, loc)
	return Interval{Start: start, End: start.AddDate(0, 1, 0)}
}

// LastMonth is the calendar month before the one containing asOf.
func LastMonth(asOf time.Time, loc *time.Location) Interval {
	current := startOfMonth(asOf, loc)
	return Interval{Start: current.AddDate(0, -1, 0), End: current}
}

// YearToDate runs from January 1 of asOf's year up to and including asOf.
func YearToDate(asOf time.Time, loc *time.Location) Interval {
	local := asOf.In(location(loc))
	return Interval{
		Start: time.Date(local.Year(), time.January, 1, 0, 0, 0, 0, location(loc)),
		End:   asOf.Add(time.Nanosecond),
	}
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(location(loc))
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, location(loc))
}

func startOfMonth(t time.Time, loc *time.Location) time.Time {
	local := t.In(location(loc))
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, location(loc))
}
