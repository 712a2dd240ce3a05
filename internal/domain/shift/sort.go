package shift

import (
	"sort"
	"strings"
)

type SortOrder string

// ParseSortOrder maps a query value onto a SortOrder, defaulting to SortNone.
func ParseSortOrder(value string) SortOrder {
	switch {
	case strings.EqualFold(value, string(SortDateAsc)):
		return SortDateAsc
	case strings.EqualFold(value, string(SortDateDesc)):
		return SortDateDesc
	default:
		return SortNone
	}
}

// SortShifts returns a copy of shifts ordered by start time. SortNone keeps
// the stored order.
func SortShifts(shifts []Shift, order SortOrder) []Shift {
	out := make([]Shift, len(shifts))
	copy(out, shifts)
	switch order {
	case SortDateAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	case SortDateDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	}
	return out
}
