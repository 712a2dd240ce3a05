package shift

import (
	"fmt"
	"math"
	"time"
)

// FormatElapsed renders a running clock as HH:MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// FormatDuration renders whole hours and minutes as "3h 5m", "3h" or "5m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// FormatHours renders fractional hours as "2 hr 30 min", rounded to the minute.
func FormatHours(hours float64) string {
	if hours < 0 || math.IsNaN(hours) {
		hours = 0
	}
	minutes := int64(math.Round(hours * 60))
	return fmt.Sprintf("%d hr %d min", minutes/60, minutes%60)
}
