package earnings

import (
	"testing"
	"time"

	"wagevo/internal/domain/shift"
)

func TestSummarize(t *testing.T) {
	snap := Snapshot{
		Shifts: []shift.Shift{
			hoursShift(time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC), 10),
			hoursShift(time.Date(2024, 2, 27, 8, 0, 0, 0, time.UTC), 4),
			hoursShift(time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), 6),
		},
		Expenses: []shift.Expense{{Amount: 30, Date: time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)}},
	}
	sum := Summarize(snap, DefaultPolicy(), asOf, time.UTC)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"this week", sum.ThisWeek, 150},
		{"last 7 days", sum.Last7Days, 150},
		{"last 30 days", sum.Last30Days, 210},
		{"last week", sum.LastWeek, 60},
		{"last month", sum.LastMonth, 60},
		{"year to date", sum.YearToDate, 300},
		{"balance", sum.AvailableBalance, 270},
		{"overtime hours", sum.OvertimeHours, 2},
		{"overtime pay", sum.OvertimePay, 45},
		{"withheld", sum.Withheld, 21},
		{"spending", sum.Spending30Days, 30},
		{"hours 7 days", sum.Hours7Days, 10},
	}
	for _, c := range checks {
		if !almostEqual(c.got, c.want) {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
	if sum.ShiftCount != 3 {
		t.Fatalf("expected 3 shifts, got %d", sum.ShiftCount)
	}
	if sum.Display.AvailableBalance != "$270.00" || sum.Display.ThisWeek != "$150" {
		t.Fatalf("unexpected display %+v", sum.Display)
	}
}
