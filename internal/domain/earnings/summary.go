package earnings

import (
	"time"

	"wagevo/internal/domain/shift"
)

// Snapshot is the input every aggregate is derived from. It is read fresh
// from the shift store for each computation.
type Snapshot struct {
	Shifts   []shift.Shift
	Expenses []shift.Expense
}

type Summary struct {
	AsOf              time.Time `json:"asOf"`
	Policy            Policy    `json:"policy"`
	ThisWeek          float64   `json:"thisWeek"`
	Last7Days         float64   `json:"last7Days"`
	Last30Days        float64   `json:"last30Days"`
	LastWeek          float64   `json:"lastWeek"`
	LastMonth         float64   `json:"lastMonth"`
	YearToDate        float64   `json:"yearToDate"`
	AvailableBalance  float64   `json:"availableBalance"`
	Deposits30Days    float64   `json:"deposits30Days"`
	Spending30Days    float64   `json:"spending30Days"`
	OvertimeHours     float64   `json:"overtimeHours"`
	OvertimePay       float64   `json:"overtimePay"`
	Withheld          float64   `json:"withheld"`
	NetAfterWithheld  float64   `json:"netAfterWithheld"`
	AverageShiftHours float64   `json:"averageShiftHours"`
	ShiftCount        int       `json:"shiftCount"`
	Hours7Days        float64   `json:"hours7Days"`
	Display           Display   `json:"display"`
}

// Display holds the tile strings shown next to the raw figures.
type Display struct {
	ThisWeek         string `json:"thisWeek"`
	Last7Days        string `json:"last7Days"`
	YearToDate       string `json:"yearToDate"`
	AvailableBalance string `json:"availableBalance"`
	Withheld         string `json:"withheld"`
}

// Summarize computes the dashboard tile set as of asOf. Overtime covers the
// current week; withholding applies to the last seven days of earnings.
func Summarize(snap Snapshot, policy Policy, asOf time.Time, loc *time.Location) Summary {
	rate := policy.WageRate
	week := CurrentWeek(asOf, loc)
	last7 := LastNDays(asOf, 7)
	last30 := LastNDays(asOf, 30)

	s := Summary{
		AsOf:              asOf,
		Policy:            policy,
		ThisWeek:          TotalEarnings(snap.Shifts, rate, week),
		Last7Days:         TotalEarnings(snap.Shifts, rate, last7),
		Last30Days:        TotalEarnings(snap.Shifts, rate, last30),
		LastWeek:          TotalEarnings(snap.Shifts, rate, LastWeek(asOf, loc)),
		LastMonth:         TotalEarnings(snap.Shifts, rate, LastMonth(asOf, loc)),
		YearToDate:        TotalEarnings(snap.Shifts, rate, YearToDate(asOf, loc)),
		AvailableBalance:  AvailableBalance(snap.Shifts, snap.Expenses, rate),
		AverageShiftHours: AverageShiftHours(snap.Shifts, AllTime()),
		ShiftCount:        ShiftCount(snap.Shifts, AllTime()),
		Hours7Days:        TotalHours(snap.Shifts, last7),
	}
	s.Deposits30Days, s.Spending30Days = DepositsAndSpending(snap.Shifts, snap.Expenses, rate, last30)
	s.OvertimeHours, s.OvertimePay = Overtime(snap.Shifts, rate, week, policy.OvertimeThreshold, policy.OvertimeMultiplier)
	s.Withheld, s.NetAfterWithheld = Withholding(s.Last7Days, policy.WithholdingPercent)
	s.Display = Display{
		ThisWeek:         ShortCurrencyString(s.ThisWeek),
		Last7Days:        ShortCurrencyString(s.Last7Days),
		YearToDate:       ShortCurrencyString(s.YearToDate),
		AvailableBalance: CurrencyString(s.AvailableBalance),
		Withheld:         CurrencyString(s.Withheld),
	}
	return s
}
