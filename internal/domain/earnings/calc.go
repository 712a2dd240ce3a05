package earnings

import "wagevo/internal/domain/shift"

func ShiftEarnings(s shift.Shift, rate float64) float64 {
	return s.Hours() * rate
}

// TotalEarnings sums hours times rate over shifts that started inside iv.
func TotalEarnings(shifts []shift.Shift, rate float64, iv Interval) float64 {
	total := 0.0
	for _, s := range shifts {
		if iv.Contains(s.StartTime) {
			total += ShiftEarnings(s, rate)
		}
	}
	return total
}

func TotalHours(shifts []shift.Shift, iv Interval) float64 {
	total := 0.0
	for _, s := range shifts {
		if iv.Contains(s.StartTime) {
			total += s.Hours()
		}
	}
	return total
}

func ShiftCount(shifts []shift.Shift, iv Interval) int {
	count := 0
	for _, s := range shifts {
		if iv.Contains(s.StartTime) {
			count++
		}
	}
	return count
}

func AverageShiftHours(shifts []shift.Shift, iv Interval) float64 {
	count := ShiftCount(shifts, iv)
	if count == 0 {
		return 0
	}
	return TotalHours(shifts, iv) / float64(count)
}

// AvailableBalance is all-time earnings less every recorded expense amount.
// The income flag is not consulted. The result may be negative.
func AvailableBalance(shifts []shift.Shift, expenses []shift.Expense, rate float64) float64 {
	balance := TotalEarnings(shifts, rate, AllTime())
	for _, e := range expenses {
		balance -= e.Amount
	}
	return balance
}

// DepositsAndSpending returns earnings inside iv and the sum of non-income
// expenses dated inside iv.
func DepositsAndSpending(shifts []shift.Shift, expenses []shift.Expense, rate float64, iv Interval) (deposits, spending float64) {
	deposits = TotalEarnings(shifts, rate, iv)
	for _, e := range expenses {
		if !e.IsIncome && iv.Contains(e.Date) {
			spending += e.Amount
		}
	}
	return deposits, spending
}

// Withholding applies a flat percentage to gross.
func Withholding(gross, percent float64) (withheld, net float64) {
	withheld = gross * percent / 100
	return withheld, gross - withheld
}
