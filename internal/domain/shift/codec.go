package shift

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

func encodeShifts(shifts []Shift) ([]byte, error) {
	if shifts == nil {
		shifts = []Shift{}
	}
	return json.Marshal(shifts)
}

func decodeShifts(data []byte) ([]Shift, error) {
	var shifts []Shift
	if err := json.Unmarshal(data, &shifts); err != nil {
		return nil, err
	}
	if shifts == nil {
		shifts = []Shift{}
	}
	return shifts, nil
}

func encodeExpenses(expenses []Expense) ([]byte, error) {
	if expenses == nil {
		expenses = []Expense{}
	}
	return json.Marshal(expenses)
}

func decodeExpenses(data []byte) ([]Expense, error) {
	var expenses []Expense
	if err := json.Unmarshal(data, &expenses); err != nil {
		return nil, err
	}
	if expenses == nil {
		expenses = []Expense{}
	}
	return expenses, nil
}

func encodeShift(s Shift) ([]byte, error) {
	return json.Marshal(s)
}

func decodeShift(data []byte) (Shift, error) {
	var s Shift
	if err := json.Unmarshal(data, &s); err != nil {
		return Shift{}, err
	}
	if s.StartTime.IsZero() {
		return Shift{}, errMissingStartTime
	}
	return s, nil
}

// The start marker is unix seconds as decimal text with microsecond precision.
func encodeStartTime(t time.Time) []byte {
	return []byte(strconv.FormatFloat(float64(t.UnixMicro())/1e6, 'f', 6, 64))
}

func decodeStartTime(data []byte) (time.Time, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return time.Time{}, errMissingStartTime
	}
	return time.UnixMicro(int64(math.Round(seconds * 1e6))).UTC(), nil
}
