package earnings

import (
	"math"
	"strconv"
	"strings"
)

// ShortCurrencyString renders a compact dollar amount within a four digit
// budget. Values of 1000 and above are shown in thousands with a K suffix,
// which takes one digit of the budget. Trailing zeros after the decimal point
// are dropped. Negative values are formatted by magnitude behind a minus sign.
//
//	1234.5 -> $1.23K, 42 -> $42, 9.999 -> $9.999, 123456 -> $123K, -1500 -> -$1.5K
func ShortCurrencyString(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "$0"
	}
	if v < 0 {
		s := ShortCurrencyString(-v)
		if s == "$0" {
			return s
		}
		return "-" + s
	}
	if v >= 1000 {
		scaled := v / 1000
		return "$" + formatTrimmed(scaled, 3-integerDigits(scaled)) + "K"
	}
	return "$" + formatTrimmed(v, 4-integerDigits(v))
}

// CurrencyString renders v with two decimals and thousands separators.
func CurrencyString(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	negative := v < 0
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	whole, frac := s[:len(s)-3], s[len(s)-2:]

	var b strings.Builder
	if negative && s != "0.00" {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// integerDigits counts the digits of the integer part of a non-negative v.
func integerDigits(v float64) int {
	return len(strconv.Itoa(int(v)))
}

func formatTrimmed(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}
