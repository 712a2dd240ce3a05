package shared

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"wagevo/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{issues: make([]ValidationIssue, 0, 4)}
}

func (v *Validator) Add(field, reason string) {
	if v == nil {
		return
	}
	field = strings.TrimSpace(field)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{
		Field:  field,
		Reason: reason,
	})
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
	}
}

// Enum accepts an empty value or any of allowed, ignoring case.
func (v *Validator) Enum(field, value string, allowed ...string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	for _, candidate := range allowed {
		if strings.EqualFold(value, candidate) {
			return
		}
	}
	v.Add(field, "must be one of "+strings.Join(allowed, ", "))
}

// IntRange parses an optional integer within [lo, hi]. An empty value yields
// fallback.
func (v *Validator) IntRange(field, raw string, lo, hi, fallback int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		v.Add(field, fmt.Sprintf("must be a whole number between %d and %d", lo, hi))
		return fallback, false
	}
	return n, true
}

// Month parses an optional YYYY-MM value; an empty value yields fallback.
func (v *Validator) Month(field, raw string, loc *time.Location, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	month, err := ParseMonth(raw, loc)
	if err != nil {
		v.Add(field, "must be in YYYY-MM format")
		return fallback
	}
	return month
}

// Date parses an optional date; an empty value yields the zero time.
func (v *Validator) Date(field, raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}
	parsed, err := ParseDate(raw, loc)
	if err != nil {
		v.Add(field, "must be a valid date in YYYY-MM-DD or RFC3339 format")
		return time.Time{}, false
	}
	return parsed, true
}

func (v *Validator) DateOrder(startField string, start time.Time, endField string, end time.Time) {
	if start.IsZero() || end.IsZero() {
		return
	}
	if end.Before(start) {
		v.Add(startField, "must be on or before "+endField)
		v.Add(endField, "must be on or after "+startField)
	}
}

// Amount requires a finite, non-negative number.
func (v *Validator) Amount(field string, value *float64) {
	switch {
	case value == nil:
		v.Add(field, "is required")
	case math.IsNaN(*value) || math.IsInf(*value, 0):
		v.Add(field, "must be a finite number")
	case *value < 0:
		v.Add(field, "must not be negative")
	}
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

func (v *Validator) Issues() []ValidationIssue {
	if v == nil || len(v.issues) == 0 {
		return nil
	}
	out := make([]ValidationIssue, len(v.issues))
	copy(out, v.issues)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field == out[j].Field {
			return out[i].Reason < out[j].Reason
		}
		return out[i].Field < out[j].Field
	})
	return out
}

func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(
		w,
		http.StatusBadRequest,
		"validation_error",
		"payload validation failed",
		map[string]any{"fields": issues},
		requestID,
	)
}
