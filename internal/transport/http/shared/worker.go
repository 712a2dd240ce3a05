package shared

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"wagevo/internal/domain/earnings"
	"wagevo/internal/domain/shift"
	"wagevo/internal/platform/metrics"
	"wagevo/internal/requestctx"
	"wagevo/internal/transport/http/api"
	"wagevo/internal/transport/http/middleware"
)

const corruptWarning = "stored history could not be read; showing an empty result"

// Store resolves the shift store of the requesting worker, answering 401 when
// the request carries no identity.
func Store(w http.ResponseWriter, r *http.Request, dir *shift.Directory) (*shift.Store, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	return dir.For(user.UserID), true
}

// CorruptWarning reports whether err is a corrupt read that should degrade to
// an empty result, counting and logging it when so.
func CorruptWarning(ctx context.Context, err error, collector *metrics.Collector) (string, bool) {
	if !errors.Is(err, shift.ErrStorageCorrupt) {
		return "", false
	}
	if collector != nil {
		collector.RecordCorruptRead()
	}
	attrs := append([]any{"err", err}, requestctx.LogAttrs(ctx)...)
	slog.Warn("serving empty result for corrupt shift data", attrs...)
	return corruptWarning, true
}

// Respond writes data, or data with a warning when one is set.
func Respond(w http.ResponseWriter, r *http.Request, data any, warning string) {
	reqID := middleware.GetRequestID(r.Context())
	if warning != "" {
		api.Degraded(w, data, warning, reqID)
		return
	}
	api.Success(w, data, reqID)
}

// StoreFailure maps a shift store error onto the response.
func StoreFailure(w http.ResponseWriter, r *http.Request, err error, action string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, shift.ErrAlreadyClockedIn):
		api.Fail(w, http.StatusConflict, "already_clocked_in", "a shift is already in progress", reqID)
	case errors.Is(err, shift.ErrNoActiveShift):
		api.Fail(w, http.StatusConflict, "no_active_shift", "no shift is in progress", reqID)
	case errors.Is(err, shift.ErrInvalidExpense):
		api.Fail(w, http.StatusBadRequest, "invalid_expense", err.Error(), reqID)
	default:
		attrs := append([]any{"err", err}, requestctx.LogAttrs(r.Context())...)
		slog.Error(action+" failed", attrs...)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "failed to "+action, reqID)
	}
}

// LoadSnapshot reads shifts and expenses for an aggregate. Corrupt
// collections contribute nothing and produce a warning.
func LoadSnapshot(ctx context.Context, store *shift.Store, collector *metrics.Collector) (earnings.Snapshot, string, error) {
	var warning string
	shifts, err := store.ListShifts(ctx)
	if err != nil {
		msg, ok := CorruptWarning(ctx, err, collector)
		if !ok {
			return earnings.Snapshot{}, "", err
		}
		warning = msg
	}
	expenses, err := store.ListExpenses(ctx)
	if err != nil {
		msg, ok := CorruptWarning(ctx, err, collector)
		if !ok {
			return earnings.Snapshot{}, "", err
		}
		warning = msg
	}
	return earnings.Snapshot{Shifts: shifts, Expenses: expenses}, warning, nil
}
