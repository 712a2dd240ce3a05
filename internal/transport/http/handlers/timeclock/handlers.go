package timeclockhandler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"wagevo/internal/domain/earnings"
	"wagevo/internal/domain/shift"
	"wagevo/internal/platform/metrics"
	"wagevo/internal/transport/http/api"
	"wagevo/internal/transport/http/middleware"
	"wagevo/internal/transport/http/shared"
)

const (
	defaultShiftPage = 50
	maxShiftPage     = 500
)

type Handler struct {
	Shifts   *shift.Directory
	Policy   earnings.Policy
	Location *time.Location
	Metrics  *metrics.Collector
	Clock    func() time.Time
}

func NewHandler(shifts *shift.Directory, policy earnings.Policy, loc *time.Location, collector *metrics.Collector) *Handler {
	return &Handler{Shifts: shifts, Policy: policy, Location: loc, Metrics: collector, Clock: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/clock", func(r chi.Router) {
		r.Post("/in", h.handleClockIn)
		r.Post("/out", h.handleClockOut)
		r.Get("/status", h.handleStatus)
	})
	r.Get("/shifts", h.handleListShifts)
	r.Delete("/shifts/{shiftID}", h.handleDeleteShift)
	r.Get("/expenses", h.handleListExpenses)
	r.Post("/expenses", h.handleAddExpense)
}

type clockInResponse struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"startTime"`
}

type shiftResponse struct {
	shift.Shift
	Hours     float64 `json:"hours"`
	Earnings  float64 `json:"earnings"`
	Formatted string  `json:"formatted"`
}

type statusResponse struct {
	Active         bool         `json:"active"`
	Shift          *shift.Shift `json:"shift,omitempty"`
	ElapsedSeconds float64      `json:"elapsedSeconds"`
	Elapsed        string       `json:"elapsed"`
	EarnedSoFar    float64      `json:"earnedSoFar"`
}

type expenseRequest struct {
	Amount   *float64 `json:"amount"`
	Date     string   `json:"date"`
	IsIncome bool     `json:"isIncome"`
}

func (h *Handler) now() time.Time {
	if h.Clock == nil {
		return time.Now()
	}
	return h.Clock()
}

func (h *Handler) describe(s shift.Shift) shiftResponse {
	return shiftResponse{
		Shift:     s,
		Hours:     s.Hours(),
		Earnings:  earnings.ShiftEarnings(s, h.Policy.WageRate),
		Formatted: shift.FormatDuration(s.Elapsed()),
	}
}

func (h *Handler) handleClockIn(w http.ResponseWriter, r *http.Request) {
	store, ok := shared.Store(w, r, h.Shifts)
	if !ok {
		return
	}
	now := h.now()
	id, err := store.ClockIn(r.Context(), now)
	if err != nil {
		shared.StoreFailure(w, r, err, "clock in")
		return
	}
	api.Created(w, clockInResponse{ID: id, StartTime: now}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClockOut(w http.ResponseWriter, r *http.Request) {
	store, ok := shared.Store(w, r, h.Shifts)
	if !ok {
		return
	}
	closed, err := store.ClockOut(r.Context(), h.now())
	if err != nil {
		shared.StoreFailure(w, r, err, "clock out")
		return
	}
	api.Success(w, h.describe(closed), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	store, ok := shared.Store(w, r, h.Shifts)
	if !ok {
		return
	}
	active, found, err := store.ActiveShift(r.Context(), h.now())
	warning := ""
	if err != nil {
		msg, corrupt := shared.CorruptWarning(r.Context(), err, h.Metrics)
		if !corrupt {
			shared.StoreFailure(w, r, err, "read clock status")
			return
		}
		warning = msg
	}
	resp := statusResponse{Elapsed: shift.FormatElapsed(0)}
	if found {
		current := active.Shift
		resp = statusResponse{
			Active:         true,
			Shift:          &current,
			ElapsedSeconds: active.Elapsed.Seconds(),
			Elapsed:        shift.FormatElapsed(active.Elapsed),
			EarnedSoFar:    active.Elapsed.Hours() * h.Policy.WageRate,
		}
	}
	shared.Respond(w, r, resp, warning)
}

func (h *Handler) handleListShifts(w http.ResponseWriter, r *http.Request) {
	store, ok := shared.Store(w, r, h.Shifts)
	if !ok {
		return
	}
	sortParam := r.URL.Query().Get("sort")
	v := shared.NewValidator()
	v.Enum("sort", sortParam, string(shift.SortNone), string(shift.SortDateAsc), string(shift.SortDateDesc))
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	shifts, err := store.ListShifts(r.Context())
	warning := ""
	if err != nil {
		msg, corrupt := shared.CorruptWarning(r.Context(), err, h.Metrics)
		if !corrupt {
			shared.StoreFailure(w, r, err, "list shifts")
			return
		}
		warning = msg
	}
	sorted := shift.SortShifts(shifts, shift.ParseSortOrder(sortParam))
	described := make([]shiftResponse, 0, len(sorted))
	for _, s := range sorted {
		described = append(described, h.describe(s))
	}
	page := shared.Paginate(described, shared.ParsePagination(r, defaultShiftPage, maxShiftPage))
	shared.Respond(w, r, page, warning)
}

func (h *Handler) handleDeleteShift(w http.ResponseWriter, r *http.Request) {
	store, ok := shared.Store(w, r, h.Shifts)
	if !ok {
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "shiftID"))
	v := shared.NewValidator()
	v.Required("shiftID", id, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if err := store.DeleteShift(r.Context(), id); err != nil {
		shared.StoreFailure(w, r, err, "delete shift")
		return
	}
	api.Success(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	store, ok := shared.Store(w, r, h.Shifts)
	if !ok {
		return
	}
	expenses, err := store.ListExpenses(r.Context())
	warning := ""
	if err != nil {
		msg, corrupt := shared.CorruptWarning(r.Context(), err, h.Metrics)
		if !corrupt {
			shared.StoreFailure(w, r, err, "list expenses")
			return
		}
		warning = msg
	}
	shared.Respond(w, r, expenses, warning)
}

func (h *Handler) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	store, ok := shared.Store(w, r, h.Shifts)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Amount("amount", payload.Amount)
	date, _ := v.Date("date", payload.Date, h.Location)
	if v.Reject(w, reqID) {
		return
	}

	stored, err := store.AddExpense(r.Context(), shift.Expense{Date: date, Amount: *payload.Amount, IsIncome: payload.IsIncome})
	if err != nil {
		shared.StoreFailure(w, r, err, "add expense")
		return
	}
	api.Created(w, stored, reqID)
}
