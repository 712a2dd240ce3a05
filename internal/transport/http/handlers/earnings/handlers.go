package earningshandler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"wagevo/internal/domain/earnings"
	"wagevo/internal/domain/shift"
	"wagevo/internal/platform/metrics"
	"wagevo/internal/transport/http/middleware"
	"wagevo/internal/transport/http/shared"
)

const (
	defaultDays = 7
	maxDays     = 366
)

var ranges = []string{"week", "lastWeek", "last7", "last30", "month", "lastMonth", "ytd", "all"}

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
	r.Route("/earnings", func(r chi.Router) {
		r.Get("/summary", h.handleSummary)
		r.Get("/daily", h.handleDaily)
		r.Get("/weekly", h.handleWeekly)
		r.Get("/monthly", h.handleMonthly)
		r.Get("/overtime", h.handleOvertime)
		r.Get("/spending", h.handleSpending)
	})
}

type seriesResponse struct {
	Metric  string            `json:"metric"`
	Buckets []earnings.Bucket `json:"buckets"`
	Total   float64           `json:"total"`
}

type overtimeResponse struct {
	Range      string            `json:"range"`
	Hours      float64           `json:"hours"`
	Pay        float64           `json:"pay"`
	ByDay      []earnings.Bucket `json:"byDay"`
	HighestDay *earnings.Bucket  `json:"highestDay,omitempty"`
}

type spendingResponse struct {
	Range     string            `json:"range"`
	Deposits  float64           `json:"deposits"`
	Spending  float64           `json:"spending"`
	ByWeekday []earnings.Bucket `json:"byWeekday"`
}

// request is the parsed common query of every earnings endpoint.
type request struct {
	store *shift.Store
	asOf  time.Time
	v     *shared.Validator
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request) (request, bool) {
	store, ok := shared.Store(w, r, h.Shifts)
	if !ok {
		return request{}, false
	}
	req := request{store: store, asOf: h.now(), v: shared.NewValidator()}
	if raw := strings.TrimSpace(r.URL.Query().Get("asOf")); raw != "" {
		parsed, ok := req.v.Date("asOf", raw, h.Location)
		if ok {
			req.asOf = endOfDayIfBare(raw, parsed)
		}
	}
	return req, true
}

// endOfDayIfBare makes a bare YYYY-MM-DD cover the whole named day.
func endOfDayIfBare(raw string, parsed time.Time) time.Time {
	if len(raw) == len(time.DateOnly) {
		return parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return parsed
}

func (h *Handler) now() time.Time {
	if h.Clock == nil {
		return time.Now()
	}
	return h.Clock()
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request, req request) (earnings.Snapshot, string, bool) {
	if req.v.Reject(w, middleware.GetRequestID(r.Context())) {
		return earnings.Snapshot{}, "", false
	}
	snap, warning, err := shared.LoadSnapshot(r.Context(), req.store, h.Metrics)
	if err != nil {
		shared.StoreFailure(w, r, err, "load earnings data")
		return earnings.Snapshot{}, "", false
	}
	return snap, warning, true
}

func (h *Handler) interval(name string, asOf time.Time) earnings.Interval {
	switch name {
	case "lastWeek":
		return earnings.LastWeek(asOf, h.Location)
	case "last7":
		return earnings.LastNDays(asOf, 7)
	case "last30":
		return earnings.LastNDays(asOf, 30)
	case "month":
		return earnings.CurrentMonth(asOf, h.Location)
	case "lastMonth":
		return earnings.LastMonth(asOf, h.Location)
	case "ytd":
		return earnings.YearToDate(asOf, h.Location)
	case "all":
		return earnings.AllTime()
	default:
		return earnings.CurrentWeek(asOf, h.Location)
	}
}

func (h *Handler) rangeParam(r *http.Request, v *shared.Validator, fallback string) string {
	name := strings.TrimSpace(r.URL.Query().Get("range"))
	if name == "" {
		return fallback
	}
	v.Enum("range", name, ranges...)
	for _, candidate := range ranges {
		if strings.EqualFold(candidate, name) {
			return candidate
		}
	}
	return fallback
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r)
	if !ok {
		return
	}
	snap, warning, ok := h.snapshot(w, r, req)
	if !ok {
		return
	}
	shared.Respond(w, r, earnings.Summarize(snap, h.Policy, req.asOf, h.Location), warning)
}

// handleDaily serves one bucket per day. The window is from..to when given,
// otherwise the last `days` days ending at asOf.
func (h *Handler) handleDaily(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	metric := strings.ToLower(strings.TrimSpace(q.Get("metric")))
	if metric == "" {
		metric = "earnings"
	}
	req.v.Enum("metric", metric, "earnings", "hours", "overtime")

	days, _ := req.v.IntRange("days", q.Get("days"), 1, maxDays, defaultDays)
	iv := earnings.LastNDays(req.asOf, days)
	from, fromOK := req.v.Date("from", q.Get("from"), h.Location)
	to, toOK := req.v.Date("to", q.Get("to"), h.Location)
	if fromOK && toOK && (!from.IsZero() || !to.IsZero()) {
		if from.IsZero() || to.IsZero() {
			req.v.Add("from", "from and to must be given together")
		} else {
			req.v.DateOrder("from", from, "to", to)
			to = endOfDayIfBare(q.Get("to"), to).Add(time.Nanosecond)
			if to.Sub(from) > maxDays*24*time.Hour {
				req.v.Add("to", "range must not exceed "+strconv.Itoa(maxDays)+" days")
			}
			iv = earnings.Interval{Start: from, End: to}
		}
	}

	snap, warning, ok := h.snapshot(w, r, req)
	if !ok {
		return
	}
	var buckets []earnings.Bucket
	switch metric {
	case "hours":
		buckets = earnings.HoursByDay(snap.Shifts, iv, h.Location)
	case "overtime":
		buckets = earnings.OvertimeByDay(snap.Shifts, iv, h.Location, h.Policy)
	default:
		buckets = earnings.BucketByDay(snap.Shifts, h.Policy.WageRate, iv, h.Location)
	}
	shared.Respond(w, r, series(metric, buckets), warning)
}

func (h *Handler) handleWeekly(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r)
	if !ok {
		return
	}
	month := req.v.Month("month", r.URL.Query().Get("month"), h.Location, req.asOf)
	snap, warning, ok := h.snapshot(w, r, req)
	if !ok {
		return
	}
	buckets := earnings.BucketByWeekOfMonth(snap.Shifts, h.Policy.WageRate, month, h.Location)
	shared.Respond(w, r, series("earnings", buckets), warning)
}

func (h *Handler) handleMonthly(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r)
	if !ok {
		return
	}
	snap, warning, ok := h.snapshot(w, r, req)
	if !ok {
		return
	}
	buckets := earnings.BucketByMonth(snap.Shifts, h.Policy.WageRate, req.asOf, h.Location)
	shared.Respond(w, r, series("earnings", buckets), warning)
}

func (h *Handler) handleOvertime(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r)
	if !ok {
		return
	}
	name := h.rangeParam(r, req.v, "week")
	snap, warning, ok := h.snapshot(w, r, req)
	if !ok {
		return
	}
	iv := h.interval(name, req.asOf)
	resp := overtimeResponse{Range: name, ByDay: earnings.OvertimeByDay(snap.Shifts, iv, h.Location, h.Policy)}
	resp.Hours, resp.Pay = earnings.Overtime(snap.Shifts, h.Policy.WageRate, iv, h.Policy.OvertimeThreshold, h.Policy.OvertimeMultiplier)
	if best, found := earnings.HighestOvertimeDay(snap.Shifts, iv, h.Location, h.Policy); found && best.Value > 0 {
		resp.HighestDay = &best
	}
	shared.Respond(w, r, resp, warning)
}

func (h *Handler) handleSpending(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r)
	if !ok {
		return
	}
	name := h.rangeParam(r, req.v, "last30")
	snap, warning, ok := h.snapshot(w, r, req)
	if !ok {
		return
	}
	iv := h.interval(name, req.asOf)
	resp := spendingResponse{Range: name, ByWeekday: earnings.SpendingByWeekday(snap.Expenses, iv, h.Location)}
	resp.Deposits, resp.Spending = earnings.DepositsAndSpending(snap.Shifts, snap.Expenses, h.Policy.WageRate, iv)
	shared.Respond(w, r, resp, warning)
}

func series(metric string, buckets []earnings.Bucket) seriesResponse {
	total := 0.0
	for _, b := range buckets {
		total += b.Value
	}
	if buckets == nil {
		buckets = []earnings.Bucket{}
	}
	return seriesResponse{Metric: metric, Buckets: buckets, Total: total}
}
