package exporthandler

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"wagevo/internal/domain/earnings"
	"wagevo/internal/domain/shift"
	"wagevo/internal/export"
	"wagevo/internal/platform/metrics"
	"wagevo/internal/requestctx"
	"wagevo/internal/transport/http/api"
	"wagevo/internal/transport/http/middleware"
	"wagevo/internal/transport/http/shared"
)

type Handler struct {
	Shifts   *shift.Directory
	Policy   earnings.Policy
	Location *time.Location
	Metrics  *metrics.Collector
}

func NewHandler(shifts *shift.Directory, policy earnings.Policy, loc *time.Location, collector *metrics.Collector) *Handler {
	return &Handler{Shifts: shifts, Policy: policy, Location: loc, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/export", func(r chi.Router) {
		r.Get("/shifts.csv", h.handleCSV)
		r.Get("/shifts.pdf", h.handlePDF)
	})
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "text/csv; charset=utf-8", "csv", export.WriteCSV)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "application/pdf", "pdf", export.WritePDF)
}

// serve renders into a buffer first so a failed render still gets a JSON
// error instead of a truncated file.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request, contentType, ext string, write func(io.Writer, []export.Row) error) {
	store, ok := shared.Store(w, r, h.Shifts)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	v := shared.NewValidator()
	from, _ := v.Date("from", q.Get("from"), h.Location)
	to, _ := v.Date("to", q.Get("to"), h.Location)
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, reqID) {
		return
	}

	shifts, err := store.ListShifts(r.Context())
	if err != nil {
		if _, corrupt := shared.CorruptWarning(r.Context(), err, h.Metrics); !corrupt {
			shared.StoreFailure(w, r, err, "export shifts")
			return
		}
		w.Header().Set("X-Wagevo-Warning", "stored history could not be read")
	}
	iv := earnings.Interval{Start: from}
	if !to.IsZero() {
		iv.End = to.AddDate(0, 0, 1)
	}
	selected := make([]shift.Shift, 0, len(shifts))
	for _, s := range shift.SortShifts(shifts, shift.SortDateAsc) {
		if iv.Contains(s.StartTime) {
			selected = append(selected, s)
		}
	}

	var buf bytes.Buffer
	if err := write(&buf, export.Rows(selected, h.Policy.WageRate, h.Location)); err != nil {
		attrs := append([]any{"format", ext, "err", err}, requestctx.LogAttrs(r.Context())...)
		slog.Error("render shift export failed", attrs...)
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render export", reqID)
		return
	}
	owner := strings.NewReplacer("/", "_", "\\", "_", "\"", "_").Replace(store.OwnerID)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"shifts-%s.%s\"", owner, ext))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("write shift export failed", "err", err)
	}
}
