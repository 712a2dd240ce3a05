package eventshandler

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"wagevo/internal/transport/http/api"
	"wagevo/internal/transport/http/middleware"
	ws "wagevo/internal/transport/websocket"
)

type Handler struct {
	Hub     *ws.Hub
	Origins middleware.OriginPolicy
}

func NewHandler(hub *ws.Hub, origins middleware.OriginPolicy) *Handler {
	return &Handler{Hub: hub, Origins: origins}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleEvents)
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkOrigin admits non-browser clients, same-host pages and configured
// origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if parsed, err := url.Parse(origin); err == nil && parsed.Host == r.Host {
		return true
	}
	if h.Origins.Allowed(origin) {
		return true
	}
	slog.Warn("websocket connection rejected from unauthorized origin", "origin", origin)
	return false
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	if h.Hub == nil {
		api.Fail(w, http.StatusServiceUnavailable, "stream_unavailable", "event stream unavailable", reqID)
		return
	}
	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err, "requestId", reqID)
		return
	}
	ws.NewClient(h.Hub, conn, user.UserID).Start()
}
