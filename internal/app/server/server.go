package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"wagevo/internal/domain/earnings"
	"wagevo/internal/domain/shift"
	"wagevo/internal/platform/config"
	"wagevo/internal/platform/jobs"
	"wagevo/internal/platform/kv"
	"wagevo/internal/platform/metrics"
	"wagevo/internal/transport/http/api"
	earningshandler "wagevo/internal/transport/http/handlers/earnings"
	eventshandler "wagevo/internal/transport/http/handlers/events"
	exporthandler "wagevo/internal/transport/http/handlers/export"
	timeclockhandler "wagevo/internal/transport/http/handlers/timeclock"
	"wagevo/internal/transport/http/middleware"
	ws "wagevo/internal/transport/websocket"
)

type App struct {
	Config   config.Config
	Store    kv.Store
	Shifts   *shift.Directory
	Hub      *ws.Hub
	Jobs     *jobs.Service
	Metrics  *metrics.Collector
	Location *time.Location
	Router   http.Handler

	unsubscribe []func()
}

// New opens the configured store and assembles the application around it.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := kv.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	app, err := NewWithStore(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

// NewWithStore assembles the application over an already open store.
func NewWithStore(cfg config.Config, store kv.Store) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	collector := metrics.New()
	app := &App{
		Config:   cfg,
		Store:    store,
		Shifts:   shift.NewDirectory(store),
		Hub:      ws.NewHub(collector),
		Jobs:     jobs.New(store, cfg.MaintenanceInterval),
		Metrics:  collector,
		Location: loc,
	}
	app.unsubscribe = append(app.unsubscribe,
		app.Shifts.Subscribe(app.Hub.PublishEvent),
		app.Shifts.Subscribe(func(evt shift.Event) {
			collector.RecordEvent(string(evt.Type))
		}),
	)
	app.Router = app.routes()
	return app, nil
}

// Policy is the pay policy every earnings figure is computed with.
func Policy(cfg config.Config) earnings.Policy {
	return earnings.Policy{
		WageRate:           cfg.WageRate,
		OvertimeThreshold:  cfg.OvertimeThresholdHours,
		OvertimeMultiplier: cfg.OvertimeMultiplier,
		WithholdingPercent: cfg.WithholdingPercent,
	}
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	policy := Policy(cfg)
	origins := middleware.NewOriginPolicy(cfg.AllowedOrigins)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.CORS(origins))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Store.Ping(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			snapshot := a.Metrics.Snapshot()
			if run, found, err := a.Jobs.LastRun(r.Context(), jobs.JobCompaction); err == nil && found {
				snapshot["lastCompaction"] = run
			}
			api.Success(w, snapshot, middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret, cfg.DefaultOwnerID))
		var limitOpts []middleware.RateLimitOption
		if cfg.TrustProxy {
			limitOpts = append(limitOpts, middleware.WithForwardedFor())
		}
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, limitOpts...))
		r.Use(middleware.ClockMutationRateLimit(cfg.RateLimitPerMinute, time.Minute, limitOpts...))
		r.Use(middleware.Idempotent(middleware.NewIdempotencyStore(a.Store)))

		timeclockhandler.NewHandler(a.Shifts, policy, a.Location, a.Metrics).RegisterRoutes(r)
		earningshandler.NewHandler(a.Shifts, policy, a.Location, a.Metrics).RegisterRoutes(r)
		exporthandler.NewHandler(a.Shifts, policy, a.Location, a.Metrics).RegisterRoutes(r)
		eventshandler.NewHandler(a.Hub, origins).RegisterRoutes(r)
	})

	return router
}

// Start runs the event hub and background jobs until ctx is done.
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.Hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("websocket hub stopped", "err", err)
		}
	}()
	a.Jobs.Start(ctx)
}

// Close detaches event subscribers and closes the store. Background work must
// have been stopped through the Start context first.
func (a *App) Close() error {
	for _, unsubscribe := range a.unsubscribe {
		unsubscribe()
	}
	a.unsubscribe = nil
	a.Jobs.Wait()
	return a.Store.Close()
}

// Run serves the API until SIGINT or SIGTERM, then drains in-flight requests.
func Run() error {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	app.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("wagevo server listening", "addr", cfg.Addr, "store", cfg.StoreBackend, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		stop()
		_ = app.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)
	if err := app.Close(); err != nil {
		slog.Warn("close store failed", "err", err)
	}
	return shutdownErr
}
