package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joeschweitzer/bayesian/internal/api/handlers"
	mw "github.com/joeschweitzer/bayesian/internal/api/middleware"
	"github.com/joeschweitzer/bayesian/internal/buildconfig"
	"github.com/joeschweitzer/bayesian/internal/config"
	"github.com/joeschweitzer/bayesian/internal/domain"
	"github.com/joeschweitzer/bayesian/internal/service"
	"github.com/joeschweitzer/bayesian/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router   *chi.Mux
	Networks *service.NetworkService
	Sessions *service.SessionService
	Expirer  *service.SessionExpirer

	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
	serverErrors atomic.Int64
}

// Options are the request-path settings of an App.
type Options struct {
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
	SessionTTL     time.Duration
	SweepInterval  time.Duration
}

// OptionsFromConfig reads Options from the environment.
func OptionsFromConfig() Options {
	return Options{
		APIKey:         config.APIKey(),
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
		SessionTTL:     config.SessionTTL(),
		SweepInterval:  config.SessionSweepInterval(),
	}
}

// NewApp wires the services and routes over networkStore. ping backs the
// health check.
func NewApp(networkStore domain.NetworkStore, ping func(context.Context) error, logger *zap.Logger) *App {
	return newApp(networkStore, ping, OptionsFromConfig(), logger)
}

func newApp(networkStore domain.NetworkStore, ping func(context.Context) error, opts Options, logger *zap.Logger) *App {
	networkSvc := service.NewNetworkService(networkStore, logger)
	sessionSvc := service.NewSessionService(networkSvc, logger)
	expirer := service.NewSessionExpirer(sessionSvc, logger)
	expirer.SetTTL(opts.SessionTTL)
	expirer.SetInterval(opts.SweepInterval)

	networkHandler := handlers.NewNetworkHandler(networkSvc, sessionSvc, logger)
	sessionHandler := handlers.NewSessionHandler(sessionSvc)

	r := chi.NewRouter()
	app := &App{
		Router:    r,
		Networks:  networkSvc,
		Sessions:  sessionSvc,
		Expirer:   expirer,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount, &app.serverErrors)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))

	// Health and metrics (no auth)
	r.Get("/health", healthHandler(ping))
	r.Get("/metrics", app.metricsHandler())
	r.Handle("/metrics/prometheus", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(opts.APIKey))

		r.Route("/networks", func(r chi.Router) {
			r.Post("/", networkHandler.Create)
			r.Get("/", networkHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", networkHandler.GetByID)
				r.Delete("/", networkHandler.Delete)
				r.Post("/query", networkHandler.Query)
				r.Post("/sessions", sessionHandler.Open)
			})
		})

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Delete("/", sessionHandler.Close)
			r.Delete("/evidence", sessionHandler.ClearEvidence)
			r.Put("/evidence/{variable}", sessionHandler.EnterEvidence)
			r.Delete("/evidence/{variable}", sessionHandler.RetractEvidence)
			r.Get("/beliefs", sessionHandler.Beliefs)
			r.Get("/beliefs/{variable}", sessionHandler.Belief)
		})
	})

	return app
}

func healthHandler(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		for k, v := range buildconfig.VersionInfo() {
			status[k] = v
		}

		code := http.StatusOK
		if err := ping(r.Context()); err != nil {
			code = http.StatusServiceUnavailable
			status["status"] = "error"
			status["error"] = err.Error()
		}
		writeJSON(w, code, status)
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds":  uptime.Seconds(),
			"uptime_human":    uptime.Round(time.Second).String(),
			"request_count":   app.requestCount.Load(),
			"error_count":     app.errorCount.Load(),
			"server_errors":   app.serverErrors.Load(),
			"active_sessions": app.Sessions.Count(),
			"goroutines":      runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}
		writeJSON(w, http.StatusOK, response)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.NetworkStore = (*store.NetworkStore)(nil)
	_ domain.NetworkStore = (*store.SQLiteNetworkStore)(nil)
)
