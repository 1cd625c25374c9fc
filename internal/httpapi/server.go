// Package httpapi serves the scanner's status endpoints (spec.md §4.9):
// a liveness probe, a process/system snapshot, and per-provider health and
// breaker state. Grounded on the teacher's internal/server package — same
// chi router, middleware stack and logging-middleware shape, stripped down
// from its many domain routes to the three status endpoints this system
// needs.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/pmccscan/pmccscan/internal/router"
)

// Config holds the status server's tunables.
type Config struct {
	Port    int
	DevMode bool
}

// Server is the scan service's status HTTP API.
type Server struct {
	router      chi.Router
	httpServer  *http.Server
	log         zerolog.Logger
	rtr         *router.Router
	startupTime time.Time
}

// New builds the status server. rtr supplies provider health/breaker
// state for /providers; it may be nil if called before the router is
// wired, in which case /providers reports an empty list.
func New(cfg Config, rtr *router.Router, log zerolog.Logger) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		log:         log.With().Str("component", "httpapi").Logger(),
		rtr:         rtr,
		startupTime: time.Now(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/status", s.handleStatus)
	s.router.Get("/providers", s.handleProviders)
}

// Start runs the server until it errors or is shut down.
func (s *Server) Start() error {
	s.log.Info().Int("port", 0).Msg("starting status HTTP server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down status HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// statusResponse is the /status payload: uptime plus a CPU/RAM snapshot,
// the way the teacher's STATS display mode reports them.
type statusResponse struct {
	Status      string  `json:"status"`
	UptimeHours float64 `json:"uptime_hours"`
	CPUPercent  float64 `json:"cpu_percent"`
	RAMPercent  float64 `json:"ram_percent"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cpuPct, ramPct := s.systemStats()
	s.writeJSON(w, statusResponse{
		Status:      "ok",
		UptimeHours: time.Since(s.startupTime).Hours(),
		CPUPercent:  cpuPct,
		RAMPercent:  ramPct,
	})
}

func (s *Server) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read cpu percent")
		cpuPercent = []float64{0}
	}
	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read memory stats")
		return cpuPercent[0], 0
	}
	return cpuPercent[0], memStat.UsedPercent
}

// providerStatus is one provider's entry in the /providers response.
type providerStatus struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	BreakerState string `json:"breaker_state"`
	Health       string `json:"health"`
	Message      string `json:"message,omitempty"`
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if s.rtr == nil {
		s.writeJSON(w, []providerStatus{})
		return
	}

	snapshots := s.rtr.HealthCheckAll(r.Context())
	out := make([]providerStatus, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, providerStatus{
			Name:         snap.Name,
			Type:         snap.Type,
			BreakerState: snap.BreakerState,
			Health:       string(snap.Health.Status),
			Message:      snap.Health.ErrorMessage,
		})
	}
	s.writeJSON(w, out)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode json response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
