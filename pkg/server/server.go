// Package server exposes the orchestrator over HTTP: service info, a health
// probe, the latest run status, and an on-demand discovery endpoint.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/logger"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/orchestrator"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/version"
)

// RunSource provides the most recent persisted run summary.
type RunSource interface {
	Latest(ctx context.Context) (*orchestrator.Summary, error)
}

// Server is the HTTP front end for the orchestrator.
type Server struct {
	router       *mux.Router
	orchestrator *orchestrator.Orchestrator
	runs         RunSource
	config       *ServerConfig
	server       *http.Server
	startedAt    time.Time
}

// ServerConfig holds the configuration for the HTTP server.
type ServerConfig struct {
	Host string
	Port int
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// NewServer creates the HTTP server. runs may be nil when no run store is
// configured; the status endpoint then reports 404 until a run completes.
func NewServer(config *ServerConfig, orch *orchestrator.Orchestrator, runs RunSource) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router:       mux.NewRouter(),
		orchestrator: orch,
		runs:         runs,
		config:       config,
		startedAt:    time.Now(),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/orchestrate", s.handleOrchestrate).Methods("POST")

	s.router.Use(s.loggingMiddleware)
}

// Handler returns the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, map[string]any{
		"service": "clawstr-skill-orchestrator",
		"version": version.Get().Version,
		"endpoints": []string{
			"GET /",
			"GET /health",
			"GET /status",
			"POST /orchestrate",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg := s.orchestrator.Config()

	skillsRoot := cfg.SkillsRoot()
	skillsRootExists := true
	if _, err := os.Stat(skillsRoot); err != nil {
		skillsRootExists = false
	}

	skillCount := 0
	if skillsRootExists {
		records, err := s.orchestrator.Discover(ctx)
		if err != nil {
			s.writeErrorResponse(w, http.StatusInternalServerError, "failed to scan skills", err)
			return
		}
		skillCount = len(records)
	}

	response := map[string]any{
		"status":             "ok",
		"skills_root":        skillsRoot,
		"skills_root_exists": skillsRootExists,
		"skill_count":        skillCount,
		"uptime_seconds":     int(time.Since(s.startedAt).Seconds()),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil {
			response["memory_rss_bytes"] = mem.RSS
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			response["cpu_percent"] = cpu
		}
	}

	s.writeJSONResponse(w, response)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeErrorResponse(w, http.StatusNotFound, "no run store configured", nil)
		return
	}

	latest, err := s.runs.Latest(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to load latest run", err)
		return
	}
	if latest == nil {
		s.writeErrorResponse(w, http.StatusNotFound, "no runs recorded", nil)
		return
	}

	s.writeJSONResponse(w, latest)
}

// skillPreview is the short listing returned by the orchestrate endpoint.
type skillPreview struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (s *Server) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := s.orchestrator.Discover(ctx)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "discovery failed", err)
		return
	}

	previews := make([]skillPreview, 0, 5)
	for _, rec := range records {
		if len(previews) == 5 {
			break
		}
		previews = append(previews, skillPreview{Name: rec.Name, Version: rec.Version})
	}

	s.writeJSONResponse(w, map[string]any{
		"status":            "success",
		"skills_discovered": len(records),
		"skills":            previews,
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rw.statusCode,
			"duration": time.Since(start),
		}).Info("HTTP request")
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode JSON response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	if err != nil {
		logger.G(context.TODO()).WithError(err).Error(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":  message,
		"status": statusCode,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode error response")
	}
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:    address,
		Handler: s.router,
	}

	logger.G(ctx).WithField("address", address).Info("starting orchestrator server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.G(ctx).WithError(err).Error("server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Stop immediately closes the server.
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
