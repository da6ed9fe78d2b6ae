// Package web provides the JSON HTTP API for CSV batch imports.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/csvbatch/internal/config"
	"github.com/JonMunkholm/csvbatch/internal/core"
	mw "github.com/JonMunkholm/csvbatch/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// ImportGauge reports how many imports this process is running.
type ImportGauge interface {
	ActiveCount() int
}

// Server is the HTTP server for the CSV batch API.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	tokens   mw.TokenValidator
	imports  ImportGauge
	validate *validator.Validate
	router   *chi.Mux
	server   *http.Server
	limiters []*rateLimiter
}

// NewServer creates a new Server instance. imports may be nil.
func NewServer(service *core.Service, cfg *config.Config, tokens mw.TokenValidator, imports ImportGauge) *Server {
	s := &Server{
		service:  service,
		cfg:      cfg,
		tokens:   tokens,
		imports:  imports,
		validate: newValidator(),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "application/json", "text/csv"))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
	s.router.Use(mw.CORS(s.cfg.Security.CORSOrigins))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/csv", func(r chi.Router) {
			r.Use(mw.BearerAuth(s.tokens, func(w http.ResponseWriter, r *http.Request, err error) {
				s.respondError(w, r, err, http.StatusUnauthorized)
			}))

			// Imports
			r.Group(func(r chi.Router) {
				if s.cfg.Rate.Enabled {
					r.Use(s.newRateLimiter(s.cfg.Rate.UploadLimit, time.Minute).middleware)
				}
				r.Post("/upload", s.handleUpload)
			})

			// Files
			r.Get("/files", s.handleListFiles)
			r.Get("/{fileID}/data", s.handleListRows)
			r.Get("/{fileID}/export", s.handleExport)
			r.Delete("/{fileID}", s.handleDeleteFile)

			// Rows
			r.Put("/rows/{rowID}", s.handleUpdateRow)

			// Field mapping
			r.Get("/fields/{category}", s.handleFields)
			r.Post("/mapping/suggest", s.handleSuggestMapping)
			r.Post("/mapping/validate", s.handleValidateMapping)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its rate limiters.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// handleHealth reports store reachability and running imports.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}
	if s.imports != nil {
		resp["activeImports"] = s.imports.ActiveCount()
	}

	status := http.StatusOK
	if err := s.service.Ping(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		resp["status"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			// Prevent MIME type sniffing
			h.Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			h.Set("X-Frame-Options", "DENY")

			// Responses are JSON or CSV only
			if enableCSP {
				h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}

			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
