package http

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	sessioncontext "pickstation/frontend/shared/context"
	"pickstation/infrastructure/audit"
	"pickstation/infrastructure/cache"
	"pickstation/infrastructure/config"
	"pickstation/infrastructure/fulfillment"
	"pickstation/infrastructure/metrics"
	"pickstation/infrastructure/sqlite"
)

//go:embed assets/*
var assets embed.FS

var ShutdownTimeout = 2 * time.Second

// BackendTokenCookie keeps the backend token a kiosk was opened with.
const BackendTokenCookie = "pickstation_backend_token"

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	DB      *sqlite.DB
	Config  *config.Config
	Client  *fulfillment.Client
	Hub     *cache.ScreenHub
	Rows    *cache.RowsCache
	Audit   *audit.Service
	Metrics *metrics.Metrics
}

// NewServer creates a new http server.
func NewServer(cfg *config.Config, db *sqlite.DB, client *fulfillment.Client, hub *cache.ScreenHub, rows *cache.RowsCache, auditSvc *audit.Service, m *metrics.Metrics) *Server {
	s := &Server{
		Addr:    cfg.Station.Addr,
		router:  chi.NewRouter(),
		DB:      db,
		Config:  cfg,
		Client:  client,
		Hub:     hub,
		Rows:    rows,
		Audit:   auditSvc,
		Metrics: m,
		server: &http.Server{
			MaxHeaderBytes: 1 << 20,
		},
	}

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(m.Middleware)
	s.router.Use(s.CSRFMiddleware)
	s.router.Use(BackendTokenMiddleware)

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/scanpicking/", http.StatusSeeOther)
	})

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := s.DB.Ping(ctx); err != nil {
			slog.Error("health check failed", slog.Any("err", err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Handle("/metrics", m.Handler())

	// Serve assets from embedded FS.
	var assetsFS fs.FS = assets
	if sub, err := fs.Sub(assets, "assets"); err == nil {
		assetsFS = sub
	} else {
		slog.Error("assets subfs init failed; serving fallback fs", slog.Any("err", err))
	}
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	// Websocket routes stay outside Compress: the hijacked connection must not be wrapped.
	s.RegisterSocketRoutes(s.router)
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))
		s.RegisterFrontendRoutes(r)
	})

	s.server.Handler = s.router
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// BackendTokenMiddleware resolves the backend token of a request: the
// X-Backend-Token header, then ?token=, then the cookie. A token given in the
// query is kept in the cookie so the kiosk page and its socket share it.
func BackendTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("X-Backend-Token"))
		if token == "" {
			if q := strings.TrimSpace(r.URL.Query().Get("token")); q != "" {
				token = q
				http.SetCookie(w, &http.Cookie{
					Name:     BackendTokenCookie,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
		}
		if token == "" {
			if c, err := r.Cookie(BackendTokenCookie); err == nil {
				token = strings.TrimSpace(c.Value)
			}
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := sessioncontext.NewContextWithBackendToken(r.Context(), token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go s.server.Serve(s.ln)
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	s.ln = nil
	return nil
}
