package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"hookman/internal/dispatch"
	"hookman/internal/session"
	"hookman/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	// HTTP server timeouts
	HTTPReadTimeout = 10 * time.Second
	// Write timeout must outlast the 30s dispatch deadline
	HTTPWriteTimeout = 60 * time.Second
	HTTPIdleTimeout  = 60 * time.Second

	// Request timeout for middleware
	RequestTimeout = 60 * time.Second

	// SessionCookie carries the opaque session token
	SessionCookie = "hookman_session"
)

// Server represents the HTTP server
type Server struct {
	Store      *store.Store
	Sessions   *session.Manager
	Dispatcher *dispatch.Dispatcher
	Logger     *slog.Logger

	httpServer *http.Server
}

// NewServer creates a new server instance
func NewServer(st *store.Store, sessions *session.Manager, dispatcher *dispatch.Dispatcher, logger *slog.Logger) *Server {
	return &Server{
		Store:      st,
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

// Router creates and configures the HTTP router
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))

	// CORS with credentials so the front-end can send the session cookie
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  func(r *http.Request, origin string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))

	// Logging middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				s.Logger.Info("http_request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration_ms", time.Since(start).Milliseconds())
			}()

			next.ServeHTTP(ww, r)
		})
	})

	// Routes
	r.Get("/", s.HandleIndex)
	r.Get("/health", s.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.HandleLogin)
		r.Post("/logout", s.HandleLogout)
		r.Get("/status", s.HandleStatus)

		r.Group(func(r chi.Router) {
			r.Use(s.RequireAuth)
			r.Get("/webhooks", s.HandleListWebhooks)
			r.Post("/webhooks", s.HandleCreateWebhook)
			r.Put("/webhooks/{webhookID}", s.HandleUpdateWebhook)
			r.Delete("/webhooks/{webhookID}", s.HandleDeleteWebhook)
			r.Post("/webhooks/{webhookID}/trigger", s.HandleTriggerWebhook)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "Endpoint nicht gefunden")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "Endpoint nicht gefunden")
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	s.Logger.Info("Starting server", "addr", addr)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  HTTPReadTimeout,
		WriteTimeout: HTTPWriteTimeout,
		IdleTimeout:  HTTPIdleTimeout,
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and closes the store
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}

	if s.Store != nil {
		return s.Store.Close()
	}
	return nil
}
