// Package server wires the application together: it is the composition root
// that builds the repository, services, and handlers, mounts the routes, and
// owns process lifecycle (startup, graceful shutdown, closing the DB).
//
// Dependency chain, assembled once here and nowhere else:
//
//	sqlite.DB → AuthService / PostService → AuthHandler / PostHandler
//	          ↘ TokenService (session signing key, injected — no globals)
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/miniblog/internal/auth"
	"github.com/sakif/miniblog/internal/handler"
	"github.com/sakif/miniblog/internal/middleware"
	sqliteRepo "github.com/sakif/miniblog/internal/repository/sqlite"
	"github.com/sakif/miniblog/internal/service"
)

// Config holds server configuration, loaded by main from the environment.
type Config struct {
	Port          int
	DBPath        string
	SessionSecret string
}

// Server is the HTTP server and the owner of its dependencies. The database
// handle is created in New and closed during shutdown in Start.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency graph and mounts all routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the root http.Handler. Used by tests to drive the full
// stack through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's resources (the database handle). Start calls
// this itself; tests that never call Start use it directly.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes builds services and handlers and mounts the route tree.
//
//	POST   /auth/register      create account
//	POST   /auth/login         verify credentials, set session cookie
//	POST   /auth/logout        clear session cookie (idempotent)
//	GET    /auth/me            current user                     [auth]
//	GET    /api/posts          global listing, newest first
//	GET    /api/posts/{id}     single post
//	POST   /api/posts          create post                      [auth]
//	PUT    /api/posts/{id}     edit own post                    [auth]
//	DELETE /api/posts/{id}     delete own post                  [auth]
//	GET    /api/me/posts       own posts (dashboard)            [auth]
//	GET    /healthz            liveness probe
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	postService := service.NewPostService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)

	// Global middleware, in order: request ID, real client IP, panic
	// recovery, then request logging.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", authHandler.HandleMe)
		})
	})

	s.router.Route("/api", func(r chi.Router) {
		// Public reads. OptionalAuth attaches an identity when present so
		// the listing can be personalised later without touching routes.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Get("/posts", postHandler.HandleList)
			r.Get("/posts/{id}", postHandler.HandleGet)
		})

		// Mutations and the dashboard require a session.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/posts", postHandler.HandleCreate)
			r.Put("/posts/{id}", postHandler.HandleUpdate)
			r.Delete("/posts/{id}", postHandler.HandleDelete)
			r.Get("/me/posts", postHandler.HandleMyPosts)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, let in-flight requests finish
// (30s cap), close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
