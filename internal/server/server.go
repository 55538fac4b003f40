// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where the whole
// dependency chain is assembled:
//
//	sqlite.DB → AuthService / FriendService → AuthHandler / FriendHandler
//
// Each layer only receives what it needs: services get repository
// interfaces (not the concrete sqlite.DB), handlers get services (not
// repositories or the DB). main.go stays minimal — it builds a Config and
// calls New + Start.
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
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/linguahub/internal/auth"
	"github.com/sakif/linguahub/internal/chat"
	"github.com/sakif/linguahub/internal/handler"
	"github.com/sakif/linguahub/internal/middleware"
	sqliteRepo "github.com/sakif/linguahub/internal/repository/sqlite"
	"github.com/sakif/linguahub/internal/service"
)

// Config holds server configuration, constructed once in main and injected
// here. Env struct tags let main parse it straight from the environment
// with caarlos0/env.
type Config struct {
	Port        int    `env:"PORT"        envDefault:"8080"`
	DBPath      string `env:"DB_PATH"     envDefault:"data/linguahub.db"`
	JWTSecret   string `env:"JWT_SECRET"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ChatAPIURL  string `env:"CHAT_API_URL"`
	ChatAPIKey  string `env:"CHAT_API_KEY"`
}

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection: when it shuts down, the
// connection is closed to flush pending writes and release the file lock.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a new Server with the given config.
//
// A missing JWT secret is a configuration error and fails construction —
// the process must refuse to serve traffic rather than issue weak or
// unsigned sessions. A missing chat provider is only degraded service, so
// it logs a warning and installs the no-op directory.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("configuring session tokens: %w", err)
	}

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

	s.setupRoutes(tokens)

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST /api/auth/signup                        → create account, set session cookie
//	POST /api/auth/login                         → authenticate, set session cookie
//	POST /api/auth/logout                        → clear session cookie
//	GET  /api/auth/me                  (auth)    → own profile
//	POST /api/auth/onboarding          (auth)    → complete profile
//	GET  /api/users                    (auth)    → recommended users
//	GET  /api/users/friends            (auth)    → friends' profiles
//	POST /api/users/friend-request/{id}        (auth) → send request
//	PUT  /api/users/friend-request/{id}/accept (auth) → accept request
//	GET  /api/users/friend-requests            (auth) → incoming + accepted
//	GET  /api/users/outgoing-friend-requests   (auth) → pending outgoing
//
// MIDDLEWARE ORDER MATTERS: RequestID → RealIP → Recoverer → request logger,
// then RequireAuth only on the protected subtrees.
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID) // Adds X-Request-ID header
	s.router.Use(chimiddleware.RealIP)    // Extracts real IP from X-Forwarded-For
	s.router.Use(chimiddleware.Recoverer) // Recovers from panics, returns 500

	s.router.Use(middleware.Logger(s.logger))

	var directory chat.Directory = chat.Disabled{}
	if s.config.ChatAPIURL != "" && s.config.ChatAPIKey != "" {
		directory = chat.NewClient(s.config.ChatAPIURL, s.config.ChatAPIKey)
	} else {
		s.logger.Warn("chat provider not configured — profile sync disabled")
	}

	users := s.db.Users()
	requests := s.db.FriendRequests()

	passwords := auth.NewPasswordService()
	authService := service.NewAuthService(users, tokens, passwords, directory, s.logger)
	friendService := service.NewFriendService(users, requests, s.logger)

	secureCookies := s.config.Environment == "production"
	authHandler := handler.NewAuthHandler(authService, secureCookies, s.logger)
	friendHandler := handler.NewFriendHandler(friendService, s.logger)

	requireAuth := auth.RequireAuth(tokens, users, s.logger)

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Post("/onboarding", authHandler.HandleOnboarding)
		})
	})

	s.router.Route("/api/users", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", friendHandler.HandleRecommended)
		r.Get("/friends", friendHandler.HandleFriends)
		r.Post("/friend-request/{id}", friendHandler.HandleSendRequest)
		r.Put("/friend-request/{id}/accept", friendHandler.HandleAcceptRequest)
		r.Get("/friend-requests", friendHandler.HandleIncomingRequests)
		r.Get("/outgoing-friend-requests", friendHandler.HandleOutgoingRequests)
	})
}

// Handler exposes the router, mainly for httptest in handler tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and handles graceful shutdown:
//  1. Stop accepting new connections on SIGINT/SIGTERM
//  2. Wait up to 30s for in-flight requests to finish
//  3. Close the database connection (flushes WAL, releases file lock)
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
			slog.String("environment", s.config.Environment),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
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
