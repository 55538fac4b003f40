// Package main is the entry point for the LinguaHub API server.
//
// The main package is kept minimal — its job is to:
// 1. Read configuration (a .env file plus environment variables)
// 2. Create shared dependencies (the logger)
// 3. Hand everything to internal/server and start it
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, etc.). This separation keeps the app testable and its
// components reusable.
package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/sakif/linguahub/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// Load .env if present — developer convenience only. In deployment
	// the environment is set by the platform and there is no .env file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("could not load .env file", slog.String("error", err.Error()))
	}

	// Parse the config struct straight from the environment using the
	// env struct tags on server.Config. Defaults live in the tags too.
	var cfg server.Config
	if err := env.Parse(&cfg); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// JWT_SECRET is mandatory: without it the server cannot sign sessions
	// and must not start. Generate one with: openssl rand -hex 32
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is not set — refusing to start")
		os.Exit(1)
	}

	// Ensure the data directory exists (like `mkdir -p`).
	if dbDir := filepath.Dir(cfg.DBPath); dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
