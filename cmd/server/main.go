// Package main is the entry point for the codecache server.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/codecache/codecache/internal/config"
	"github.com/codecache/codecache/internal/executor"
	"github.com/codecache/codecache/internal/executor/docker"
	"github.com/codecache/codecache/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create data directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// The runner is optional: without Docker the API still serves
	// everything except /api/snippets/{id}/run.
	var exec executor.Executor
	var dockerExec *docker.Executor
	if cfg.RunnerEnabled {
		dockerExec, err = docker.New(docker.DefaultConfig(), logger)
		if err != nil {
			logger.Warn("snippet runner unavailable, continuing without it",
				slog.String("error", err.Error()),
			)
		} else {
			exec = dockerExec
			defer dockerExec.Close()
		}
	}

	srv, err := server.New(cfg, logger, exec)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
