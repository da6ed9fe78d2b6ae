package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/csvbatch/internal/auth"
	"github.com/JonMunkholm/csvbatch/internal/config"
	"github.com/JonMunkholm/csvbatch/internal/core"
	_ "github.com/JonMunkholm/csvbatch/internal/core/fields" // Register system field schemas
	"github.com/JonMunkholm/csvbatch/internal/limiter"
	"github.com/JonMunkholm/csvbatch/internal/logging"
	"github.com/JonMunkholm/csvbatch/internal/store"
	"github.com/JonMunkholm/csvbatch/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	artifacts, err := core.NewDiskArtifacts(cfg.Upload.Dir)
	if err != nil {
		slog.Error("failed to prepare upload directory", "dir", cfg.Upload.Dir, "error", err)
		os.Exit(1)
	}

	imports, err := limiter.New(ctx, cfg.Upload, cfg.Redis)
	if err != nil {
		slog.Error("failed to create import limiter", "error", err)
		os.Exit(1)
	}
	defer imports.Close()

	service, err := core.NewService(st, core.Options{
		Artifacts:     artifacts,
		Limiter:       imports,
		ImportTimeout: cfg.Upload.Timeout,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	slog.Info("categories registered", "categories", core.Categories())

	tokens, err := auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.JWTAlgorithm, cfg.Security.TokenTTL)
	if err != nil {
		slog.Error("failed to configure token validation", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg, tokens, imports)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop accepting requests, then let running imports finish
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		if active := imports.ActiveCount(); active > 0 {
			slog.Info("waiting for imports to complete", "active", active)
			if err := imports.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
}
