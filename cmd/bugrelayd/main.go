package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bugrelay/bugrelay/config"
	"github.com/bugrelay/bugrelay/github"
	"github.com/bugrelay/bugrelay/handler"
	"github.com/bugrelay/bugrelay/ratelimit"
	"github.com/bugrelay/bugrelay/routes"
	"github.com/bugrelay/bugrelay/service"
	"github.com/bugrelay/bugrelay/store"
	"github.com/bugrelay/bugrelay/store/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	//----------------------------------------------------------------------
	// 1. env config, validated once
	//----------------------------------------------------------------------
	cfg := config.FromEnv()
	diagnostics := cfg.Validate()
	for _, warning := range diagnostics.Warnings {
		logger.Warn(warning)
	}
	if !diagnostics.OK() {
		for _, problem := range diagnostics.Problems {
			logger.Error(problem)
		}
		os.Exit(1)
	}

	//----------------------------------------------------------------------
	// 2. counter store (optional — no DATABASE_URL means no limiting)
	//----------------------------------------------------------------------
	var counters store.CounterStore
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("pgxpool.New", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := postgres.Schema(ctx, pool); err != nil {
			logger.Error("creating counter schema", "error", err)
			os.Exit(1)
		}

		counters = postgres.NewStore(pool)
		go purgeLoop(counters, logger)
	}

	//----------------------------------------------------------------------
	// 3. broker → pipeline → handlers
	//----------------------------------------------------------------------
	client := github.NewClient(github.Config{
		BaseURL: cfg.GitHubBaseURL,
		Logger:  logger,
	})
	broker := github.NewBroker(client, cfg.AppID, cfg.PrivateKeyPEM, logger)
	svc := service.New(broker, cfg.MaxScreenshotBytes, logger)

	clientLimiter := ratelimit.New(counters, "client", cfg.ClientWindow, cfg.ClientMax, logger)
	repoLimiter := ratelimit.New(counters, "repo", cfg.RepoWindow, cfg.RepoMax, logger)

	srv := handler.New(svc, clientLimiter, repoLimiter, cfg.InstallURL(), cfg.Environment, logger)
	mux := routes.SetupRoutes(srv, cfg.AllowedOrigins, logger)

	//----------------------------------------------------------------------
	// 4. HTTP server with graceful shutdown
	//----------------------------------------------------------------------
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("bugrelay listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ListenAndServe", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
		os.Exit(1)
	}
}

// purgeLoop reclaims expired counter rows. Counters stop mattering the
// moment their window passes; this only keeps the table small.
func purgeLoop(counters store.CounterStore, logger *slog.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := counters.PurgeExpired(ctx); err != nil {
			logger.Warn("purging expired counters", "error", err)
		}
		cancel()
	}
}
