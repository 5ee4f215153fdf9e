package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mgsim/internal/api"
	"mgsim/internal/config"
	"mgsim/internal/game"
	"mgsim/internal/rules"
	"mgsim/internal/stats"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	repo, err := stats.OpenRepository(ctx, cfg.Stats.Store, cfg.Stats.Path, cfg.Stats.DatabaseURL)
	if err != nil {
		logger.Error("stats store open failed", "store", cfg.Stats.Store, "err", err)
		os.Exit(1)
	}
	defer repo.Close()

	ruleset := rules.Default()
	if err := ruleset.Validate(); err != nil {
		logger.Error("rule self-check failed", "err", err)
		os.Exit(1)
	}
	gameSvc := game.NewService(ruleset, logger)

	server := api.New(cfg, logger, gameSvc, repo)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("mg api listening", "addr", cfg.Addr, "store", cfg.Stats.Store)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
