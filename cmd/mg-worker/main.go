package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mgsim/internal/config"
	"mgsim/internal/game"
	"mgsim/internal/rules"
	"mgsim/internal/stats"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
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

	runner := stats.NewRunner(game.NewService(rules.Default(), logger), logger)

	if cfg.RunOnce {
		if err := runBatch(ctx, runner, repo, cfg, logger); err != nil {
			logger.Error("batch failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	ticker := time.NewTicker(cfg.Every)
	defer ticker.Stop()

	logger.Info("worker started", "every", cfg.Every.String(), "games", cfg.Games, "store", cfg.Stats.Store)
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			if err := runBatch(ctx, runner, repo, cfg, logger); err != nil {
				logger.Error("batch failed", "err", err)
				continue
			}
		}
	}
}

// runBatch plays one batch tuned by the latest stored summary and saves it.
func runBatch(ctx context.Context, runner *stats.Runner, repo stats.Repository, cfg config.WorkerConfig, logger *slog.Logger) error {
	opts := stats.BatchOptions{Games: cfg.Games, Workers: cfg.BatchWorkers}
	latest, err := repo.Latest(ctx)
	switch {
	case err == nil:
		opts.Tuning = latest.Tuning()
	case !errors.Is(err, stats.ErrNoSummary):
		return err
	}
	sum, err := runner.Run(ctx, opts)
	if err != nil {
		return err
	}
	if err := repo.Save(ctx, sum); err != nil {
		return err
	}
	leader := ""
	if l := sum.Leaders(); len(l) > 0 {
		leader = l[0]
	}
	logger.Info("batch stored", "id", sum.ID, "games", sum.Games, "failed", sum.Failed, "leader", leader)
	return nil
}
