package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

var ErrInvalidConfig = errors.New("invalid config")

// StatsConfig selects where batch statistics are stored.
type StatsConfig struct {
	Store       string `env:"MG_STATS_STORE" envDefault:"file"`
	Path        string `env:"MG_STATS_PATH"`
	DatabaseURL string `env:"DATABASE_URL"`
}

type APIConfig struct {
	Port          string `env:"PORT"`
	Addr          string `env:"MG_API_ADDR" envDefault:":8080"`
	MaxBatchGames int    `env:"MG_MAX_BATCH_GAMES" envDefault:"5000"`
	BatchWorkers  int    `env:"MG_BATCH_WORKERS" envDefault:"4"`
	Stats         StatsConfig
}

type WorkerConfig struct {
	Every        time.Duration `env:"MG_BATCH_EVERY" envDefault:"10m"`
	Games        int           `env:"MG_BATCH_GAMES" envDefault:"200"`
	BatchWorkers int           `env:"MG_BATCH_WORKERS" envDefault:"4"`
	RunOnce      bool          `env:"MG_WORKER_RUN_ONCE" envDefault:"false"`
	Stats        StatsConfig
}

type CLIConfig struct {
	APIBaseURL string `env:"MG_API_BASE_URL" envDefault:"http://localhost:8080"`
	Stats      StatsConfig
}

func parse(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c StatsConfig) validate() error {
	switch strings.ToLower(c.Store) {
	case "file", "sqlite":
		return nil
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres store", ErrInvalidConfig)
		}
		return nil
	}
	return fmt.Errorf("%w: MG_STATS_STORE must be file, sqlite or postgres, got %q", ErrInvalidConfig, c.Store)
}

// LoadAPIFromEnv reads the API configuration. PORT, when set, wins over
// MG_API_ADDR.
func LoadAPIFromEnv() (APIConfig, error) {
	var cfg APIConfig
	if err := parse(&cfg); err != nil {
		return cfg, err
	}
	if port := strings.TrimSpace(cfg.Port); port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Addr = port
	}
	cfg.Stats.Store = strings.ToLower(cfg.Stats.Store)
	if cfg.MaxBatchGames <= 0 || cfg.BatchWorkers <= 0 {
		return cfg, fmt.Errorf("%w: batch limits must be positive", ErrInvalidConfig)
	}
	return cfg, cfg.Stats.validate()
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	var cfg WorkerConfig
	if err := parse(&cfg); err != nil {
		return cfg, err
	}
	cfg.Stats.Store = strings.ToLower(cfg.Stats.Store)
	if cfg.Games <= 0 || cfg.BatchWorkers <= 0 {
		return cfg, fmt.Errorf("%w: MG_BATCH_GAMES and MG_BATCH_WORKERS must be positive", ErrInvalidConfig)
	}
	if cfg.Every <= 0 && !cfg.RunOnce {
		return cfg, fmt.Errorf("%w: MG_BATCH_EVERY must be positive", ErrInvalidConfig)
	}
	return cfg, cfg.Stats.validate()
}

func LoadCLIFromEnv() (CLIConfig, error) {
	var cfg CLIConfig
	if err := parse(&cfg); err != nil {
		return cfg, err
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.Stats.Store = strings.ToLower(cfg.Stats.Store)
	return cfg, cfg.Stats.validate()
}
