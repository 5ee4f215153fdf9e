package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mgsim/internal/game"
	"mgsim/internal/strategy"
)

type BatchOptions struct {
	Games int
	// Seed drives every per-game seed and lineup. Zero picks a random seed.
	Seed        int64
	Workers     int
	Tuning      strategy.Tuning
	DisableRisk bool
}

// Runner plays independent games in parallel. Games share only the
// read-only rule configuration.
type Runner struct {
	svc *game.Service
	log *slog.Logger
	now func() time.Time
}

func NewRunner(svc *game.Service, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{svc: svc, log: logger, now: time.Now}
}

type gameOutcome struct {
	seats  []strategy.Strategy
	result game.SimulationResult
	err    error
}

// Run plays opts.Games games and aggregates them. A game that ends in an
// invariant violation or another engine error counts as failed and is left
// out of the aggregates; it does not stop the batch.
func (r *Runner) Run(ctx context.Context, opts BatchOptions) (Summary, error) {
	if opts.Games <= 0 {
		return Summary{}, fmt.Errorf("%w: games must be positive, got %d", ErrInvalidBatch, opts.Games)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	seed := opts.Seed
	if seed == 0 {
		var err error
		if seed, err = game.NewSeed(); err != nil {
			return Summary{}, err
		}
	}

	cfg := r.svc.Config()
	master := game.NewRand(seed)
	outcomes := make([]gameOutcome, opts.Games)
	seeds := make([]int64, opts.Games)
	for i := range outcomes {
		seeds[i] = master.Int63() | 1
		outcomes[i].seats = strategy.Lineup(master, cfg.Companies, opts.Tuning)
	}

	r.log.Info("batch started", "games", opts.Games, "workers", workers, "seed", seed)
	started := r.now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range outcomes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := &outcomes[i]
			provider := strategy.NewProvider(cfg, out.seats, opts.Tuning)
			out.result, out.err = r.svc.RunSimulation(gctx, game.Options{
				AllAI:       true,
				Seed:        seeds[i],
				DisableRisk: opts.DisableRisk,
			}, provider)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	sum := aggregate(outcomes)
	sum.ID = uuid.NewString()
	sum.CreatedAt = r.now().UTC()
	sum.Seed = seed
	for i, out := range outcomes {
		if out.err != nil {
			var inv *game.InvariantError
			rule := ""
			if errors.As(out.err, &inv) {
				rule = inv.Rule
			}
			r.log.Warn("game failed", "game", i, "seed", seeds[i], "rule", rule, "error", out.err)
		}
	}
	r.log.Info("batch finished", "id", sum.ID, "games", sum.Games, "failed", sum.Failed, "elapsed", r.now().Sub(started))
	return sum, nil
}

func aggregate(outcomes []gameOutcome) Summary {
	sum := Summary{Games: len(outcomes), Strategies: make(map[string]StrategyStats)}
	equity := make(map[string]int)
	rows := 0
	for _, out := range outcomes {
		if out.err != nil {
			sum.Failed++
			continue
		}
		res := out.result
		rows += res.Rows
		if res.WinnerWarning {
			sum.WinnerWarnings++
		}
		for _, standing := range res.Ranking {
			name := out.seats[standing.Company].Name()
			st := sum.Strategies[name]
			st.Seats++
			equity[name] += standing.Equity
			if standing.Company == res.Winner.Company {
				st.Wins++
				if standing.Qualified {
					st.QualifiedWins++
				}
			}
			sum.Strategies[name] = st
		}
	}
	for name, st := range sum.Strategies {
		if st.Seats > 0 {
			st.AverageEquity = float64(equity[name]) / float64(st.Seats)
		}
		sum.Strategies[name] = st
	}
	if done := sum.Completed(); done > 0 {
		sum.AverageRows = float64(rows) / float64(done)
	}
	return sum
}
