package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"mgsim/internal/api"
	cl "mgsim/internal/cli"
	"mgsim/internal/config"
	"mgsim/internal/game"
	"mgsim/internal/rules"
	"mgsim/internal/stats"
	"mgsim/internal/strategy"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose bool
	apiBase string
	cfg     config.CLIConfig
}

func main() {
	cfg, err := config.LoadCLIFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	flags := &rootFlags{cfg: cfg, apiBase: cfg.APIBaseURL}

	root := &cobra.Command{
		Use:          "mg",
		Short:        "Management game simulator",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if flags.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newRunCmd(),
		newBatchCmd(flags),
		newStatsCmd(flags),
		newRulesCmd(),
		newRemoteCmd(flags),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newService() *game.Service {
	return game.NewService(rules.Default(), slog.Default())
}

func openRepo(ctx context.Context, cfg config.StatsConfig) (stats.Repository, error) {
	return stats.OpenRepository(ctx, cfg.Store, cfg.Path, cfg.DatabaseURL)
}

// parseDice turns "3=2,5=6" into a period to dice map.
func parseDice(raw string) (map[int]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	out := map[int]int{}
	for _, part := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("dice %q: want period=value", part)
		}
		period, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("dice period %q: %w", k, err)
		}
		value, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("dice value %q: %w", v, err)
		}
		out[period] = value
	}
	return out, nil
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

type runOptions struct {
	seed       int64
	human      string
	strategies string
	dice       string
	noRisk     bool
	logs       int
	skipCheck  bool
}

func (o runOptions) request() (api.SimulationRequest, error) {
	dice, err := parseDice(o.dice)
	if err != nil {
		return api.SimulationRequest{}, err
	}
	names := splitList(o.strategies)
	if o.human != "" && len(names) == 0 {
		names = []string{strategy.PlayerDefault{}.Name()}
	}
	return api.SimulationRequest{
		Seed:        o.seed,
		HumanName:   strings.TrimSpace(o.human),
		Strategies:  names,
		ForcedDice:  dice,
		DisableRisk: o.noRisk,
		IncludeLogs: o.logs > 0,
	}, nil
}

func bindRunFlags(cmd *cobra.Command, o *runOptions) {
	cmd.Flags().Int64Var(&o.seed, "seed", 0, "game seed (0 picks one)")
	cmd.Flags().StringVar(&o.human, "human", "", "name for the seat-one company")
	cmd.Flags().StringVar(&o.strategies, "strategies", "", "comma separated strategy per seat: "+strings.Join(strategy.Names(), ", "))
	cmd.Flags().StringVar(&o.dice, "dice", "", "forced dice per period, e.g. 3=2,4=5")
	cmd.Flags().BoolVar(&o.noRisk, "no-risk", false, "draw only decision tokens")
	cmd.Flags().IntVar(&o.logs, "logs", 0, "print the action log of this seat (1-6)")
}

func newRunCmd() *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play one full game locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := o.request()
			if err != nil {
				return err
			}
			svc := newService()
			seats, err := strategy.Seats(req.Strategies, svc.Config().Companies)
			if err != nil {
				return err
			}
			opts := game.Options{
				AllAI:         req.HumanName == "",
				HumanName:     req.HumanName,
				ForcedDice:    req.ForcedDice,
				SkipSelfCheck: o.skipCheck,
				Seed:          req.Seed,
				DisableRisk:   req.DisableRisk,
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			res, err := svc.RunSimulation(ctx, opts, strategy.NewProvider(svc.Config(), seats, strategy.Tuning{}))
			if err != nil {
				return err
			}
			out := api.SimulationResponse{Result: res}
			for _, st := range seats {
				out.Strategies = append(out.Strategies, st.Name())
			}
			return renderSimulation(out, o.logs)
		},
	}
	bindRunFlags(cmd, &o)
	cmd.Flags().BoolVar(&o.skipCheck, "skip-self-check", false, "skip the rule table self-check")
	return cmd
}

type batchOptions struct {
	games   int
	seed    int64
	workers int
	noRisk  bool
	tuning  bool
	save    bool
}

func newBatchCmd(flags *rootFlags) *cobra.Command {
	var o batchOptions
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run many AI-only games and aggregate strategy statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := openRepo(ctx, flags.cfg.Stats)
			if err != nil {
				return err
			}
			defer repo.Close()

			opts := stats.BatchOptions{Games: o.games, Seed: o.seed, Workers: o.workers, DisableRisk: o.noRisk}
			if o.tuning {
				latest, err := repo.Latest(ctx)
				switch {
				case err == nil:
					opts.Tuning = latest.Tuning()
					printInfo(fmt.Sprintf("Tuning from batch %s (%d games).", latest.ID, latest.Completed()))
				case errors.Is(err, stats.ErrNoSummary):
					printWarn("No stored batch yet; playing untuned.")
				default:
					return err
				}
			}
			sum, err := stats.NewRunner(newService(), slog.Default()).Run(ctx, opts)
			if err != nil {
				return err
			}
			if o.save {
				if err := repo.Save(ctx, sum); err != nil {
					return err
				}
			}
			renderSummary(sum)
			if o.save {
				printSuccess(fmt.Sprintf("Saved batch %s to the %s store.", sum.ID, flags.cfg.Stats.Store))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&o.games, "games", 100, "number of games")
	cmd.Flags().Int64Var(&o.seed, "seed", 0, "batch seed (0 picks one)")
	cmd.Flags().IntVar(&o.workers, "workers", 4, "games played in parallel")
	cmd.Flags().BoolVar(&o.noRisk, "no-risk", false, "draw only decision tokens")
	cmd.Flags().BoolVar(&o.tuning, "tuning", true, "bias lineups with the latest stored batch")
	cmd.Flags().BoolVar(&o.save, "save", true, "store the summary")
	return cmd
}

func newStatsCmd(flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stored batch statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(cmd.Context(), flags.cfg.Stats)
			if err != nil {
				return err
			}
			defer repo.Close()
			latest, err := repo.Latest(cmd.Context())
			if err != nil {
				return err
			}
			renderSummary(latest)
			if limit <= 1 {
				return nil
			}
			list, err := repo.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			renderSummaryList(list)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 1, "also list this many recent batches")
	return cmd
}

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the rule tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rules.Default()
			if err := cfg.Validate(); err != nil {
				return err
			}
			renderSheet(cfg.Sheet())
			return nil
		},
	}
}

func newRemoteCmd(flags *rootFlags) *cobra.Command {
	remote := &cobra.Command{
		Use:   "remote",
		Short: "Run commands against the simulation API",
	}
	remote.PersistentFlags().StringVar(&flags.apiBase, "api", flags.apiBase, "API base URL")

	var o runOptions
	run := &cobra.Command{
		Use:   "run",
		Short: "Play one game on the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := o.request()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			out, err := newClient(flags).RunSimulation(ctx, req)
			if err != nil {
				return err
			}
			return renderSimulation(out, o.logs)
		},
	}
	bindRunFlags(run, &o)

	var b batchOptions
	batch := &cobra.Command{
		Use:   "batch",
		Short: "Run a batch on the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()
			save := b.save
			sum, err := newClient(flags).RunBatch(ctx, api.BatchRequest{
				Games:       b.games,
				Seed:        b.seed,
				Workers:     b.workers,
				DisableRisk: b.noRisk,
				UseTuning:   b.tuning,
				Save:        &save,
			})
			if err != nil {
				return err
			}
			renderSummary(sum)
			return nil
		},
	}
	batch.Flags().IntVar(&b.games, "games", 100, "number of games")
	batch.Flags().Int64Var(&b.seed, "seed", 0, "batch seed (0 picks one)")
	batch.Flags().IntVar(&b.workers, "workers", 0, "games played in parallel (server default when 0)")
	batch.Flags().BoolVar(&b.noRisk, "no-risk", false, "draw only decision tokens")
	batch.Flags().BoolVar(&b.tuning, "tuning", true, "bias lineups with the latest stored batch")
	batch.Flags().BoolVar(&b.save, "save", true, "store the summary on the server")

	var limit int
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show batch statistics stored on the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := newClient(flags)
			latest, err := client.LatestStats(ctx)
			if err != nil {
				return err
			}
			renderSummary(latest)
			if limit <= 1 {
				return nil
			}
			list, err := client.ListStats(ctx, limit)
			if err != nil {
				return err
			}
			renderSummaryList(list)
			return nil
		},
	}
	statsCmd.Flags().IntVar(&limit, "limit", 1, "also list this many recent batches")

	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the rule tables served by the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			sheet, err := newClient(flags).Rules(ctx)
			if err != nil {
				return err
			}
			renderSheet(sheet)
			return nil
		},
	}

	remote.AddCommand(run, batch, statsCmd, rulesCmd)
	return remote
}

func newClient(flags *rootFlags) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(flags.apiBase), "/"))
}
