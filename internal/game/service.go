package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"mgsim/internal/rules"
)

// DecisionProvider proposes the next action for a company. A nil action
// means "do nothing". Providers must treat the state as read-only; every
// proposal is validated again by the engine.
type DecisionProvider interface {
	Decide(ctx context.Context, st *GameState, id CompanyID) (*Action, error)
}

// BidResponder is implemented by providers that want to join auctions
// started by other companies. The returned action must be a sale at market.
type BidResponder interface {
	JoinBid(ctx context.Context, st *GameState, id CompanyID, market string) *Action
}

type ProviderFunc func(ctx context.Context, st *GameState, id CompanyID) (*Action, error)

func (f ProviderFunc) Decide(ctx context.Context, st *GameState, id CompanyID) (*Action, error) {
	return f(ctx, st, id)
}

type Options struct {
	AllAI     bool
	HumanName string
	// ForcedDice maps a period to a dice value. Missing periods roll.
	ForcedDice    map[int]int
	SkipSelfCheck bool
	// Seed drives every random draw of the game. Zero picks a random seed.
	Seed        int64
	DisableRisk bool
	Names       []string
}

type Service struct {
	cfg    *rules.Config
	engine *Engine
	log    *slog.Logger
}

func NewService(cfg *rules.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = rules.Default()
	}
	return &Service{
		cfg:    cfg,
		engine: NewEngine(cfg),
		log:    logger,
	}
}

func (s *Service) Config() *rules.Config { return s.cfg }

// NewGame builds the initial state for opts without playing it.
func (s *Service) NewGame(opts Options) (*GameState, int64, error) {
	seed := opts.Seed
	if seed == 0 {
		var err error
		if seed, err = NewSeed(); err != nil {
			return nil, 0, err
		}
	}
	names, err := s.seatNames(opts)
	if err != nil {
		return nil, 0, err
	}
	st, err := NewGame(s.cfg, names, NewRand(seed))
	if err != nil {
		return nil, 0, err
	}
	return st, seed, nil
}

func (s *Service) seatNames(opts Options) ([]string, error) {
	names := append([]string(nil), opts.Names...)
	if len(names) == 0 {
		for i := 0; i < s.cfg.Companies; i++ {
			names = append(names, fmt.Sprintf("Company %d", i+1))
		}
	}
	if len(names) != s.cfg.Companies {
		return nil, fmt.Errorf("%w: need %d names, got %d", ErrInvalidOption, s.cfg.Companies, len(names))
	}
	if !opts.AllAI && opts.HumanName != "" {
		names[0] = opts.HumanName
	}
	return names, nil
}

// RunSimulation plays one full game from the first to the last period.
// It returns an *InvariantError when a post-mutation check fails.
func (s *Service) RunSimulation(ctx context.Context, opts Options, provider DecisionProvider) (SimulationResult, error) {
	if provider == nil {
		return SimulationResult{}, fmt.Errorf("%w: nil decision provider", ErrInvalidOption)
	}
	if !opts.SkipSelfCheck {
		if err := s.cfg.Validate(); err != nil {
			return SimulationResult{}, fmt.Errorf("%w: %w", ErrSelfCheck, err)
		}
	}
	st, seed, err := s.NewGame(opts)
	if err != nil {
		return SimulationResult{}, err
	}
	res := SimulationResult{ID: uuid.NewString(), Seed: seed, HumanSeat: -1}
	if !opts.AllAI && opts.HumanName != "" {
		res.HumanSeat = 0
	}
	s.log.Debug("simulation started", "id", res.ID, "seed", seed, "companies", len(st.Companies))

	run := &gameRun{svc: s, st: st, opts: opts, provider: provider}
	for st.Phase != PhaseFinished {
		pr, err := run.playPeriod(ctx)
		if err != nil {
			var inv *InvariantError
			if errors.As(err, &inv) {
				s.log.Error("invariant violated", "id", res.ID, "seed", seed, "rule", inv.Rule, "company", inv.Company, "period", inv.Period, "row", inv.Row, "detail", inv.Detail)
			}
			return res, err
		}
		res.Periods = append(res.Periods, pr)
	}

	res.Ranking = Standings(s.cfg, st)
	res.Winner, res.WinnerWarning = Winner(res.Ranking)
	for i := range st.Companies {
		c := &st.Companies[i]
		res.Logs = append(res.Logs, CompanyLog{Company: c.ID, Name: c.Name, Entries: c.Log})
	}
	res.Rows = st.Turn
	res.RiskDraws = run.riskDraws
	res.Reshuffles = st.RiskDeck.Reshuffles() + st.DecisionDeck.Reshuffles()
	s.log.Debug("simulation finished", "id", res.ID, "winner", res.Winner.Name, "equity", res.Winner.Equity, "warning", res.WinnerWarning)
	return res, nil
}

// gameRun carries the per-game loop state.
type gameRun struct {
	svc       *Service
	st        *GameState
	opts      Options
	provider  DecisionProvider
	riskDraws int
}

func (g *gameRun) playPeriod(ctx context.Context) (PeriodResult, error) {
	cfg := g.svc.cfg
	st := g.st
	period := st.Period

	dice, err := st.ApplyDice(cfg, period, g.opts.ForcedDice[period])
	if err != nil {
		return PeriodResult{}, fmt.Errorf("%w: period %d: %w", ErrInvalidOption, period, err)
	}

	st.Phase = PhasePeriodStart
	for _, id := range st.TurnOrder() {
		if err := g.periodStart(ctx, id); err != nil {
			return PeriodResult{}, err
		}
	}

	st.Phase = PhaseTurns
	for !st.PeriodDone() {
		for _, id := range st.TurnOrder() {
			if st.Company(id).Row >= st.RowLimit {
				continue
			}
			if err := g.playRow(ctx, id); err != nil {
				return PeriodResult{}, err
			}
		}
		st.FirstRound = false
	}

	st.Phase = PhaseSettlement
	pr := PeriodResult{Period: period, Dice: dice}
	for i := range st.Companies {
		id := CompanyID(i)
		pr.Settlements = append(pr.Settlements, Settle(cfg, st, id))
		if err := CheckCompany(cfg, st, id); err != nil {
			return pr, err
		}
	}
	ClosePeriod(cfg, st)
	return pr, nil
}

func (g *gameRun) periodStart(ctx context.Context, id CompanyID) error {
	a, _ := g.decide(ctx, id)
	if a.Type == ActionNothing {
		return nil
	}
	err := g.svc.engine.Execute(g.st, id, a)
	if err == nil {
		return nil
	}
	if !IsRejection(err) {
		return err
	}
	g.st.Company(id).record(LogRejected, a.Type, 0, "%v", err)
	return nil
}

func (g *gameRun) playRow(ctx context.Context, id CompanyID) error {
	st := g.st
	c := st.Company(id)
	if c.PendingSkips > 0 {
		c.PendingSkips--
		c.record(LogSkip, "", 0, "row lost to labour dispute")
		g.consumeRow(c)
		return nil
	}
	if !g.opts.DisableRisk && st.DecisionDeck.Draw(st.rng) == TokenRisk {
		card := st.RiskDeck.Draw(st.rng)
		g.riskDraws++
		ApplyRisk(g.svc.cfg, st, id, card)
		g.consumeRow(c)
		return CheckCompany(g.svc.cfg, st, id)
	}

	for {
		a, cancelled := g.decide(ctx, id)
		if cancelled {
			c.record(LogSkip, "", 0, "decision cancelled")
			g.consumeRow(c)
			return nil
		}
		var err error
		if a.Type == ActionSell {
			err = g.sell(ctx, id, a)
		} else {
			err = g.svc.engine.Execute(st, id, a)
		}
		switch {
		case err == nil:
			g.consumeRow(c)
			return nil
		case errors.Is(err, ErrBidLost):
			c.BidRetries++
			if c.BidRetries >= g.svc.cfg.MaxBidRetriesPerRow {
				g.consumeRow(c)
				return nil
			}
		case !IsRejection(err):
			return err
		default:
			c.record(LogRejected, a.Type, 0, "%v", err)
			g.consumeRow(c)
			return nil
		}
	}
}

func (g *gameRun) sell(ctx context.Context, id CompanyID, a Action) error {
	var joins []Join
	responder, ok := g.provider.(BidResponder)
	if m, err := g.st.Market(a.Market); ok && err == nil && m.Bidding {
		if err := g.svc.engine.Validator().CanExecute(a, g.st, id); err != nil {
			return err
		}
		for _, other := range g.st.TurnOrder() {
			if other == id || ctx.Err() != nil {
				continue
			}
			if j := responder.JoinBid(ctx, g.st, other, a.Market); j != nil {
				joins = append(joins, Join{Company: other, Action: *j})
			}
		}
	}
	_, err := g.svc.engine.Sell(g.st, id, a, joins)
	return err
}

// decide asks the provider for an action. A cancelled or expired context
// is reported as cancelled; any other provider error degrades to nothing.
func (g *gameRun) decide(ctx context.Context, id CompanyID) (Action, bool) {
	if ctx.Err() != nil {
		return Nothing(), true
	}
	a, err := g.provider.Decide(ctx, g.st, id)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Nothing(), true
		}
		g.st.Company(id).record(LogRejected, "", 0, "provider error: %v", err)
		return Nothing(), false
	}
	if a == nil {
		return Nothing(), false
	}
	return *a, false
}

func (g *gameRun) consumeRow(c *Company) {
	c.Row++
	c.BidRetries = 0
	g.st.Turn++
}
