package game

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"mgsim/internal/rules"
)

var idle = ProviderFunc(func(ctx context.Context, st *GameState, id CompanyID) (*Action, error) {
	return nil, nil
})

func TestRunSimulationIdleCompaniesLoseFixedCosts(t *testing.T) {
	svc := NewService(rules.Default(), nil)
	res, err := svc.RunSimulation(context.Background(), Options{
		AllAI:       true,
		Seed:        42,
		DisableRisk: true,
		ForcedDice:  map[int]int{3: 2, 4: 2, 5: 2},
	}, idle)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Periods) != 4 {
		t.Fatalf("expected 4 periods, got %d", len(res.Periods))
	}
	for i := range res.Periods[0].Settlements {
		p2 := res.Periods[0].Settlements[i]
		p3 := res.Periods[1].Settlements[i]
		if p2.EquityBefore != 283 {
			t.Fatalf("company %d opened with equity %d", i, p2.EquityBefore)
		}
		for _, s := range []Settlement{p2, p3} {
			if s.Tax != 0 || s.MQ != 0 || s.F != s.FixedCosts() {
				t.Fatalf("company %d period %d: tax=%d mq=%d f=%d fixed=%d", i, s.Period, s.Tax, s.MQ, s.F, s.FixedCosts())
			}
		}
		if p2.F != 20 || p3.F != 69 {
			t.Fatalf("company %d: fixed costs p2=%d p3=%d", i, p2.F, p3.F)
		}
		if got, want := p3.EquityAfter, 283-p2.F-p3.F; got != want {
			t.Fatalf("company %d: equity after period 3 got=%d want=%d", i, got, want)
		}
	}
	if !res.WinnerWarning {
		t.Fatalf("idle companies cannot qualify for victory")
	}
	if res.RiskDraws != 0 {
		t.Fatalf("risk disabled but %d risk draws", res.RiskDraws)
	}
	if res.ID == "" || res.Seed != 42 {
		t.Fatalf("missing id or seed: %q %d", res.ID, res.Seed)
	}
}

// chaosProvider proposes random, often illegal actions and checks stock
// and market invariants every time it is asked.
type chaosProvider struct {
	t   *testing.T
	cfg *rules.Config
	rng *rand.Rand
}

func (p *chaosProvider) Decide(ctx context.Context, st *GameState, id CompanyID) (*Action, error) {
	p.verify(st)
	markets := st.Markets
	m := markets[p.rng.Intn(len(markets))]
	chips := rules.AllChips
	var a Action
	switch p.rng.Intn(12) {
	case 0:
		a = Action{Type: ActionBuyMaterials, Market: m.Name, Quantity: 1 + p.rng.Intn(6)}
	case 1, 2:
		a = Action{Type: ActionProduce, MaterialToWIP: p.rng.Intn(4), WIPToProduct: p.rng.Intn(4)}
	case 3, 4:
		a = Action{Type: ActionSell, Market: m.Name, Quantity: 2 + p.rng.Intn(3), Price: 1 + p.rng.Intn(m.SellPrice)}
	case 5:
		a = Action{Type: ActionHire, Workers: p.rng.Intn(3), Salesmen: p.rng.Intn(2)}
	case 6:
		a = Action{Type: ActionBuyChip, Chip: chips[p.rng.Intn(len(chips))], Expedited: p.rng.Intn(2) == 0}
	case 7:
		a = Action{Type: ActionBuyWarehouse}
	case 8:
		a = Action{Type: ActionBorrow, Loan: LoanShort, Amount: 10 * (1 + p.rng.Intn(5))}
	case 9:
		a = Action{Type: ActionBuyAttachment, MachineIndex: p.rng.Intn(2)}
	case 10:
		a = Action{Type: ActionBuyMachine, Machine: rules.MachineSmall}
	default:
		return nil, nil
	}
	return &a, nil
}

func (p *chaosProvider) JoinBid(ctx context.Context, st *GameState, id CompanyID, market string) *Action {
	if p.rng.Intn(3) != 0 {
		return nil
	}
	m, err := st.Market(market)
	if err != nil {
		return nil
	}
	return &Action{Type: ActionSell, Market: market, Quantity: 2, Price: 1 + p.rng.Intn(m.SellPrice)}
}

func (p *chaosProvider) verify(st *GameState) {
	p.t.Helper()
	for i := range st.Companies {
		c := &st.Companies[i]
		storage := StorageCapacity(p.cfg, c)
		if c.Materials < 0 || c.Materials > storage || c.Products < 0 || c.Products > storage || c.WIP < 0 || c.WIP > p.cfg.WIPCap {
			p.t.Fatalf("%s: stock out of bounds m=%d w=%d p=%d storage=%d", c.Name, c.Materials, c.WIP, c.Products, storage)
		}
	}
	for _, m := range st.Markets {
		if m.Stock > m.MaxStock {
			p.t.Fatalf("market %s sold %d of %d", m.Name, m.Stock, m.MaxStock)
		}
	}
}

func TestRunSimulationKeepsInvariantsUnderChaos(t *testing.T) {
	cfg := rules.Default()
	svc := NewService(cfg, nil)
	for seed := int64(1); seed <= 15; seed++ {
		p := &chaosProvider{t: t, cfg: cfg, rng: rand.New(rand.NewSource(seed))}
		res, err := svc.RunSimulation(context.Background(), Options{AllAI: true, Seed: seed}, p)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		for _, log := range res.Logs {
			for _, e := range log.Entries {
				storage := cfg.BaseStorage + e.Stock.Warehouses*cfg.WarehouseCapacity
				if e.Stock.Materials < 0 || e.Stock.Materials > storage || e.Stock.Products < 0 || e.Stock.Products > storage {
					t.Fatalf("seed %d %s: snapshot out of storage bounds %+v", seed, log.Name, e)
				}
				if e.Stock.WIP < 0 || e.Stock.WIP > cfg.WIPCap {
					t.Fatalf("seed %d %s: snapshot wip out of bounds %+v", seed, log.Name, e)
				}
			}
		}
		if res.RiskDraws == 0 {
			t.Fatalf("seed %d: expected some risk draws", seed)
		}
	}
}

func TestRunSimulationIsReproducible(t *testing.T) {
	cfg := rules.Default()
	svc := NewService(cfg, nil)
	run := func() SimulationResult {
		p := &chaosProvider{t: t, cfg: cfg, rng: rand.New(rand.NewSource(7))}
		res, err := svc.RunSimulation(context.Background(), Options{AllAI: true, Seed: 1234}, p)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return res
	}
	a, b := run(), run()
	if a.Rows != b.Rows || a.RiskDraws != b.RiskDraws || a.Winner != b.Winner {
		t.Fatalf("same seed produced different games")
	}
	for i := range a.Ranking {
		if a.Ranking[i] != b.Ranking[i] {
			t.Fatalf("ranking differs at %d: %+v vs %+v", i, a.Ranking[i], b.Ranking[i])
		}
	}
}

func TestRunSimulationCancelledProviderConsumesRows(t *testing.T) {
	svc := NewService(rules.Default(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := svc.RunSimulation(ctx, Options{AllAI: true, Seed: 3, DisableRisk: true, ForcedDice: map[int]int{3: 1, 4: 1, 5: 1}}, idle)
	if err != nil {
		t.Fatalf("cancelled decisions must not abort the run: %v", err)
	}
	skips := 0
	for _, e := range res.Logs[0].Entries {
		if e.Category == LogSkip {
			skips++
		}
	}
	if skips != 20+30+34+35 {
		t.Fatalf("expected one skip per row, got %d", skips)
	}
}

func TestRunSimulationProviderErrorIsNoop(t *testing.T) {
	svc := NewService(rules.Default(), nil)
	failing := ProviderFunc(func(ctx context.Context, st *GameState, id CompanyID) (*Action, error) {
		return nil, errors.New("model unavailable")
	})
	if _, err := svc.RunSimulation(context.Background(), Options{AllAI: true, Seed: 3}, failing); err != nil {
		t.Fatalf("provider errors must not abort the run: %v", err)
	}
}

func TestRunSimulationOptions(t *testing.T) {
	svc := NewService(rules.Default(), nil)
	if _, err := svc.RunSimulation(context.Background(), Options{Names: []string{"solo"}}, idle); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption for wrong seat count, got %v", err)
	}
	if _, err := svc.RunSimulation(context.Background(), Options{Seed: 1, ForcedDice: map[int]int{3: 7}}, idle); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption for bad dice, got %v", err)
	}
	if _, err := svc.RunSimulation(context.Background(), Options{}, nil); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption for nil provider, got %v", err)
	}

	res, err := svc.RunSimulation(context.Background(), Options{HumanName: "Ada", Seed: 9, DisableRisk: true}, idle)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.HumanSeat != 0 || res.Logs[0].Name != "Ada" {
		t.Fatalf("human seat not applied: seat=%d name=%s", res.HumanSeat, res.Logs[0].Name)
	}
}

func TestRunSimulationSelfCheck(t *testing.T) {
	cfg := rules.Default()
	cfg.RiskTokens = 0
	svc := NewService(cfg, nil)
	if _, err := svc.RunSimulation(context.Background(), Options{Seed: 1}, idle); !errors.Is(err, ErrSelfCheck) {
		t.Fatalf("expected ErrSelfCheck, got %v", err)
	}
}

type bidRetryProvider struct{}

func (bidRetryProvider) Decide(ctx context.Context, st *GameState, id CompanyID) (*Action, error) {
	markets := []string{"sendai", "fukuoka", "nagoya"}
	c := st.Company(id)
	m, _ := st.Market(markets[c.BidRetries])
	return &Action{Type: ActionSell, Market: m.Name, Quantity: 2, Price: m.SellPrice}, nil
}

func (bidRetryProvider) JoinBid(ctx context.Context, st *GameState, id CompanyID, market string) *Action {
	if id != 1 {
		return nil
	}
	m, _ := st.Market(market)
	return &Action{Type: ActionSell, Market: market, Quantity: m.Remaining() - 1, Price: 1}
}

func TestLostBidsKeepTheRowUntilRetriesRunOut(t *testing.T) {
	cfg, st := newTestGame(t, 1)
	st.Parent = 0
	c0 := &st.Companies[0]
	c0.Products = 4
	c1 := &st.Companies[1]
	c1.Products, c1.Salesmen = 15, 4

	g := &gameRun{svc: NewService(cfg, nil), st: st, opts: Options{DisableRisk: true}, provider: bidRetryProvider{}}
	if err := g.playRow(context.Background(), 0); err != nil {
		t.Fatalf("play row: %v", err)
	}
	lost := 0
	for _, e := range c0.Log {
		if e.Category == LogBidLost {
			lost++
		}
	}
	if lost != cfg.MaxBidRetriesPerRow || c0.Row != 1 || st.Turn != 1 {
		t.Fatalf("lost=%d row=%d turn=%d", lost, c0.Row, st.Turn)
	}
	if c0.Products != 4 || c1.Products != 0 || c1.Row != 0 {
		t.Fatalf("joiner products=%d row=%d initiator products=%d", c1.Products, c1.Row, c0.Products)
	}
}

func TestLabourDisputeSkipsNextRow(t *testing.T) {
	cfg, st := newTestGame(t, 1)
	st.Companies[0].PendingSkips = 1
	g := &gameRun{svc: NewService(cfg, nil), st: st, opts: Options{DisableRisk: true}, provider: idle}
	if err := g.playRow(context.Background(), 0); err != nil {
		t.Fatalf("play row: %v", err)
	}
	c := &st.Companies[0]
	if c.Row != 1 || c.PendingSkips != 0 || c.Log[len(c.Log)-1].Category != LogSkip {
		t.Fatalf("skip not applied: row=%d pending=%d", c.Row, c.PendingSkips)
	}
}
