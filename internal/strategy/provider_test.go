package strategy

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"mgsim/internal/game"
	"mgsim/internal/rules"
)

func newState(t *testing.T) (*rules.Config, *game.GameState) {
	t.Helper()
	cfg := rules.Default()
	names := []string{"A", "B", "C", "D", "E", "F"}
	st, err := game.NewGame(cfg, names, game.NewRand(1))
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	st.Phase = game.PhaseTurns
	return cfg, st
}

func TestRosterAndParse(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range Roster() {
		if seen[s.Name()] {
			t.Fatalf("duplicate strategy name %s", s.Name())
		}
		seen[s.Name()] = true
		_ = planFor(s)
		got, err := Parse(s.Name())
		if err != nil || got != s {
			t.Fatalf("parse %s: %v %v", s.Name(), got, err)
		}
	}
	if _, err := Parse("reckless"); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestSeats(t *testing.T) {
	seats, err := Seats([]string{"aggressive", " ", "low_chip"}, 6)
	if err != nil {
		t.Fatalf("seats: %v", err)
	}
	want := []string{"aggressive", "sales_focused", "low_chip", "balanced", "aggressive", "player_default"}
	for i, s := range seats {
		if s.Name() != want[i] {
			t.Fatalf("seat %d: got %s want %s", i, s.Name(), want[i])
		}
	}
	if _, err := Seats(make([]string, 7), 6); !errors.Is(err, game.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
	if _, err := Seats([]string{"reckless"}, 6); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestProviderPlaysWithoutRejections(t *testing.T) {
	cfg := rules.Default()
	svc := game.NewService(cfg, nil)
	for seed := int64(1); seed <= 5; seed++ {
		seats := Lineup(rand.New(rand.NewSource(seed)), cfg.Companies, Tuning{})
		res, err := svc.RunSimulation(context.Background(), game.Options{AllAI: true, Seed: seed}, NewProvider(cfg, seats, Tuning{}))
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		sales := 0
		for _, log := range res.Logs {
			for _, e := range log.Entries {
				if e.Category == game.LogRejected {
					t.Fatalf("seed %d %s: rejected %s: %s", seed, log.Name, e.Action, e.Detail)
				}
				if e.Category == game.LogSale {
					sales++
				}
			}
		}
		if sales == 0 {
			t.Fatalf("seed %d: no company sold anything", seed)
		}
	}
}

func TestProviderSplitsSingleUnitProduction(t *testing.T) {
	cfg, st := newState(t)
	c := st.Company(0)
	c.Materials, c.WIP, c.Products = 1, 1, 0
	p := NewProvider(cfg, []Strategy{LowChip{CashReserve: 200}}, Tuning{})
	a, err := p.Decide(context.Background(), st, 0)
	if err != nil || a == nil {
		t.Fatalf("decide: %v %v", a, err)
	}
	if a.Type != game.ActionProduce || (a.MaterialToWIP == 1 && a.WIPToProduct == 1) {
		t.Fatalf("unexpected proposal %+v", a)
	}
}

func TestProviderSellsAtBestOpenMarket(t *testing.T) {
	cfg, st := newState(t)
	st.Company(0).Products = 4
	p := NewProvider(cfg, []Strategy{ResearchFocused{TargetResearch: 3, BidDiscount: 2}}, Tuning{ExtraDiscount: 1})
	a, err := p.Decide(context.Background(), st, 0)
	if err != nil || a == nil {
		t.Fatalf("decide: %v %v", a, err)
	}
	if a.Type != game.ActionSell || a.Market != "sendai" || a.Quantity != 2 || a.Price != 37 {
		t.Fatalf("unexpected proposal %+v", a)
	}

	if _, err := st.ApplyDice(cfg, 3, 4); err != nil {
		t.Fatalf("dice: %v", err)
	}
	st.Period = 3
	a, _ = p.Decide(context.Background(), st, 0)
	if a == nil || a.Market != "fukuoka" {
		t.Fatalf("closed markets should be skipped, got %+v", a)
	}
}

func TestProviderKeepsLastPeriodReserve(t *testing.T) {
	cfg, st := newState(t)
	st.Period = cfg.LastPeriod
	c := st.Company(0)
	c.Materials, c.WIP, c.Products = 5, 2, 4
	p := NewProvider(cfg, nil, Tuning{})
	a, err := p.Decide(context.Background(), st, 0)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if a != nil && a.Type == game.ActionSell {
		t.Fatalf("sale would break the inventory reserve: %+v", a)
	}
	if a := p.JoinBid(context.Background(), st, 0, "tokyo"); a != nil {
		t.Fatalf("join would break the inventory reserve: %+v", a)
	}
}

func TestJoinBid(t *testing.T) {
	cfg, st := newState(t)
	for i := 0; i < 2; i++ {
		st.Company(game.CompanyID(i)).Products = 5
	}
	p := NewProvider(cfg, []Strategy{LowChip{CashReserve: 40, BidDiscount: 6}, SalesFocused{TargetSalesmen: 3, BidDiscount: 4}}, Tuning{})
	if a := p.JoinBid(context.Background(), st, 0, "nagoya"); a != nil {
		t.Fatalf("low chip strategy should not join: %+v", a)
	}
	a := p.JoinBid(context.Background(), st, 1, "nagoya")
	if a == nil || a.Price != 24 || a.Quantity != 2 {
		t.Fatalf("unexpected join %+v", a)
	}
	if err := game.NewValidator(cfg).CanJoinBid(*a, st, 1); err != nil {
		t.Fatalf("join should be valid: %v", err)
	}
}

func TestAggressiveBorrowsAtPeriodStart(t *testing.T) {
	cfg, st := newState(t)
	st.Period = 3
	st.Phase = game.PhasePeriodStart
	p := NewProvider(cfg, []Strategy{Aggressive{BorrowPct: 50, BidDiscount: 8}}, Tuning{})
	a, err := p.Decide(context.Background(), st, 0)
	if err != nil || a == nil {
		t.Fatalf("decide: %v %v", a, err)
	}
	if a.Type != game.ActionBorrow || a.Loan != game.LoanLong || a.Amount != 140 {
		t.Fatalf("unexpected proposal %+v", a)
	}
}

func TestDecideHonoursCancellation(t *testing.T) {
	cfg, st := newState(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider(cfg, nil, Tuning{}).Decide(ctx, st, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
