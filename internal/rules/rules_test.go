package rules

import (
	"errors"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default rules failed self-check: %v", err)
	}
}

func TestValidateDetectsBrokenTables(t *testing.T) {
	cfg := Default()
	cfg.RiskTokens = 14
	cfg.rowBudget[4] = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected self-check to fail")
	}
}

func TestPeriodTables(t *testing.T) {
	cfg := Default()
	tests := []struct {
		period       int
		rows, wage   int
		small, large int
	}{
		{period: 2, rows: 20, wage: 10, small: 10, large: 20},
		{period: 3, rows: 30, wage: 11, small: 20, large: 40},
		{period: 4, rows: 34, wage: 12, small: 20, large: 40},
		{period: 5, rows: 35, wage: 13, small: 20, large: 40},
		{period: 6, rows: 0, wage: 0, small: 0, large: 0},
	}
	for _, tc := range tests {
		if got := cfg.RowBudget(tc.period); got != tc.rows {
			t.Fatalf("period %d rows got=%d want=%d", tc.period, got, tc.rows)
		}
		if got := cfg.BaseWage(tc.period); got != tc.wage {
			t.Fatalf("period %d wage got=%d want=%d", tc.period, got, tc.wage)
		}
		if got := cfg.Depreciation(MachineSmall, tc.period); got != tc.small {
			t.Fatalf("period %d small depreciation got=%d want=%d", tc.period, got, tc.small)
		}
		if got := cfg.Depreciation(MachineLarge, tc.period); got != tc.large {
			t.Fatalf("period %d large depreciation got=%d want=%d", tc.period, got, tc.large)
		}
	}
}

func TestDiceTable(t *testing.T) {
	cfg := Default()
	for v := 1; v <= 6; v++ {
		d, err := cfg.Dice(v)
		if err != nil {
			t.Fatalf("dice %d: %v", v, err)
		}
		wantClosed, wantPct := 1, 110
		if v >= 4 {
			wantClosed, wantPct = 2, 120
		}
		if len(d.ClosedMarkets) != wantClosed || d.WagePct != wantPct {
			t.Fatalf("dice %d: closed=%v pct=%d", v, d.ClosedMarkets, d.WagePct)
		}
		if d.PriceCeiling != 20+v || d.CeilingMarket != "osaka" {
			t.Fatalf("dice %d: ceiling %s=%d", v, d.CeilingMarket, d.PriceCeiling)
		}
	}
	if _, err := cfg.Dice(7); !errors.Is(err, ErrInvalidDice) {
		t.Fatalf("expected ErrInvalidDice, got %v", err)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	cfg := Default()
	markets := cfg.Markets()
	markets[0].SellPrice = 999
	if m, _ := cfg.Market(markets[0].Name); m.SellPrice == 999 {
		t.Fatalf("market table mutated through accessor")
	}
	d, _ := cfg.Dice(1)
	d.ClosedMarkets[0] = "tokyo"
	if again, _ := cfg.Dice(1); again.ClosedMarkets[0] != "sendai" {
		t.Fatalf("dice table mutated through accessor")
	}
	o := cfg.Opening()
	o.Machines[0] = MachineLarge
	if cfg.Opening().Machines[0] != MachineSmall {
		t.Fatalf("opening machines mutated through accessor")
	}
}

func TestRiskCardCoverage(t *testing.T) {
	cfg := Default()
	counts := map[RiskCategory]int{}
	for _, id := range cfg.RiskCardIDs() {
		counts[cfg.RiskCard(id)]++
	}
	if counts[RiskNone] != 4 {
		t.Fatalf("expected 4 blank cards, got %d", counts[RiskNone])
	}
	if counts[RiskSpecialOrder] != 6 || counts[RiskFire] != 3 {
		t.Fatalf("unexpected distribution: %v", counts)
	}
	if got := len(cfg.RiskCategories()); got != 17 {
		t.Fatalf("expected 17 categories, got %d", got)
	}
	if cfg.RiskCard(0) != RiskNone || cfg.RiskCard(65) != RiskNone {
		t.Fatalf("out of range ids must map to no effect")
	}
}

func TestChipCost(t *testing.T) {
	cfg := Default()
	if cfg.ChipCost(ChipResearch, false) != 20 || cfg.ChipCost(ChipResearch, true) != 40 {
		t.Fatalf("carrying chip rates wrong")
	}
	if cfg.ChipCost(ChipComputer, true) != 20 || cfg.ChipCost(ChipInsurance, false) != 5 {
		t.Fatalf("flat fee chips wrong")
	}
}

func TestSheet(t *testing.T) {
	s := Default().Sheet()
	if len(s.Periods) != 4 || s.Periods[0].RowBudget != 20 || s.Periods[3].BaseWage != 13 {
		t.Fatalf("unexpected periods %+v", s.Periods)
	}
	if len(s.Dice) != 6 || len(s.Markets) != 7 {
		t.Fatalf("dice=%d markets=%d", len(s.Dice), len(s.Markets))
	}
	if len(s.Risk) != 18 {
		t.Fatalf("expected 18 risk ranges, got %d: %+v", len(s.Risk), s.Risk)
	}
	last := s.Risk[len(s.Risk)-1]
	if last.From != 61 || last.To != 64 || last.Category != RiskNone {
		t.Fatalf("unexpected trailing range %+v", last)
	}
}
