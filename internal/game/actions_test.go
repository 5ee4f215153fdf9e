package game

import (
	"errors"
	"testing"

	"mgsim/internal/rules"
)

func TestExecuteRejectionLeavesStateUntouched(t *testing.T) {
	cfg, st := newTestGame(t, 1)
	before := st.Companies[0]
	err := NewEngine(cfg).Execute(st, 0, Action{Type: ActionBuyMachine, Machine: rules.MachineLarge})
	if !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("expected ErrInsufficientCash, got %v", err)
	}
	after := st.Companies[0]
	if after.Cash != before.Cash || len(after.Machines) != len(before.Machines) || len(after.Log) != len(before.Log) {
		t.Fatalf("rejected action mutated state")
	}
}

func TestExecuteBuyMaterialsAndProduce(t *testing.T) {
	cfg, st := newTestGame(t, 1)
	e := NewEngine(cfg)
	if err := e.Execute(st, 0, Action{Type: ActionBuyMaterials, Market: "sendai", Quantity: 2}); err != nil {
		t.Fatalf("buy materials: %v", err)
	}
	c := &st.Companies[0]
	sendai, _ := st.Market("sendai")
	if c.Cash != 92 || c.Materials != 3 || c.Book.Purchases != 20 || sendai.MaterialsSold != 2 {
		t.Fatalf("unexpected state after purchase: cash=%d materials=%d purchases=%d sold=%d", c.Cash, c.Materials, c.Book.Purchases, sendai.MaterialsSold)
	}
	if err := e.Execute(st, 0, Action{Type: ActionProduce, MaterialToWIP: 2, WIPToProduct: 1}); err != nil {
		t.Fatalf("produce: %v", err)
	}
	if c.Materials != 1 || c.WIP != 3 || c.Products != 2 || c.Cash != 89 || c.Book.ProductionCost != 3 {
		t.Fatalf("unexpected state after production: %+v", c.Book)
	}
	last := c.Log[len(c.Log)-1]
	if last.Category != LogDecision || last.Action != ActionProduce || last.Stock.WIP != 3 {
		t.Fatalf("unexpected log entry %+v", last)
	}
}

func TestExecuteChipPurchaseTiming(t *testing.T) {
	tests := []struct {
		name      string
		period    int
		action    Action
		held      ChipSet
		next      ChipSet
		normal    int
		expedited int
		cash      int
	}{
		{name: "first period normal", period: 2, action: Action{Type: ActionBuyChip, Chip: rules.ChipResearch},
			held: ChipSet{Research: 1}, normal: 1, cash: 92},
		{name: "later normal is next period", period: 3, action: Action{Type: ActionBuyChip, Chip: rules.ChipAdvertising},
			next: ChipSet{Advertising: 1}, normal: 1, cash: 92},
		{name: "later expedited is immediate", period: 3, action: Action{Type: ActionBuyChip, Chip: rules.ChipEducation, Expedited: true},
			held: ChipSet{Education: 1}, expedited: 1, cash: 72},
		{name: "insurance is immediate", period: 4, action: Action{Type: ActionBuyChip, Chip: rules.ChipInsurance},
			held: ChipSet{Insurance: 1}, cash: 107},
	}
	for _, tc := range tests {
		cfg, st := newTestGame(t, 1)
		st.Period = tc.period
		if err := NewEngine(cfg).Execute(st, 0, tc.action); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		c := &st.Companies[0]
		if c.Chips != tc.held || c.NextChips != tc.next {
			t.Fatalf("%s: held=%+v next=%+v", tc.name, c.Chips, c.NextChips)
		}
		if c.History.Normal.Carrying() != tc.normal || c.History.Expedited.Carrying() != tc.expedited {
			t.Fatalf("%s: history %+v", tc.name, c.History)
		}
		if c.Cash != tc.cash {
			t.Fatalf("%s: cash=%d want=%d", tc.name, c.Cash, tc.cash)
		}
		if c.LastChipRow != c.Row {
			t.Fatalf("%s: chip row not recorded", tc.name)
		}
	}
}

func TestExecuteMachineLifecycle(t *testing.T) {
	cfg, st := newTestGame(t, 1)
	e := NewEngine(cfg)
	c := &st.Companies[0]
	c.Cash = 500
	if err := e.Execute(st, 0, Action{Type: ActionBuyMachine, Machine: rules.MachineLarge}); err != nil {
		t.Fatalf("buy machine: %v", err)
	}
	if err := e.Execute(st, 0, Action{Type: ActionBuyAttachment, MachineIndex: 0}); err != nil {
		t.Fatalf("buy attachment: %v", err)
	}
	if c.Machines[0].BookValue != 120 || c.Machines[0].Attachments != 1 {
		t.Fatalf("attachment not booked: %+v", c.Machines[0])
	}
	if err := e.Execute(st, 0, Action{Type: ActionSellMachine, MachineIndex: 0}); err != nil {
		t.Fatalf("sell machine: %v", err)
	}
	if len(c.Machines) != 1 || c.Machines[0].Type != rules.MachineLarge {
		t.Fatalf("wrong machine removed: %+v", c.Machines)
	}
	if c.Cash != 500-200-20+60 || c.Book.SpecialLoss != 60 {
		t.Fatalf("sale proceeds wrong: cash=%d loss=%d", c.Cash, c.Book.SpecialLoss)
	}
	if err := e.Execute(st, 0, Action{Type: ActionSellMachine, MachineIndex: 0}); !errors.Is(err, ErrLastMachine) {
		t.Fatalf("expected ErrLastMachine, got %v", err)
	}
}

func TestExecuteHireTracksPeakPersonnel(t *testing.T) {
	cfg, st := newTestGame(t, 1)
	if err := NewEngine(cfg).Execute(st, 0, Action{Type: ActionHire, Workers: 2, Salesmen: 1}); err != nil {
		t.Fatalf("hire: %v", err)
	}
	c := &st.Companies[0]
	if c.Workers != 3 || c.Salesmen != 2 || c.Book.PeakPersonnel != 5 || c.Book.Hiring != 15 || c.Cash != 97 {
		t.Fatalf("unexpected hire result: workers=%d salesmen=%d peak=%d hiring=%d cash=%d",
			c.Workers, c.Salesmen, c.Book.PeakPersonnel, c.Book.Hiring, c.Cash)
	}
}

func TestExecuteLoans(t *testing.T) {
	cfg, st := newTestGame(t, 1)
	e := NewEngine(cfg)
	c := &st.Companies[0]
	if err := e.Execute(st, 0, Action{Type: ActionBorrow, Loan: LoanShort, Amount: 50}); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if err := e.Execute(st, 0, Action{Type: ActionRepay, Loan: LoanShort, Amount: 20}); err != nil {
		t.Fatalf("repay: %v", err)
	}
	if c.ShortLoan != 30 || c.Cash != 142 {
		t.Fatalf("short=%d cash=%d", c.ShortLoan, c.Cash)
	}
	st.Phase = PhasePeriodStart
	if err := e.Execute(st, 0, Action{Type: ActionBorrow, Loan: LoanLong, Amount: 100}); err != nil {
		t.Fatalf("long borrow: %v", err)
	}
	if c.LongLoan != 100 {
		t.Fatalf("long=%d", c.LongLoan)
	}
}

func TestExecuteWarehouse(t *testing.T) {
	cfg, st := newTestGame(t, 1)
	if err := NewEngine(cfg).Execute(st, 0, Action{Type: ActionBuyWarehouse}); err != nil {
		t.Fatalf("warehouse: %v", err)
	}
	c := &st.Companies[0]
	if c.Warehouses != 1 || c.Book.WarehousesBought != 1 || StorageCapacity(cfg, c) != 32 {
		t.Fatalf("warehouse not applied: %+v", c.Book)
	}
}
