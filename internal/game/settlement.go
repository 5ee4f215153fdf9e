package game

import (
	"sort"

	"mgsim/internal/rules"
)

// Wage is the period wage bill. The first period pays workers only; later
// periods pay machines, workers, salesmen and a half wage per peak
// personnel, scaled by the dice multiplier.
func Wage(cfg *rules.Config, st *GameState, c *Company) int {
	base := cfg.BaseWage(st.Period)
	if st.Period == cfg.FirstPeriod {
		return base * c.Workers
	}
	doubled := 2*base*(len(c.Machines)+c.Workers+c.Salesmen) + base*c.Book.PeakPersonnel
	return ceilDiv(doubled*st.Dice.WagePct, 200)
}

// ChipCarryover returns the chips kept after the first period:
// each carrying chip drops by one and is capped.
func ChipCarryover(cfg *rules.Config, held int) int {
	return min(max(held-1, 0), cfg.Period2CarryoverCap)
}

// Settle closes the period for one company in the fixed order: wage,
// depreciation, flat chip fees, chip cost, warehouse fee and forfeiture,
// loan service, MQ, G, tax, equity, automatic loan, chip carryover.
func Settle(cfg *rules.Config, st *GameState, id CompanyID) Settlement {
	c := st.Company(id)
	s := Settlement{Company: id, Name: c.Name, Period: st.Period, EquityBefore: c.Equity}

	s.Wage = Wage(cfg, st, c)
	c.Cash -= s.Wage

	for i := range c.Machines {
		dep := min(cfg.Depreciation(c.Machines[i].Type, st.Period), c.Machines[i].BookValue)
		c.Machines[i].BookValue -= dep
		s.Depreciation += dep
	}

	s.ChipFees = c.History.Normal.Computer*cfg.ComputerCost + c.History.Normal.Insurance*cfg.InsuranceCost

	if st.Period == cfg.FirstPeriod {
		carried := 0
		for _, k := range rules.CarryingChips {
			carried += ChipCarryover(cfg, c.Chips.Get(k))
		}
		s.ChipCost = max(c.History.Normal.Carrying()-carried, 0) * cfg.ChipNormalCost
	} else {
		s.ChipCost = c.CarriedOver*cfg.ChipNormalCost + c.History.Expedited.Carrying()*cfg.ChipExpeditedCost
	}

	s.WarehouseFee = c.Book.WarehousesBought * cfg.WarehouseCost
	c.Warehouses = 0
	storage := StorageCapacity(cfg, c)
	if c.Materials > storage {
		s.ScrappedMaterial = c.Materials - storage
		c.Materials = storage
		loseInventory(c, s.ScrappedMaterial*cfg.MaterialValue)
	}
	if c.Products > storage {
		s.ScrappedProducts = c.Products - storage
		c.Products = storage
		loseInventory(c, s.ScrappedProducts*cfg.ProductValue)
	}

	if c.LongLoan > 0 {
		interest := pct(c.LongLoan, cfg.LongTermRatePct)
		repay := pct(c.LongLoan, cfg.LongTermRepayPct)
		c.LongLoan -= repay
		c.Cash -= interest + repay
		s.Interest += interest
		s.LongRepaid = repay
	}
	if c.ShortLoan > 0 {
		repay := pct(c.ShortLoan, cfg.ShortTermRepayPct)
		c.ShortLoan -= repay
		interest := pct(c.ShortLoan, cfg.ShortTermRatePct)
		c.Cash -= interest + repay
		s.Interest += interest
		s.ShortRepaid = repay
	}

	s.PQ = c.Book.Sales
	closing := c.InventoryValue(cfg)
	s.VQ = c.Book.OpeningInventory + c.Book.Purchases + c.Book.ProductionCost - closing - c.Book.InventoryLost
	s.MQ = s.PQ - s.VQ

	s.RiskFixed = c.Book.RiskFixed
	s.Hiring = c.Book.Hiring
	s.F = s.Wage + s.Depreciation + s.ChipFees + s.ChipCost + s.WarehouseFee + s.Interest + s.RiskFixed + s.Hiring
	s.SpecialLoss = c.Book.SpecialLoss
	s.G = s.MQ - s.F - s.SpecialLoss

	if s.G > 0 {
		s.Tax = floorPct(s.G, cfg.TaxPct)
	}
	c.Cash -= s.Tax
	c.Equity += s.G - s.Tax
	c.TotalFixedCost += s.F
	c.TotalSpecialLoss += s.SpecialLoss

	if c.Cash < 0 {
		s.AutoLoan = ceilDiv(-c.Cash, cfg.LoanUnit) * cfg.LoanUnit
		c.ShortLoan += s.AutoLoan
		c.Cash += s.AutoLoan
	}

	if st.Period == cfg.FirstPeriod {
		carried := 0
		for _, k := range rules.CarryingChips {
			n := ChipCarryover(cfg, c.Chips.Get(k))
			c.Chips.Set(k, n)
			carried += n
		}
		c.Chips.Computer = 0
		c.Chips.Insurance = 0
		c.CarriedOver = carried
	} else {
		c.Chips = c.NextChips
		c.NextChips = ChipSet{}
		c.CarriedOver = c.Chips.Carrying()
	}
	s.CarriedOver = c.CarriedOver
	s.EquityAfter = c.Equity
	s.CashAfter = c.Cash

	c.record(LogSettlement, "", s.G-s.Tax, "F=%d MQ=%d G=%d tax=%d equity=%d", s.F, s.MQ, s.G, s.Tax, c.Equity)
	return s
}

// ClosePeriod rotates the parent and resets rows, per-period books, chip
// history and markets. After the last period the game is finished.
func ClosePeriod(cfg *rules.Config, st *GameState) {
	st.RotateParent()
	st.Period++
	st.FirstRound = false
	st.Phase = PhasePeriodStart
	if st.Period > cfg.LastPeriod {
		st.Period = cfg.LastPeriod
		st.Phase = PhaseFinished
	}
	for i := range st.Companies {
		c := &st.Companies[i]
		c.Row = 0
		c.Period = st.Period
		c.PendingSkips = 0
		c.BidRetries = 0
		c.LastChipRow = -1
		c.History = ChipHistory{}
		c.Book = PeriodBook{
			OpeningInventory: c.InventoryValue(cfg),
			PeakPersonnel:    c.Personnel(),
		}
	}
	st.resetMarkets(cfg)
}

// Standings ranks companies by equity, highest first, and marks those
// meeting every victory condition.
func Standings(cfg *rules.Config, st *GameState) []Standing {
	out := make([]Standing, len(st.Companies))
	for i := range st.Companies {
		c := &st.Companies[i]
		out[i] = Standing{
			Company:     c.ID,
			Name:        c.Name,
			Equity:      c.Equity,
			Inventory:   c.Inventory(),
			CarriedOver: c.CarriedOver,
		}
		out[i].Qualified = c.Equity >= cfg.VictoryEquity &&
			c.Inventory() >= cfg.VictoryInventory &&
			c.CarriedOver >= cfg.VictoryChips
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Equity != out[j].Equity {
			return out[i].Equity > out[j].Equity
		}
		return out[i].Company < out[j].Company
	})
	return out
}

// Winner picks the best qualified company. When none qualifies the
// highest equity wins and warning is set.
func Winner(ranking []Standing) (winner Standing, warning bool) {
	for _, s := range ranking {
		if s.Qualified {
			return s, false
		}
	}
	if len(ranking) == 0 {
		return Standing{}, true
	}
	return ranking[0], true
}
