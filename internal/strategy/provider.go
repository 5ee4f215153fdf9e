package strategy

import (
	"context"
	"sort"

	"mgsim/internal/game"
	"mgsim/internal/rules"
)

// Provider proposes actions for every seat of a game. It lists candidate
// actions in the order its strategy prefers them and returns the first one
// the validator accepts, so it never proposes an illegal move on purpose.
type Provider struct {
	cfg    *rules.Config
	v      game.Validator
	seats  []Strategy
	tuning Tuning
}

func NewProvider(cfg *rules.Config, seats []Strategy, tuning Tuning) *Provider {
	if cfg == nil {
		cfg = rules.Default()
	}
	return &Provider{
		cfg:    cfg,
		v:      game.NewValidator(cfg),
		seats:  append([]Strategy(nil), seats...),
		tuning: tuning,
	}
}

// Strategy returns the strategy playing seat id. Seats without one play
// PlayerDefault.
func (p *Provider) Strategy(id game.CompanyID) Strategy {
	if int(id) < 0 || int(id) >= len(p.seats) || p.seats[id] == nil {
		return PlayerDefault{}
	}
	return p.seats[id]
}

func (p *Provider) plan(id game.CompanyID) plan {
	pl := planFor(p.Strategy(id))
	pl.discount += p.tuning.ExtraDiscount
	return pl
}

func (p *Provider) Decide(ctx context.Context, st *game.GameState, id game.CompanyID) (*game.Action, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := st.Company(id)
	if c == nil {
		return nil, game.ErrUnknownCompany
	}
	pl := p.plan(id)
	var candidates []game.Action
	if st.Phase == game.PhasePeriodStart {
		candidates = p.periodStart(st, c, pl)
	} else {
		candidates = p.turn(st, c, pl)
	}
	for _, a := range candidates {
		if p.v.CanExecute(a, st, id) == nil {
			return &a, nil
		}
	}
	return nil, nil
}

// JoinBid offers the largest sale the company can make at its discounted
// price, or nil when it sits the auction out.
func (p *Provider) JoinBid(ctx context.Context, st *game.GameState, id game.CompanyID, market string) *game.Action {
	if ctx.Err() != nil {
		return nil
	}
	pl := p.plan(id)
	c := st.Company(id)
	m, err := st.Market(market)
	if !pl.joinBids || c == nil || err != nil {
		return nil
	}
	qty := p.saleQuantity(st, c, m)
	if qty < p.cfg.MinSaleQuantity {
		return nil
	}
	a := game.Action{Type: game.ActionSell, Market: market, Quantity: qty, Price: bidPrice(m, pl.discount)}
	if p.v.CanJoinBid(a, st, id) != nil {
		return nil
	}
	return &a
}

func (p *Provider) periodStart(st *game.GameState, c *game.Company, pl plan) []game.Action {
	var out []game.Action
	if pl.longLoanPct > 0 && c.LongLoan == 0 && st.Period < p.cfg.LastPeriod {
		pctOf := min(pl.longLoanPct, p.cfg.LongTermLimitPct)
		if amount := c.Equity * pctOf / 100 / p.cfg.LoanUnit * p.cfg.LoanUnit; amount > 0 {
			out = append(out, game.Action{Type: game.ActionBorrow, Loan: game.LoanLong, Amount: amount})
		}
	}
	if hire := p.hire(c, pl); hire != nil {
		out = append(out, *hire)
	}
	if c.Warehouses < pl.warehouses && c.Cash >= p.cfg.WarehouseCost+pl.reserve {
		out = append(out, game.Action{Type: game.ActionBuyWarehouse})
	}
	return out
}

func (p *Provider) turn(st *game.GameState, c *game.Company, pl plan) []game.Action {
	var out []game.Action
	out = append(out, p.sales(st, c, pl)...)
	out = append(out, p.production(c)...)
	out = append(out, p.chips(st, c, pl)...)
	out = append(out, p.materials(st, c, pl)...)
	if hire := p.hire(c, pl); hire != nil {
		out = append(out, *hire)
	}
	out = append(out, p.equipment(c, pl)...)
	out = append(out, p.financing(c, pl)...)
	return out
}

func (p *Provider) saleQuantity(st *game.GameState, c *game.Company, m *game.Market) int {
	qty := min(c.Products, game.SalesCapacity(c), m.Remaining())
	if st.Period == p.cfg.LastPeriod {
		qty = min(qty, c.Inventory()-p.cfg.Period5InventoryReserve)
	}
	return qty
}

func bidPrice(m *game.Market, discount int) int {
	if !m.Bidding {
		return m.SellPrice
	}
	return max(1, m.SellPrice-discount)
}

func (p *Provider) sales(st *game.GameState, c *game.Company, pl plan) []game.Action {
	if c.Products < p.cfg.MinSaleQuantity {
		return nil
	}
	markets := make([]*game.Market, 0, len(st.Markets))
	for i := range st.Markets {
		if !st.Markets[i].Closed {
			markets = append(markets, &st.Markets[i])
		}
	}
	sort.SliceStable(markets, func(i, j int) bool {
		return markets[i].SellPrice > markets[j].SellPrice
	})
	var out []game.Action
	for _, m := range markets {
		qty := p.saleQuantity(st, c, m)
		if qty < p.cfg.MinSaleQuantity {
			continue
		}
		out = append(out, game.Action{Type: game.ActionSell, Market: m.Name, Quantity: qty, Price: bidPrice(m, pl.discount)})
	}
	return out
}

// production moves as much stock forward as capacity allows. A single
// material paired with a single completion is illegal, so that case is
// split into two separate proposals.
func (p *Provider) production(c *game.Company) []game.Action {
	capacity := game.ManufacturingCapacity(p.cfg, c)
	out := min(c.WIP, capacity, game.StorageCapacity(p.cfg, c)-c.Products)
	in := min(c.Materials, capacity, p.cfg.WIPCap-c.WIP+out)
	out, in = max(out, 0), max(in, 0)
	switch {
	case in+out == 0:
		return nil
	case in == 1 && out == 1:
		return []game.Action{
			{Type: game.ActionProduce, WIPToProduct: 1},
			{Type: game.ActionProduce, MaterialToWIP: 1},
		}
	}
	return []game.Action{{Type: game.ActionProduce, MaterialToWIP: in, WIPToProduct: out}}
}

func (p *Provider) chips(st *game.GameState, c *game.Company, pl plan) []game.Action {
	targets := []struct {
		kind rules.ChipKind
		n    int
	}{
		{rules.ChipResearch, pl.research},
		{rules.ChipAdvertising, pl.advertising},
		{rules.ChipEducation, pl.education},
	}
	var out []game.Action
	first := st.Period == p.cfg.FirstPeriod
	early := c.Row < st.RowLimit/2
	for _, t := range targets {
		if t.n == 0 || c.Chips.Get(t.kind) >= t.n {
			continue
		}
		if first {
			if c.Cash >= p.cfg.ChipNormalCost+pl.reserve {
				out = append(out, game.Action{Type: game.ActionBuyChip, Chip: t.kind})
			}
		} else if early && c.Cash >= p.cfg.ChipExpeditedCost+pl.reserve {
			out = append(out, game.Action{Type: game.ActionBuyChip, Chip: t.kind, Expedited: true})
		}
	}
	if pl.computer && c.Chips.Computer == 0 && c.Cash >= p.cfg.ComputerCost+pl.reserve {
		out = append(out, game.Action{Type: game.ActionBuyChip, Chip: rules.ChipComputer})
	}
	if pl.insurance && c.Chips.Insurance == 0 && c.Cash >= p.cfg.InsuranceCost+pl.reserve {
		out = append(out, game.Action{Type: game.ActionBuyChip, Chip: rules.ChipInsurance})
	}

	// Late in a later period, stock up chips for the next one. In the last
	// period these are what counts towards the victory condition.
	if pl.carryChips && !first && c.Row >= st.RowLimit-10 && c.Cash >= p.cfg.ChipNormalCost+pl.reserve {
		want := max(pl.research, 1)
		if st.Period == p.cfg.LastPeriod {
			want = max(want, p.cfg.VictoryChips)
		}
		if c.NextChips.Carrying() < want {
			kind := rules.ChipResearch
			if pl.research == 0 && pl.advertising > 0 {
				kind = rules.ChipAdvertising
			}
			out = append(out, game.Action{Type: game.ActionBuyChip, Chip: kind})
		}
	}
	return out
}

func (p *Provider) materials(st *game.GameState, c *game.Company, pl plan) []game.Action {
	storage := game.StorageCapacity(p.cfg, c)
	want := min(storage-c.Materials, max(2*game.ManufacturingCapacity(p.cfg, c), 4))
	if c.Materials >= 6 || want <= 0 {
		return nil
	}
	if st.Period == p.cfg.FirstPeriod && st.FirstRound {
		want = min(want, p.cfg.FirstRoundMaterialCap)
	}
	markets := make([]*game.Market, 0, len(st.Markets))
	for i := range st.Markets {
		if !st.Markets[i].Closed {
			markets = append(markets, &st.Markets[i])
		}
	}
	sort.SliceStable(markets, func(i, j int) bool {
		return markets[i].BuyPrice < markets[j].BuyPrice
	})
	var out []game.Action
	for _, m := range markets {
		qty := min(want, m.MaxStock-m.MaterialsSold, (c.Cash-pl.reserve)/m.BuyPrice)
		if qty <= 0 {
			continue
		}
		out = append(out, game.Action{Type: game.ActionBuyMaterials, Market: m.Name, Quantity: qty})
	}
	return out
}

func (p *Provider) hire(c *game.Company, pl plan) *game.Action {
	workers := max(min(pl.workers, len(c.Machines))-c.Workers, 0)
	salesmen := max(pl.salesmen-c.Salesmen, 0)
	workers = min(workers, p.cfg.MaxHirePerRow)
	salesmen = min(salesmen, p.cfg.MaxHirePerRow-workers)
	if workers+salesmen == 0 || c.Cash < (workers+salesmen)*p.cfg.HireCost+pl.reserve {
		return nil
	}
	return &game.Action{Type: game.ActionHire, Workers: workers, Salesmen: salesmen}
}

func (p *Provider) equipment(c *game.Company, pl plan) []game.Action {
	var out []game.Action
	if pl.largeMachine && c.Cash >= p.cfg.LargeMachineCost+pl.reserve {
		hasLarge := false
		for _, m := range c.Machines {
			hasLarge = hasLarge || m.Type == rules.MachineLarge
		}
		if !hasLarge {
			out = append(out, game.Action{Type: game.ActionBuyMachine, Machine: rules.MachineLarge})
		}
	}
	if pl.workers >= 2 && c.Cash >= p.cfg.AttachmentCost+2*pl.reserve {
		for i, m := range c.Machines {
			if m.Type == rules.MachineSmall && m.Attachments < p.cfg.MaxAttachments {
				out = append(out, game.Action{Type: game.ActionBuyAttachment, MachineIndex: i})
				break
			}
		}
	}
	return out
}

func (p *Provider) financing(c *game.Company, pl plan) []game.Action {
	unit := p.cfg.LoanUnit
	switch {
	case c.Cash < pl.reserve:
		amount := (pl.reserve - c.Cash + unit - 1) / unit * unit
		return []game.Action{{Type: game.ActionBorrow, Loan: game.LoanShort, Amount: amount}}
	case c.ShortLoan > 0 && c.Cash > 4*pl.reserve+unit:
		amount := min(c.ShortLoan, c.Cash-2*pl.reserve)
		return []game.Action{{Type: game.ActionRepay, Loan: game.LoanShort, Amount: amount}}
	}
	return nil
}
