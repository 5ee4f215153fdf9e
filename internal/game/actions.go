package game

import (
	"fmt"

	"mgsim/internal/rules"
)

// Engine executes validated actions against a GameState.
type Engine struct {
	cfg       *rules.Config
	validator Validator
}

func NewEngine(cfg *rules.Config) *Engine {
	return &Engine{cfg: cfg, validator: NewValidator(cfg)}
}

func (e *Engine) Validator() Validator { return e.validator }

// Join is an off-turn sale offered into another company's auction.
type Join struct {
	Company CompanyID
	Action  Action
}

// Execute validates and applies a. Rejections are returned as wrapped
// sentinels and leave the state untouched. A sale that loses its auction
// returns ErrBidLost. Post-mutation checks return *InvariantError.
func (e *Engine) Execute(st *GameState, id CompanyID, a Action) error {
	if a.Type == ActionSell {
		_, err := e.Sell(st, id, a, nil)
		return err
	}
	if err := e.validator.CanExecute(a, st, id); err != nil {
		return err
	}
	c := st.Company(id)
	cfg := e.cfg
	switch a.Type {
	case ActionNothing:
		c.record(LogDecision, ActionNothing, 0, "no action")
	case ActionBuyMaterials:
		m, _ := st.Market(a.Market)
		cost := a.Quantity * m.BuyPrice
		m.MaterialsSold += a.Quantity
		c.Cash -= cost
		c.Materials += a.Quantity
		c.Book.Purchases += cost
		c.record(LogDecision, a.Type, -cost, "bought %d materials at %s for %d", a.Quantity, m.Name, m.BuyPrice)
	case ActionProduce:
		cost := a.MaterialToWIP*cfg.InputCost + a.WIPToProduct*cfg.CompleteCost
		c.Cash -= cost
		c.Materials -= a.MaterialToWIP
		c.WIP += a.MaterialToWIP - a.WIPToProduct
		c.Products += a.WIPToProduct
		c.Book.ProductionCost += cost
		c.record(LogDecision, a.Type, -cost, "input %d completed %d", a.MaterialToWIP, a.WIPToProduct)
	case ActionHire:
		cost := (a.Workers + a.Salesmen) * cfg.HireCost
		c.Cash -= cost
		c.Workers += a.Workers
		c.Salesmen += a.Salesmen
		c.Book.Hiring += cost
		c.touchPersonnel()
		c.record(LogDecision, a.Type, -cost, "hired %d workers %d salesmen", a.Workers, a.Salesmen)
	case ActionBuyChip:
		e.buyChip(st, c, a)
	case ActionBuyMachine:
		cost := cfg.MachineCost(a.Machine)
		c.Cash -= cost
		c.Machines = append(c.Machines, Machine{Type: a.Machine, BookValue: cost})
		c.record(LogDecision, a.Type, -cost, "bought %s machine", a.Machine)
	case ActionSellMachine:
		m := c.Machines[a.MachineIndex]
		proceeds := m.BookValue / 2
		loss := m.BookValue - proceeds
		c.Cash += proceeds
		c.Book.SpecialLoss += loss
		c.Machines = append(c.Machines[:a.MachineIndex], c.Machines[a.MachineIndex+1:]...)
		c.record(LogDecision, a.Type, proceeds, "sold %s machine (book %d, loss %d)", m.Type, m.BookValue, loss)
	case ActionBuyAttachment:
		c.Cash -= cfg.AttachmentCost
		c.Machines[a.MachineIndex].Attachments++
		c.Machines[a.MachineIndex].BookValue += cfg.AttachmentCost
		c.record(LogDecision, a.Type, -cfg.AttachmentCost, "attachment on machine %d", a.MachineIndex)
	case ActionBuyWarehouse:
		c.Cash -= cfg.WarehouseCost
		c.Warehouses++
		c.Book.WarehousesBought++
		c.record(LogDecision, a.Type, -cfg.WarehouseCost, "warehouse %d", c.Warehouses)
	case ActionBorrow:
		c.Cash += a.Amount
		if a.Loan == LoanLong {
			c.LongLoan += a.Amount
		} else {
			c.ShortLoan += a.Amount
		}
		c.record(LogDecision, a.Type, a.Amount, "%s-term loan %d", a.Loan, a.Amount)
	case ActionRepay:
		c.Cash -= a.Amount
		c.ShortLoan -= a.Amount
		c.record(LogDecision, a.Type, -a.Amount, "repaid short-term %d", a.Amount)
	}
	return CheckCompany(cfg, st, id)
}

func (e *Engine) buyChip(st *GameState, c *Company, a Action) {
	cost := e.cfg.ChipCost(a.Chip, a.Expedited)
	c.Cash -= cost
	c.LastChipRow = c.Row
	switch {
	case a.Chip.FlatFee():
		c.Chips.Add(a.Chip, 1)
		c.History.Normal.Add(a.Chip, 1)
	case st.Period == e.cfg.FirstPeriod:
		c.Chips.Add(a.Chip, 1)
		c.History.Normal.Add(a.Chip, 1)
	case a.Expedited:
		c.Chips.Add(a.Chip, 1)
		c.History.Expedited.Add(a.Chip, 1)
	default:
		c.NextChips.Add(a.Chip, 1)
		c.History.Normal.Add(a.Chip, 1)
	}
	rate := "normal"
	if a.Expedited {
		rate = "expedited"
	}
	c.record(LogDecision, ActionBuyChip, -cost, "%s chip (%s)", a.Chip, rate)
}

// Sell runs the initiator's sale. At bidding markets every valid join is
// ranked alongside it; invalid joins are logged as rejected on the joiner.
// Non-bidding markets sell at the market price through the same path.
func (e *Engine) Sell(st *GameState, id CompanyID, a Action, joins []Join) (AuctionResult, error) {
	if err := e.validator.CanExecute(a, st, id); err != nil {
		return AuctionResult{}, err
	}
	m, _ := st.Market(a.Market)
	price := a.Price
	if !m.Bidding {
		price = m.SellPrice
		joins = nil
	}
	bids := []Bid{{Company: id, Price: price, Quantity: a.Quantity, Initiator: true}}
	seen := map[CompanyID]bool{id: true}
	for _, j := range joins {
		if seen[j.Company] || j.Action.Market != a.Market {
			continue
		}
		if err := e.validator.CanJoinBid(j.Action, st, j.Company); err != nil {
			if jc := st.Company(j.Company); jc != nil {
				jc.record(LogRejected, ActionSell, 0, "join bid at %s: %v", a.Market, err)
			}
			continue
		}
		seen[j.Company] = true
		bids = append(bids, Bid{Company: j.Company, Price: j.Action.Price, Quantity: j.Action.Quantity})
	}

	res, err := ResolveAuction(e.cfg, st, a.Market, bids, st.rng)
	if err != nil {
		return res, err
	}
	for _, b := range bids {
		if err := CheckCompany(e.cfg, st, b.Company); err != nil {
			return res, err
		}
	}
	if err := CheckMarkets(st); err != nil {
		return res, err
	}
	if out, _ := res.Outcome(id); !out.Won {
		return res, fmt.Errorf("%w: %s call price %d", ErrBidLost, a.Market, out.CallPrice)
	}
	return res, nil
}
