package game

import (
	"fmt"

	"mgsim/internal/rules"
)

// Validator is the only source of truth for action legality. Execution
// routines call it again before mutating anything.
type Validator struct {
	cfg *rules.Config
}

func NewValidator(cfg *rules.Config) Validator {
	return Validator{cfg: cfg}
}

// CanExecute returns nil when company id may take action a now, or an
// error wrapping one of the rejection sentinels.
func (v Validator) CanExecute(a Action, st *GameState, id CompanyID) error {
	return v.check(a, st, id, false)
}

// CanJoinBid validates an off-turn sale joining another company's auction.
// Joining does not use a row, so the row budget is not checked.
func (v Validator) CanJoinBid(a Action, st *GameState, id CompanyID) error {
	if a.Type != ActionSell {
		return fmt.Errorf("%w: only sales may join a bid", ErrUnknownAction)
	}
	return v.check(a, st, id, true)
}

func (v Validator) check(a Action, st *GameState, id CompanyID, offTurn bool) error {
	c := st.Company(id)
	if c == nil {
		return fmt.Errorf("%w: company %d", ErrUnknownCompany, id)
	}
	if a.Type == ActionProduce && a.MaterialToWIP == 1 && a.WIPToProduct == 1 {
		return ErrIllegalProduction
	}
	switch st.Phase {
	case PhasePeriodStart:
		switch a.Type {
		case ActionNothing, ActionBorrow, ActionHire, ActionBuyWarehouse:
		case ActionBuyChip:
			return ErrChipDuringPeriodStart
		default:
			return fmt.Errorf("%w: %s during period start", ErrWrongPhase, a.Type)
		}
	case PhaseTurns:
		if !offTurn && c.Row >= st.RowLimit {
			return fmt.Errorf("%w: row %d of %d", ErrRowBudgetExhausted, c.Row, st.RowLimit)
		}
	default:
		return fmt.Errorf("%w: %s", ErrWrongPhase, st.Phase)
	}

	switch a.Type {
	case ActionNothing:
		return nil
	case ActionBuyMaterials:
		return v.checkBuyMaterials(a, st, c)
	case ActionProduce:
		return v.checkProduce(a, c)
	case ActionSell:
		return v.checkSell(a, st, c)
	case ActionHire:
		return v.checkHire(a, c)
	case ActionBuyChip:
		return v.checkBuyChip(a, st, c)
	case ActionBuyMachine:
		cost := v.cfg.MachineCost(a.Machine)
		if cost == 0 {
			return fmt.Errorf("%w: type %q", ErrInvalidMachine, a.Machine)
		}
		return needCash(c, cost)
	case ActionSellMachine:
		if a.MachineIndex < 0 || a.MachineIndex >= len(c.Machines) {
			return fmt.Errorf("%w: index %d", ErrInvalidMachine, a.MachineIndex)
		}
		if len(c.Machines) <= 1 {
			return ErrLastMachine
		}
		return nil
	case ActionBuyAttachment:
		if a.MachineIndex < 0 || a.MachineIndex >= len(c.Machines) {
			return fmt.Errorf("%w: index %d", ErrInvalidMachine, a.MachineIndex)
		}
		m := c.Machines[a.MachineIndex]
		if m.Type != rules.MachineSmall || m.Attachments >= v.cfg.MaxAttachments {
			return fmt.Errorf("%w: %s machine with %d attachments", ErrAttachmentLimit, m.Type, m.Attachments)
		}
		return needCash(c, v.cfg.AttachmentCost)
	case ActionBuyWarehouse:
		if c.Warehouses >= v.cfg.MaxWarehouses {
			return ErrWarehouseLimit
		}
		return needCash(c, v.cfg.WarehouseCost)
	case ActionBorrow:
		return v.checkBorrow(a, st, c)
	case ActionRepay:
		if a.Loan != LoanShort {
			return fmt.Errorf("%w: only short-term loans can be repaid early", ErrInvalidLoan)
		}
		if a.Amount <= 0 {
			return ErrInvalidAmount
		}
		if a.Amount > c.ShortLoan {
			return fmt.Errorf("%w: %d > %d", ErrRepayExceedsBalance, a.Amount, c.ShortLoan)
		}
		return needCash(c, a.Amount)
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
}

func (v Validator) checkBuyMaterials(a Action, st *GameState, c *Company) error {
	if a.Quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, a.Quantity)
	}
	m, err := st.Market(a.Market)
	if err != nil {
		return err
	}
	if m.Closed {
		return fmt.Errorf("%w: %s", ErrMarketClosed, m.Name)
	}
	if a.Quantity > m.MaxStock-m.MaterialsSold {
		return fmt.Errorf("%w: %s has %d left", ErrMaterialCap, m.Name, m.MaxStock-m.MaterialsSold)
	}
	if st.Period == v.cfg.FirstPeriod && st.FirstRound && a.Quantity > v.cfg.FirstRoundMaterialCap {
		return fmt.Errorf("%w: first round allows %d", ErrMaterialCap, v.cfg.FirstRoundMaterialCap)
	}
	if c.Materials+a.Quantity > StorageCapacity(v.cfg, c) {
		return fmt.Errorf("%w: materials %d+%d", ErrStorageCapacity, c.Materials, a.Quantity)
	}
	return needCash(c, a.Quantity*m.BuyPrice)
}

func (v Validator) checkProduce(a Action, c *Company) error {
	in, out := a.MaterialToWIP, a.WIPToProduct
	if in < 0 || out < 0 || in+out == 0 {
		return fmt.Errorf("%w: in=%d out=%d", ErrInvalidQuantity, in, out)
	}
	if in > c.Materials || out > c.WIP {
		return fmt.Errorf("%w: materials %d wip %d", ErrInsufficientStock, c.Materials, c.WIP)
	}
	if c.WIP-out+in > v.cfg.WIPCap {
		return fmt.Errorf("%w: %d", ErrWIPCap, c.WIP-out+in)
	}
	if c.Products+out > StorageCapacity(v.cfg, c) {
		return fmt.Errorf("%w: products %d+%d", ErrStorageCapacity, c.Products, out)
	}
	if capacity := ManufacturingCapacity(v.cfg, c); out > capacity {
		return fmt.Errorf("%w: %d > %d", ErrManufacturingCapacity, out, capacity)
	}
	return needCash(c, in*v.cfg.InputCost+out*v.cfg.CompleteCost)
}

func (v Validator) checkSell(a Action, st *GameState, c *Company) error {
	if c.Salesmen < 1 {
		return ErrNoSalesman
	}
	if a.Quantity < v.cfg.MinSaleQuantity {
		return fmt.Errorf("%w: %d", ErrBelowMinimumSale, a.Quantity)
	}
	m, err := st.Market(a.Market)
	if err != nil {
		return err
	}
	if m.Closed {
		return fmt.Errorf("%w: %s", ErrMarketClosed, m.Name)
	}
	if m.Remaining() < v.cfg.MinSaleQuantity || m.Remaining() < a.Quantity {
		return fmt.Errorf("%w: %s has %d left", ErrMarketCapacity, m.Name, m.Remaining())
	}
	if a.Quantity > c.Products {
		return fmt.Errorf("%w: %d > %d", ErrInsufficientProducts, a.Quantity, c.Products)
	}
	if capacity := SalesCapacity(c); a.Quantity > capacity {
		return fmt.Errorf("%w: %d > %d", ErrSalesCapacity, a.Quantity, capacity)
	}
	if m.Bidding && (a.Price < 1 || a.Price > m.SellPrice) {
		return fmt.Errorf("%w: %d not in [1,%d]", ErrPriceOutOfRange, a.Price, m.SellPrice)
	}
	if st.Period == v.cfg.LastPeriod && c.Inventory()-a.Quantity < v.cfg.Period5InventoryReserve {
		return fmt.Errorf("%w: inventory %d", ErrInventoryReserve, c.Inventory())
	}
	return nil
}

func (v Validator) checkHire(a Action, c *Company) error {
	if a.Workers < 0 || a.Salesmen < 0 || a.Workers+a.Salesmen == 0 {
		return fmt.Errorf("%w: workers=%d salesmen=%d", ErrInvalidQuantity, a.Workers, a.Salesmen)
	}
	if n := a.Workers + a.Salesmen; n > v.cfg.MaxHirePerRow {
		return fmt.Errorf("%w: %d > %d", ErrHireLimit, n, v.cfg.MaxHirePerRow)
	}
	return needCash(c, (a.Workers+a.Salesmen)*v.cfg.HireCost)
}

func (v Validator) checkBuyChip(a Action, st *GameState, c *Company) error {
	if !a.Chip.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidChip, a.Chip)
	}
	if c.LastChipRow == c.Row {
		return ErrChipAlreadyThisRow
	}
	if st.Period == v.cfg.FirstPeriod && a.Expedited {
		return ErrExpeditedInPeriod2
	}
	if a.Chip.FlatFee() && c.Chips.Get(a.Chip) >= 1 {
		return fmt.Errorf("%w: %s", ErrChipLimit, a.Chip)
	}
	return needCash(c, v.cfg.ChipCost(a.Chip, a.Expedited))
}

func (v Validator) checkBorrow(a Action, st *GameState, c *Company) error {
	if a.Amount <= 0 || a.Amount%v.cfg.LoanUnit != 0 {
		return fmt.Errorf("%w: %d must be a positive multiple of %d", ErrInvalidAmount, a.Amount, v.cfg.LoanUnit)
	}
	switch a.Loan {
	case LoanLong:
		if st.Phase != PhasePeriodStart {
			return ErrLongTermOutsideStart
		}
		if limit := floorPct(c.Equity, v.cfg.LongTermLimitPct); c.LongLoan+a.Amount > limit {
			return fmt.Errorf("%w: long %d+%d > %d", ErrLoanLimit, c.LongLoan, a.Amount, limit)
		}
	case LoanShort:
		if limit := floorPct(c.Equity, v.cfg.ShortTermLimitPct); c.ShortLoan+a.Amount > limit {
			return fmt.Errorf("%w: short %d+%d > %d", ErrLoanLimit, c.ShortLoan, a.Amount, limit)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLoan, a.Loan)
	}
	return nil
}

func needCash(c *Company, amount int) error {
	if c.Cash < amount {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientCash, amount, c.Cash)
	}
	return nil
}
