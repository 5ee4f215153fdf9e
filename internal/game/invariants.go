package game

import (
	"fmt"

	"mgsim/internal/rules"
)

// CheckCompany verifies the stock, chip and loan invariants of one company.
func CheckCompany(cfg *rules.Config, st *GameState, id CompanyID) error {
	c := st.Company(id)
	if c == nil {
		return fmt.Errorf("%w: company %d", ErrUnknownCompany, id)
	}
	fail := func(rule, format string, args ...any) error {
		return &InvariantError{
			Rule:    rule,
			Company: id,
			Period:  st.Period,
			Row:     c.Row,
			Detail:  fmt.Sprintf(format, args...),
		}
	}

	storage := StorageCapacity(cfg, c)
	switch {
	case c.Materials < 0 || c.WIP < 0 || c.Products < 0:
		return fail("stock-non-negative", "materials=%d wip=%d products=%d", c.Materials, c.WIP, c.Products)
	case c.Materials > storage || c.Products > storage:
		return fail("storage-capacity", "materials=%d products=%d capacity=%d", c.Materials, c.Products, storage)
	case c.WIP > cfg.WIPCap:
		return fail("wip-cap", "wip=%d cap=%d", c.WIP, cfg.WIPCap)
	case c.Workers < 0 || c.Salesmen < 0:
		return fail("personnel-non-negative", "workers=%d salesmen=%d", c.Workers, c.Salesmen)
	case len(c.Machines) == 0:
		return fail("machine-required", "no machines")
	case c.LongLoan < 0 || c.ShortLoan < 0:
		return fail("loan-non-negative", "long=%d short=%d", c.LongLoan, c.ShortLoan)
	case c.Warehouses < 0 || c.Warehouses > cfg.MaxWarehouses:
		return fail("warehouse-limit", "warehouses=%d", c.Warehouses)
	case st.Phase == PhaseTurns && c.Row > st.RowLimit:
		return fail("row-budget", "row=%d limit=%d", c.Row, st.RowLimit)
	}
	for _, k := range rules.AllChips {
		if c.Chips.Get(k) < 0 || c.NextChips.Get(k) < 0 {
			return fail("chip-non-negative", "%s held=%d next=%d", k, c.Chips.Get(k), c.NextChips.Get(k))
		}
		if k.FlatFee() && c.Chips.Get(k) > 1 {
			return fail("flat-chip-limit", "%s held=%d", k, c.Chips.Get(k))
		}
	}
	for i, m := range c.Machines {
		if m.Attachments < 0 || m.Attachments > cfg.MaxAttachments || (m.Type != rules.MachineSmall && m.Attachments > 0) {
			return fail("attachment-limit", "machine %d (%s) attachments=%d", i, m.Type, m.Attachments)
		}
	}
	return nil
}

// CheckMarkets verifies that no market sold past its per-period maximum.
func CheckMarkets(st *GameState) error {
	for _, m := range st.Markets {
		if m.Stock < 0 || m.Stock > m.MaxStock || m.MaterialsSold > m.MaxStock {
			return &InvariantError{
				Rule:    "market-stock",
				Company: -1,
				Period:  st.Period,
				Row:     st.Turn,
				Detail:  fmt.Sprintf("%s stock=%d materials=%d max=%d", m.Name, m.Stock, m.MaterialsSold, m.MaxStock),
			}
		}
	}
	return nil
}
