package game

import (
	"sort"

	"mgsim/internal/rules"
)

func machineCapacity(cfg *rules.Config, m Machine) int {
	return cfg.MachineCapacity(m.Type) + m.Attachments*cfg.AttachmentCapacity
}

// ManufacturingCapacity is the number of units the company can complete in
// one action. Only machines with an operating worker count, largest first.
func ManufacturingCapacity(cfg *rules.Config, c *Company) int {
	caps := make([]int, len(c.Machines))
	for i, m := range c.Machines {
		caps[i] = machineCapacity(cfg, m)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(caps)))
	operating := min(len(caps), c.Workers)
	total := 0
	for _, v := range caps[:operating] {
		total += v
	}
	if c.Chips.Computer > 0 {
		total += operating
	}
	if c.Chips.Education > 0 {
		total++
	}
	return total
}

func SalesCapacity(c *Company) int {
	return c.Salesmen*2 + min(c.Chips.Advertising, c.Salesmen*2)*2 + min(c.Chips.Education, 1)
}

// StorageCapacity applies separately to materials and to products.
func StorageCapacity(cfg *rules.Config, c *Company) int {
	return cfg.BaseStorage + c.Warehouses*cfg.WarehouseCapacity
}

func PriceCompetitiveness(cfg *rules.Config, st *GameState, id CompanyID) int {
	c := st.Company(id)
	if c == nil {
		return 0
	}
	v := c.Chips.Research * cfg.ResearchCompetitiveness
	if st.IsParent(id) {
		v += cfg.ParentCompetitiveness
	}
	return v
}
