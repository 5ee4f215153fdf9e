package rules

// PeriodSheet is the per-period part of the rulebook.
type PeriodSheet struct {
	Period            int `json:"period"`
	RowBudget         int `json:"row_budget"`
	BaseWage          int `json:"base_wage"`
	SmallDepreciation int `json:"small_depreciation"`
	LargeDepreciation int `json:"large_depreciation"`
}

// RiskRange is a run of consecutive risk card ids sharing a category.
type RiskRange struct {
	From     int          `json:"from"`
	To       int          `json:"to"`
	Category RiskCategory `json:"category"`
}

// Sheet is a printable, serialisable view of a Config.
type Sheet struct {
	Companies     int           `json:"companies"`
	Periods       []PeriodSheet `json:"periods"`
	Markets       []MarketSpec  `json:"markets"`
	Dice          []DiceEffect  `json:"dice"`
	Risk          []RiskRange   `json:"risk"`
	Opening       Opening       `json:"opening"`
	WIPCap        int           `json:"wip_cap"`
	BaseStorage   int           `json:"base_storage"`
	TaxPct        int           `json:"tax_pct"`
	VictoryEquity int           `json:"victory_equity"`
	VictoryStock  int           `json:"victory_inventory"`
	VictoryChips  int           `json:"victory_chips"`
}

func (c *Config) Sheet() Sheet {
	s := Sheet{
		Companies:     c.Companies,
		Markets:       c.Markets(),
		Opening:       c.Opening(),
		WIPCap:        c.WIPCap,
		BaseStorage:   c.BaseStorage,
		TaxPct:        c.TaxPct,
		VictoryEquity: c.VictoryEquity,
		VictoryStock:  c.VictoryInventory,
		VictoryChips:  c.VictoryChips,
	}
	for p := c.FirstPeriod; p <= c.LastPeriod; p++ {
		s.Periods = append(s.Periods, PeriodSheet{
			Period:            p,
			RowBudget:         c.RowBudget(p),
			BaseWage:          c.BaseWage(p),
			SmallDepreciation: c.Depreciation(MachineSmall, p),
			LargeDepreciation: c.Depreciation(MachineLarge, p),
		})
	}
	for v := 1; v <= 6; v++ {
		if d, err := c.Dice(v); err == nil {
			s.Dice = append(s.Dice, d)
		}
	}
	for id := 1; id <= c.RiskDeckSize; id++ {
		cat := c.RiskCard(id)
		if n := len(s.Risk); n > 0 && s.Risk[n-1].Category == cat && s.Risk[n-1].To == id-1 {
			s.Risk[n-1].To = id
			continue
		}
		s.Risk = append(s.Risk, RiskRange{From: id, To: id, Category: cat})
	}
	return s
}
