package rules

// Default returns the standard MG rulebook. Each call builds a fresh value.
func Default() *Config {
	c := &Config{
		FirstPeriod: 2,
		LastPeriod:  5,
		Companies:   6,

		SmallMachineCost:     100,
		LargeMachineCost:     200,
		SmallMachineCapacity: 1,
		LargeMachineCapacity: 4,
		AttachmentCost:       20,
		AttachmentCapacity:   1,
		MaxAttachments:       1,

		ChipNormalCost:    20,
		ChipExpeditedCost: 40,
		ComputerCost:      20,
		InsuranceCost:     5,

		BaseStorage:       20,
		WarehouseCapacity: 12,
		WarehouseCost:     20,
		MaxWarehouses:     2,

		WIPCap:                  10,
		MinSaleQuantity:         2,
		MaxHirePerRow:           3,
		HireCost:                5,
		FirstRoundMaterialCap:   3,
		Period5InventoryReserve: 10,
		Period2CarryoverCap:     3,
		ResearchCompetitiveness: 2,
		ParentCompetitiveness:   2,
		MaxBidRetriesPerRow:     3,

		InputCost:    1,
		CompleteCost: 1,

		MaterialValue: 10,
		WIPValue:      11,
		ProductValue:  12,

		LongTermRatePct:   10,
		LongTermRepayPct:  10,
		LongTermLimitPct:  50,
		ShortTermRatePct:  20,
		ShortTermRepayPct: 20,
		ShortTermLimitPct: 50,
		LoanUnit:          10,

		TaxPct: 50,

		VictoryEquity:    450,
		VictoryInventory: 10,
		VictoryChips:     3,

		ClaimFee:          5,
		EnvironmentalFine: 10,
		BankruptLoss:      20,
		InsurancePayout:   8,
		TheftMax:          2,

		RiskDeckSize:   64,
		DecisionTokens: 60,
		RiskTokens:     15,

		opening: Opening{
			Cash:      112,
			Equity:    283,
			Workers:   1,
			Salesmen:  1,
			Materials: 1,
			WIP:       2,
			Products:  1,
			Machines:  []MachineType{MachineSmall},
		},
		rowBudget: [6]int{2: 20, 3: 30, 4: 34, 5: 35},
		baseWage:  [6]int{2: 10, 3: 11, 4: 12, 5: 13},
		depreciation: map[MachineType][6]int{
			MachineSmall: {2: 10, 3: 20, 4: 20, 5: 20},
			MachineLarge: {2: 20, 3: 40, 4: 40, 5: 40},
		},
		markets: []MarketSpec{
			{Name: "sendai", BuyPrice: 10, SellPrice: 40, MaxStock: 3, Bidding: true},
			{Name: "sapporo", BuyPrice: 11, SellPrice: 36, MaxStock: 4, Bidding: true},
			{Name: "fukuoka", BuyPrice: 12, SellPrice: 32, MaxStock: 6, Bidding: true},
			{Name: "nagoya", BuyPrice: 13, SellPrice: 28, MaxStock: 9, Bidding: true},
			{Name: "osaka", BuyPrice: 14, SellPrice: 24, MaxStock: 13, Bidding: true},
			{Name: "tokyo", BuyPrice: 15, SellPrice: 20, MaxStock: 20, Bidding: true},
			{Name: "overseas", BuyPrice: 16, SellPrice: 16, MaxStock: 100, Bidding: false},
		},
		opportunity: map[RiskCategory]OpportunitySale{
			RiskSpecialOrder: {MaxQuantity: 2, Price: 32},
			RiskBulkOrder:    {MaxQuantity: 3, Price: 28},
		},
	}

	for v := 1; v <= 6; v++ {
		d := DiceEffect{
			Value:         v,
			CeilingMarket: "osaka",
			PriceCeiling:  20 + v,
		}
		if v <= 3 {
			d.ClosedMarkets = []string{"sendai"}
			d.WagePct = 110
		} else {
			d.ClosedMarkets = []string{"sendai", "sapporo"}
			d.WagePct = 120
		}
		switch v {
		case 5:
			d.RowReduction = 1
		case 6:
			d.RowReduction = 2
		}
		c.dice[v] = d
	}

	c.riskCards = make([]RiskCategory, c.RiskDeckSize)
	for _, r := range riskRanges {
		for id := r.from; id <= r.to; id++ {
			c.riskCards[id-1] = r.cat
		}
	}
	return c
}

var riskRanges = []struct {
	from, to int
	cat      RiskCategory
}{
	{1, 4, RiskClaimFee},
	{5, 8, RiskEnvironmentalFine},
	{9, 12, RiskBankruptCustomer},
	{13, 16, RiskWIPSpoilage},
	{17, 19, RiskFire},
	{20, 22, RiskTheft},
	{23, 25, RiskResearchLeak},
	{26, 28, RiskEducationLapse},
	{29, 31, RiskAdvertisingFlop},
	{32, 35, RiskLabourDispute},
	{36, 38, RiskOrderReversal},
	{39, 44, RiskSpecialOrder},
	{45, 47, RiskWorkerResigns},
	{48, 50, RiskSalesmanResigns},
	{51, 53, RiskSystemFailure},
	{54, 56, RiskResearchGrant},
	{57, 60, RiskBulkOrder},
}
