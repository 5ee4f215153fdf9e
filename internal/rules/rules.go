// Package rules holds the MG rulebook as an immutable configuration value.
//
// A Config is built once with Default and passed explicitly to the scheduler,
// validator, auction and settlement code. Tables are unexported and exposed
// through accessors that return copies, so a Config can be shared read-only
// across goroutines running independent games.
package rules

import (
	"errors"
	"fmt"
	"sort"
)

type MachineType string

const (
	MachineSmall MachineType = "small"
	MachineLarge MachineType = "large"
)

type ChipKind string

const (
	ChipResearch    ChipKind = "research"
	ChipEducation   ChipKind = "education"
	ChipAdvertising ChipKind = "advertising"
	ChipComputer    ChipKind = "computer"
	ChipInsurance   ChipKind = "insurance"
)

// CarryingChips are the chips bought at the normal/expedited rate and
// subject to carryover. Computer and insurance are flat-fee chips.
var CarryingChips = []ChipKind{ChipResearch, ChipEducation, ChipAdvertising}

var AllChips = []ChipKind{ChipResearch, ChipEducation, ChipAdvertising, ChipComputer, ChipInsurance}

func (k ChipKind) Valid() bool {
	switch k {
	case ChipResearch, ChipEducation, ChipAdvertising, ChipComputer, ChipInsurance:
		return true
	}
	return false
}

// FlatFee reports whether the chip is charged a flat fee instead of a
// carrying rate.
func (k ChipKind) FlatFee() bool {
	return k == ChipComputer || k == ChipInsurance
}

type RiskCategory string

const (
	RiskNone              RiskCategory = ""
	RiskClaimFee          RiskCategory = "claim_fee"
	RiskEnvironmentalFine RiskCategory = "environmental_fine"
	RiskBankruptCustomer  RiskCategory = "bankrupt_customer"
	RiskWIPSpoilage       RiskCategory = "wip_spoilage"
	RiskFire              RiskCategory = "fire"
	RiskTheft             RiskCategory = "theft"
	RiskResearchLeak      RiskCategory = "research_leak"
	RiskEducationLapse    RiskCategory = "education_lapse"
	RiskAdvertisingFlop   RiskCategory = "advertising_flop"
	RiskLabourDispute     RiskCategory = "labour_dispute"
	RiskOrderReversal     RiskCategory = "order_reversal"
	RiskSpecialOrder      RiskCategory = "special_order"
	RiskWorkerResigns     RiskCategory = "worker_resigns"
	RiskSalesmanResigns   RiskCategory = "salesman_resigns"
	RiskSystemFailure     RiskCategory = "system_failure"
	RiskResearchGrant     RiskCategory = "research_grant"
	RiskBulkOrder         RiskCategory = "bulk_order"
)

type MarketSpec struct {
	Name      string `json:"name"`
	BuyPrice  int    `json:"buy_price"`
	SellPrice int    `json:"sell_price"`
	MaxStock  int    `json:"max_stock"`
	Bidding   bool   `json:"bidding"`
}

// DiceEffect is the deterministic consequence of a period-start dice roll.
type DiceEffect struct {
	Value         int      `json:"value"`
	ClosedMarkets []string `json:"closed_markets"`
	WagePct       int      `json:"wage_pct"`
	CeilingMarket string   `json:"ceiling_market"`
	PriceCeiling  int      `json:"price_ceiling"`
	RowReduction  int      `json:"row_reduction"`
}

// Opening is the fixed starting position of every company.
type Opening struct {
	Cash      int `json:"cash"`
	Equity    int `json:"equity"`
	Workers   int `json:"workers"`
	Salesmen  int `json:"salesmen"`
	Materials int `json:"materials"`
	WIP       int `json:"wip"`
	Products  int `json:"products"`
	// Machines lists the machine types owned at game start.
	Machines []MachineType `json:"machines"`
}

// OpportunitySale describes a risk card that sells product at a premium.
type OpportunitySale struct {
	MaxQuantity int
	Price       int
}

type Config struct {
	FirstPeriod int
	LastPeriod  int
	Companies   int

	SmallMachineCost     int
	LargeMachineCost     int
	SmallMachineCapacity int
	LargeMachineCapacity int
	AttachmentCost       int
	AttachmentCapacity   int
	MaxAttachments       int

	ChipNormalCost    int
	ChipExpeditedCost int
	ComputerCost      int
	InsuranceCost     int

	BaseStorage       int
	WarehouseCapacity int
	WarehouseCost     int
	MaxWarehouses     int

	WIPCap                  int
	MinSaleQuantity         int
	MaxHirePerRow           int
	HireCost                int
	FirstRoundMaterialCap   int
	Period5InventoryReserve int
	Period2CarryoverCap     int
	ResearchCompetitiveness int
	ParentCompetitiveness   int
	MaxBidRetriesPerRow     int

	InputCost    int
	CompleteCost int

	MaterialValue int
	WIPValue      int
	ProductValue  int

	LongTermRatePct   int
	LongTermRepayPct  int
	LongTermLimitPct  int
	ShortTermRatePct  int
	ShortTermRepayPct int
	ShortTermLimitPct int
	LoanUnit          int

	TaxPct int

	VictoryEquity    int
	VictoryInventory int
	VictoryChips     int

	ClaimFee          int
	EnvironmentalFine int
	BankruptLoss      int
	InsurancePayout   int
	TheftMax          int

	RiskDeckSize   int
	DecisionTokens int
	RiskTokens     int

	opening      Opening
	rowBudget    [6]int
	baseWage     [6]int
	depreciation map[MachineType][6]int
	markets      []MarketSpec
	dice         [7]DiceEffect
	riskCards    []RiskCategory
	opportunity  map[RiskCategory]OpportunitySale
}

var (
	ErrUnknownPeriod = errors.New("unknown period")
	ErrInvalidDice   = errors.New("dice value must be between 1 and 6")
	ErrUnknownMarket = errors.New("unknown market")
)

func (c *Config) ValidPeriod(period int) bool {
	return period >= c.FirstPeriod && period <= c.LastPeriod
}

// RowBudget is the undiscounted number of rows each company may take in a period.
func (c *Config) RowBudget(period int) int {
	if !c.ValidPeriod(period) {
		return 0
	}
	return c.rowBudget[period]
}

func (c *Config) BaseWage(period int) int {
	if !c.ValidPeriod(period) {
		return 0
	}
	return c.baseWage[period]
}

func (c *Config) Depreciation(t MachineType, period int) int {
	if !c.ValidPeriod(period) {
		return 0
	}
	return c.depreciation[t][period]
}

func (c *Config) MachineCost(t MachineType) int {
	switch t {
	case MachineSmall:
		return c.SmallMachineCost
	case MachineLarge:
		return c.LargeMachineCost
	}
	return 0
}

func (c *Config) MachineCapacity(t MachineType) int {
	switch t {
	case MachineSmall:
		return c.SmallMachineCapacity
	case MachineLarge:
		return c.LargeMachineCapacity
	}
	return 0
}

// ChipCost is the cash price of one chip of kind k.
func (c *Config) ChipCost(k ChipKind, expedited bool) int {
	switch k {
	case ChipComputer:
		return c.ComputerCost
	case ChipInsurance:
		return c.InsuranceCost
	}
	if expedited {
		return c.ChipExpeditedCost
	}
	return c.ChipNormalCost
}

func (c *Config) Opening() Opening {
	out := c.opening
	out.Machines = append([]MachineType(nil), c.opening.Machines...)
	return out
}

func (c *Config) Markets() []MarketSpec {
	return append([]MarketSpec(nil), c.markets...)
}

func (c *Config) Market(name string) (MarketSpec, error) {
	for _, m := range c.markets {
		if m.Name == name {
			return m, nil
		}
	}
	return MarketSpec{}, fmt.Errorf("%w: %s", ErrUnknownMarket, name)
}

func (c *Config) Dice(value int) (DiceEffect, error) {
	if value < 1 || value > 6 {
		return DiceEffect{}, fmt.Errorf("%w: %d", ErrInvalidDice, value)
	}
	out := c.dice[value]
	out.ClosedMarkets = append([]string(nil), out.ClosedMarkets...)
	return out, nil
}

// RiskCard maps a risk card id to its category. Ids without an effect
// return RiskNone.
func (c *Config) RiskCard(id int) RiskCategory {
	if id < 1 || id > len(c.riskCards) {
		return RiskNone
	}
	return c.riskCards[id-1]
}

func (c *Config) Opportunity(cat RiskCategory) (OpportunitySale, bool) {
	o, ok := c.opportunity[cat]
	return o, ok
}

// RiskCardIDs returns the canonical risk deck.
func (c *Config) RiskCardIDs() []int {
	out := make([]int, c.RiskDeckSize)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Validate is the startup self-check of the rule tables.
func (c *Config) Validate() error {
	var errs []error
	if c.Companies < 2 {
		errs = append(errs, fmt.Errorf("companies must be >= 2, got %d", c.Companies))
	}
	for p := c.FirstPeriod; p <= c.LastPeriod; p++ {
		if c.rowBudget[p] <= 0 {
			errs = append(errs, fmt.Errorf("period %d: row budget missing", p))
		}
		if c.baseWage[p] <= 0 {
			errs = append(errs, fmt.Errorf("period %d: base wage missing", p))
		}
		for _, t := range []MachineType{MachineSmall, MachineLarge} {
			if c.depreciation[t][p] <= 0 {
				errs = append(errs, fmt.Errorf("period %d: %s depreciation missing", p, t))
			}
		}
	}
	if c.DecisionTokens+c.RiskTokens != 75 {
		errs = append(errs, fmt.Errorf("decision deck must hold 75 tokens, got %d", c.DecisionTokens+c.RiskTokens))
	}
	if c.RiskDeckSize != 64 || len(c.riskCards) != c.RiskDeckSize {
		errs = append(errs, fmt.Errorf("risk deck must hold 64 mapped cards, got size=%d table=%d", c.RiskDeckSize, len(c.riskCards)))
	}
	names := make(map[string]struct{}, len(c.markets))
	for _, m := range c.markets {
		if _, dup := names[m.Name]; dup {
			errs = append(errs, fmt.Errorf("market %s defined twice", m.Name))
		}
		names[m.Name] = struct{}{}
		if m.MaxStock < c.MinSaleQuantity {
			errs = append(errs, fmt.Errorf("market %s: max stock %d below minimum sale", m.Name, m.MaxStock))
		}
		if m.BuyPrice <= 0 || m.SellPrice <= 0 {
			errs = append(errs, fmt.Errorf("market %s: prices must be positive", m.Name))
		}
	}
	for v := 1; v <= 6; v++ {
		d := c.dice[v]
		if d.WagePct < 100 {
			errs = append(errs, fmt.Errorf("dice %d: wage multiplier below 100%%", v))
		}
		for _, name := range append(append([]string(nil), d.ClosedMarkets...), d.CeilingMarket) {
			if _, ok := names[name]; !ok {
				errs = append(errs, fmt.Errorf("dice %d: unknown market %q", v, name))
			}
		}
	}
	for cat := range c.opportunity {
		if c.opportunity[cat].MaxQuantity <= 0 || c.opportunity[cat].Price <= 0 {
			errs = append(errs, fmt.Errorf("opportunity %s: invalid parameters", cat))
		}
	}
	if len(c.opening.Machines) == 0 {
		errs = append(errs, errors.New("opening position needs at least one machine"))
	}
	return errors.Join(errs...)
}

// RiskCategories lists every category present in the card table, sorted.
func (c *Config) RiskCategories() []RiskCategory {
	seen := map[RiskCategory]struct{}{}
	for _, cat := range c.riskCards {
		if cat != RiskNone {
			seen[cat] = struct{}{}
		}
	}
	out := make([]RiskCategory, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
