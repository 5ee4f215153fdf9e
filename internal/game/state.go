package game

import (
	"fmt"
	"math/rand"

	"mgsim/internal/rules"
)

// CompanyID addresses a company in GameState.Companies.
type CompanyID int

// ChipHistory counts this period's chip purchases by rate.
type ChipHistory struct {
	Normal    ChipSet `json:"normal"`
	Expedited ChipSet `json:"expedited"`
}

// PeriodBook accumulates the figures settlement needs. Reset every period.
type PeriodBook struct {
	Sales            int `json:"sales"`
	Purchases        int `json:"purchases"`
	ProductionCost   int `json:"production_cost"`
	OpeningInventory int `json:"opening_inventory"`
	InventoryLost    int `json:"inventory_lost"`
	RiskFixed        int `json:"risk_fixed"`
	Hiring           int `json:"hiring"`
	WarehousesBought int `json:"warehouses_bought"`
	SpecialLoss      int `json:"special_loss"`
	PeakPersonnel    int `json:"peak_personnel"`
}

type Company struct {
	ID       CompanyID `json:"id"`
	Name     string    `json:"name"`
	Strategy string    `json:"strategy,omitempty"`

	Cash   int `json:"cash"`
	Equity int `json:"equity"`

	Materials int `json:"materials"`
	WIP       int `json:"wip"`
	Products  int `json:"products"`

	Workers    int       `json:"workers"`
	Salesmen   int       `json:"salesmen"`
	Machines   []Machine `json:"machines"`
	Warehouses int       `json:"warehouses"`

	Chips       ChipSet `json:"chips"`
	NextChips   ChipSet `json:"next_chips"`
	CarriedOver int     `json:"carried_over"`

	LongLoan  int `json:"long_loan"`
	ShortLoan int `json:"short_loan"`

	Row    int `json:"row"`
	Period int `json:"period"`

	TotalSales       int `json:"total_sales"`
	TotalQuantity    int `json:"total_quantity"`
	TotalFixedCost   int `json:"total_fixed_cost"`
	TotalSpecialLoss int `json:"total_special_loss"`

	Book         PeriodBook  `json:"book"`
	History      ChipHistory `json:"history"`
	PendingSkips int         `json:"pending_skips"`
	BidRetries   int         `json:"bid_retries"`
	LastChipRow  int         `json:"last_chip_row"`

	Log []LogEntry `json:"log"`
}

func (c *Company) Inventory() int { return c.Materials + c.WIP + c.Products }

func (c *Company) Personnel() int { return c.Workers + c.Salesmen }

func (c *Company) InventoryValue(cfg *rules.Config) int {
	return c.Materials*cfg.MaterialValue + c.WIP*cfg.WIPValue + c.Products*cfg.ProductValue
}

func (c *Company) snapshot() Snapshot {
	return Snapshot{
		Cash:       c.Cash,
		Materials:  c.Materials,
		WIP:        c.WIP,
		Products:   c.Products,
		Warehouses: c.Warehouses,
	}
}

func (c *Company) record(cat LogCategory, action ActionType, amount int, format string, args ...any) {
	c.Log = append(c.Log, LogEntry{
		Row:      c.Row,
		Period:   c.Period,
		Category: cat,
		Action:   action,
		Detail:   fmt.Sprintf(format, args...),
		Amount:   amount,
		Stock:    c.snapshot(),
	})
}

func (c *Company) touchPersonnel() {
	if p := c.Personnel(); p > c.Book.PeakPersonnel {
		c.Book.PeakPersonnel = p
	}
}

type Market struct {
	Name          string `json:"name"`
	BuyPrice      int    `json:"buy_price"`
	SellPrice     int    `json:"sell_price"`
	MaxStock      int    `json:"max_stock"`
	Stock         int    `json:"stock"`
	MaterialsSold int    `json:"materials_sold"`
	Closed        bool   `json:"closed"`
	Bidding       bool   `json:"bidding"`
}

func (m *Market) Remaining() int { return m.MaxStock - m.Stock }

// DiceModifiers are the period-wide effects of the dice roll.
type DiceModifiers struct {
	Value         int      `json:"value"`
	ClosedMarkets []string `json:"closed_markets,omitempty"`
	WagePct       int      `json:"wage_pct"`
	RowReduction  int      `json:"row_reduction"`
	CeilingMarket string   `json:"ceiling_market,omitempty"`
	PriceCeiling  int      `json:"price_ceiling,omitempty"`
}

type GameState struct {
	Period     int           `json:"period"`
	Phase      Phase         `json:"phase"`
	Turn       int           `json:"turn"`
	Parent     CompanyID     `json:"parent"`
	Companies  []Company     `json:"companies"`
	Markets    []Market      `json:"markets"`
	Dice       DiceModifiers `json:"dice"`
	RowLimit   int           `json:"row_limit"`
	FirstRound bool          `json:"first_round"`
	Reversed   bool          `json:"reversed"`

	RiskDeck     *Deck[int]   `json:"-"`
	DecisionDeck *Deck[Token] `json:"-"`

	rng *rand.Rand
}

// NewGame seats one company per name at the opening position.
func NewGame(cfg *rules.Config, names []string, rng *rand.Rand) (*GameState, error) {
	if len(names) == 0 {
		return nil, ErrNoCompanies
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidOption)
	}
	open := cfg.Opening()
	st := &GameState{
		Period:       cfg.FirstPeriod,
		Phase:        PhasePeriodStart,
		Companies:    make([]Company, len(names)),
		FirstRound:   true,
		Dice:         DiceModifiers{WagePct: 100},
		RowLimit:     cfg.RowBudget(cfg.FirstPeriod),
		RiskDeck:     NewDeck(cfg.RiskCardIDs(), rng),
		DecisionDeck: NewDeck(decisionTokens(cfg.DecisionTokens, cfg.RiskTokens), rng),
		rng:          rng,
	}
	for i, name := range names {
		c := Company{
			ID:          CompanyID(i),
			Name:        name,
			Cash:        open.Cash,
			Equity:      open.Equity,
			Materials:   open.Materials,
			WIP:         open.WIP,
			Products:    open.Products,
			Workers:     open.Workers,
			Salesmen:    open.Salesmen,
			Period:      cfg.FirstPeriod,
			LastChipRow: -1,
		}
		for _, t := range open.Machines {
			c.Machines = append(c.Machines, Machine{Type: t, BookValue: cfg.MachineCost(t)})
		}
		c.Book = PeriodBook{
			OpeningInventory: c.InventoryValue(cfg),
			PeakPersonnel:    c.Personnel(),
		}
		st.Companies[i] = c
	}
	st.resetMarkets(cfg)
	return st, nil
}

func (st *GameState) Rand() *rand.Rand { return st.rng }

func (st *GameState) Company(id CompanyID) *Company {
	if int(id) < 0 || int(id) >= len(st.Companies) {
		return nil
	}
	return &st.Companies[id]
}

func (st *GameState) Market(name string) (*Market, error) {
	for i := range st.Markets {
		if st.Markets[i].Name == name {
			return &st.Markets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMarket, name)
}

func (st *GameState) IsParent(id CompanyID) bool { return st.Parent == id }

// TurnOrder is a rotation of company ids starting at the parent. Reversed
// order walks downwards from the parent.
func (st *GameState) TurnOrder() []CompanyID {
	n := len(st.Companies)
	out := make([]CompanyID, n)
	for i := 0; i < n; i++ {
		step := i
		if st.Reversed {
			step = -i
		}
		out[i] = CompanyID(((int(st.Parent)+step)%n + n) % n)
	}
	return out
}

func (st *GameState) RotateParent() {
	st.Parent = CompanyID((int(st.Parent) + 1) % len(st.Companies))
}

// RowBudget is the number of rows each company gets this period after
// the dice reduction.
func (st *GameState) RowBudget() int { return st.RowLimit }

// PeriodDone reports whether every company has used its row budget.
func (st *GameState) PeriodDone() bool {
	for i := range st.Companies {
		if st.Companies[i].Row < st.RowLimit {
			return false
		}
	}
	return true
}

// ApplyDice rolls (or takes forced) dice for periods after the first and
// applies closures, the wage multiplier, the price ceiling and the row
// reduction. It returns the dice value, 0 for the first period.
func (st *GameState) ApplyDice(cfg *rules.Config, period int, forced int) (int, error) {
	st.resetMarkets(cfg)
	st.Dice = DiceModifiers{WagePct: 100}
	st.RowLimit = cfg.RowBudget(period)
	if period <= cfg.FirstPeriod {
		return 0, nil
	}
	value := forced
	if value == 0 {
		value = st.rng.Intn(6) + 1
	}
	effect, err := cfg.Dice(value)
	if err != nil {
		return 0, err
	}
	st.Dice = DiceModifiers{
		Value:         value,
		ClosedMarkets: effect.ClosedMarkets,
		WagePct:       effect.WagePct,
		RowReduction:  effect.RowReduction,
		CeilingMarket: effect.CeilingMarket,
		PriceCeiling:  effect.PriceCeiling,
	}
	st.RowLimit -= effect.RowReduction
	for _, name := range effect.ClosedMarkets {
		if m, err := st.Market(name); err == nil {
			m.Closed = true
		}
	}
	if m, err := st.Market(effect.CeilingMarket); err == nil && effect.PriceCeiling < m.SellPrice {
		m.SellPrice = effect.PriceCeiling
	}
	return value, nil
}

func (st *GameState) resetMarkets(cfg *rules.Config) {
	specs := cfg.Markets()
	st.Markets = make([]Market, len(specs))
	for i, m := range specs {
		st.Markets[i] = Market{
			Name:      m.Name,
			BuyPrice:  m.BuyPrice,
			SellPrice: m.SellPrice,
			MaxStock:  m.MaxStock,
			Bidding:   m.Bidding,
		}
	}
}
