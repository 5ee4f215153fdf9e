package game

import (
	"mgsim/internal/rules"
)

type ActionType string

const (
	ActionNothing       ActionType = "nothing"
	ActionBuyMaterials  ActionType = "buy_materials"
	ActionProduce       ActionType = "produce"
	ActionSell          ActionType = "sell"
	ActionHire          ActionType = "hire"
	ActionBuyChip       ActionType = "buy_chip"
	ActionBuyMachine    ActionType = "buy_machine"
	ActionSellMachine   ActionType = "sell_machine"
	ActionBuyAttachment ActionType = "buy_attachment"
	ActionBuyWarehouse  ActionType = "buy_warehouse"
	ActionBorrow        ActionType = "borrow"
	ActionRepay         ActionType = "repay"
)

type LoanKind string

const (
	LoanLong  LoanKind = "long"
	LoanShort LoanKind = "short"
)

// Action is a proposal from a decision provider. Only the fields relevant
// to Type are read.
type Action struct {
	Type ActionType `json:"type"`

	Market   string `json:"market,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
	Price    int    `json:"price,omitempty"`

	MaterialToWIP int `json:"material_to_wip,omitempty"`
	WIPToProduct  int `json:"wip_to_product,omitempty"`

	Workers  int `json:"workers,omitempty"`
	Salesmen int `json:"salesmen,omitempty"`

	Chip      rules.ChipKind `json:"chip,omitempty"`
	Expedited bool           `json:"expedited,omitempty"`

	Machine      rules.MachineType `json:"machine,omitempty"`
	MachineIndex int               `json:"machine_index,omitempty"`

	Loan   LoanKind `json:"loan,omitempty"`
	Amount int      `json:"amount,omitempty"`
}

func Nothing() Action { return Action{Type: ActionNothing} }

type Phase string

const (
	PhasePeriodStart Phase = "period_start"
	PhaseTurns       Phase = "turns"
	PhaseSettlement  Phase = "settlement"
	PhaseFinished    Phase = "finished"
)

type LogCategory string

const (
	LogDecision   LogCategory = "decision"
	LogRisk       LogCategory = "risk"
	LogRejected   LogCategory = "rejected"
	LogSale       LogCategory = "sale"
	LogBidLost    LogCategory = "bid_lost"
	LogSettlement LogCategory = "settlement"
	LogSkip       LogCategory = "skip"
)

// Snapshot is the stock position recorded with every log entry.
type Snapshot struct {
	Cash       int `json:"cash"`
	Materials  int `json:"materials"`
	WIP        int `json:"wip"`
	Products   int `json:"products"`
	Warehouses int `json:"warehouses"`
}

type LogEntry struct {
	Row      int         `json:"row"`
	Period   int         `json:"period"`
	Category LogCategory `json:"category"`
	Action   ActionType  `json:"action,omitempty"`
	Detail   string      `json:"detail"`
	Amount   int         `json:"amount"`
	Stock    Snapshot    `json:"stock"`
}

type ChipSet struct {
	Research    int `json:"research"`
	Education   int `json:"education"`
	Advertising int `json:"advertising"`
	Computer    int `json:"computer"`
	Insurance   int `json:"insurance"`
}

func (s ChipSet) Get(k rules.ChipKind) int {
	switch k {
	case rules.ChipResearch:
		return s.Research
	case rules.ChipEducation:
		return s.Education
	case rules.ChipAdvertising:
		return s.Advertising
	case rules.ChipComputer:
		return s.Computer
	case rules.ChipInsurance:
		return s.Insurance
	}
	return 0
}

func (s *ChipSet) Set(k rules.ChipKind, n int) {
	switch k {
	case rules.ChipResearch:
		s.Research = n
	case rules.ChipEducation:
		s.Education = n
	case rules.ChipAdvertising:
		s.Advertising = n
	case rules.ChipComputer:
		s.Computer = n
	case rules.ChipInsurance:
		s.Insurance = n
	}
}

func (s *ChipSet) Add(k rules.ChipKind, n int) {
	s.Set(k, s.Get(k)+n)
}

// Carrying is the number of research, education and advertising chips.
func (s ChipSet) Carrying() int {
	return s.Research + s.Education + s.Advertising
}

type Machine struct {
	Type        rules.MachineType `json:"type"`
	Attachments int               `json:"attachments"`
	BookValue   int               `json:"book_value"`
}

// Settlement is one company's period-end breakdown.
type Settlement struct {
	Company CompanyID `json:"company"`
	Name    string    `json:"name"`
	Period  int       `json:"period"`

	Wage         int `json:"wage"`
	Depreciation int `json:"depreciation"`
	ChipFees     int `json:"chip_fees"`
	ChipCost     int `json:"chip_cost"`
	WarehouseFee int `json:"warehouse_fee"`
	Interest     int `json:"interest"`
	RiskFixed    int `json:"risk_fixed"`
	Hiring       int `json:"hiring"`
	F            int `json:"f"`

	PQ          int `json:"pq"`
	VQ          int `json:"vq"`
	MQ          int `json:"mq"`
	SpecialLoss int `json:"special_loss"`
	G           int `json:"g"`
	Tax         int `json:"tax"`

	EquityBefore int `json:"equity_before"`
	EquityAfter  int `json:"equity_after"`
	CashAfter    int `json:"cash_after"`

	LongRepaid       int `json:"long_repaid"`
	ShortRepaid      int `json:"short_repaid"`
	AutoLoan         int `json:"auto_loan"`
	CarriedOver      int `json:"carried_over"`
	ScrappedMaterial int `json:"scrapped_material"`
	ScrappedProducts int `json:"scrapped_products"`
}

// FixedCosts is F without risk and hiring items: wages, depreciation and
// flat chip fees.
func (s Settlement) FixedCosts() int {
	return s.Wage + s.Depreciation + s.ChipFees
}

type PeriodResult struct {
	Period      int          `json:"period"`
	Dice        int          `json:"dice"`
	Settlements []Settlement `json:"settlements"`
}

type Standing struct {
	Company     CompanyID `json:"company"`
	Name        string    `json:"name"`
	Equity      int       `json:"equity"`
	Inventory   int       `json:"inventory"`
	CarriedOver int       `json:"carried_over"`
	Qualified   bool      `json:"qualified"`
}

type CompanyLog struct {
	Company CompanyID  `json:"company"`
	Name    string     `json:"name"`
	Entries []LogEntry `json:"entries"`
}

type SimulationResult struct {
	ID            string         `json:"id"`
	Seed          int64          `json:"seed"`
	HumanSeat     int            `json:"human_seat"`
	Periods       []PeriodResult `json:"periods"`
	Ranking       []Standing     `json:"ranking"`
	Logs          []CompanyLog   `json:"logs,omitempty"`
	Winner        Standing       `json:"winner"`
	WinnerWarning bool           `json:"winner_warning"`
	Rows          int            `json:"rows"`
	RiskDraws     int            `json:"risk_draws"`
	Reshuffles    int            `json:"reshuffles"`
}
