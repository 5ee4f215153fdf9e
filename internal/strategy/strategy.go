// Package strategy contains the heuristic decision provider used to play
// full games without a human at the table.
package strategy

import (
	"fmt"
	"strings"

	"mgsim/internal/game"
)

// Strategy is a closed set of play styles. Each variant carries its own
// parameters; the provider turns them into a plan with planFor.
type Strategy interface {
	Name() string
	isStrategy()
}

// ResearchFocused buys research chips early to win auctions on price
// competitiveness and bids close to the market price.
type ResearchFocused struct {
	TargetResearch int
	BidDiscount    int
}

// SalesFocused staffs up salesmen and advertising to move volume.
type SalesFocused struct {
	TargetSalesmen    int
	TargetAdvertising int
	BidDiscount       int
}

// LowChip avoids chips entirely and keeps a cash cushion.
type LowChip struct {
	CashReserve int
	BidDiscount int
}

type Balanced struct {
	TargetResearch    int
	TargetAdvertising int
	TargetWorkers     int
}

// Aggressive borrows to buy a large machine and undercuts every auction.
type Aggressive struct {
	BorrowPct   int
	BidDiscount int
}

// PlayerDefault is the seat given to a human player when games are run
// without one.
type PlayerDefault struct{}

func (ResearchFocused) Name() string { return "research_focused" }
func (SalesFocused) Name() string    { return "sales_focused" }
func (LowChip) Name() string         { return "low_chip" }
func (Balanced) Name() string        { return "balanced" }
func (Aggressive) Name() string      { return "aggressive" }
func (PlayerDefault) Name() string   { return "player_default" }

func (ResearchFocused) isStrategy() {}
func (SalesFocused) isStrategy()    {}
func (LowChip) isStrategy()         {}
func (Balanced) isStrategy()        {}
func (Aggressive) isStrategy()      {}
func (PlayerDefault) isStrategy()   {}

// Roster returns one instance of every strategy with its standard
// parameters, in a fixed order.
func Roster() []Strategy {
	return []Strategy{
		ResearchFocused{TargetResearch: 3, BidDiscount: 2},
		SalesFocused{TargetSalesmen: 3, TargetAdvertising: 2, BidDiscount: 4},
		LowChip{CashReserve: 40, BidDiscount: 6},
		Balanced{TargetResearch: 1, TargetAdvertising: 1, TargetWorkers: 2},
		Aggressive{BorrowPct: 50, BidDiscount: 8},
		PlayerDefault{},
	}
}

// Parse returns the roster strategy with the given name.
func Parse(name string) (Strategy, error) {
	for _, s := range Roster() {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Seats resolves one strategy per seat from names. Seats without a name
// follow the roster order.
func Seats(names []string, companies int) ([]Strategy, error) {
	if len(names) > companies {
		return nil, fmt.Errorf("%w: %d strategies for %d seats", game.ErrInvalidOption, len(names), companies)
	}
	roster := Roster()
	seats := make([]Strategy, companies)
	for i := range seats {
		if i < len(names) && strings.TrimSpace(names[i]) != "" {
			st, err := Parse(strings.TrimSpace(names[i]))
			if err != nil {
				return nil, err
			}
			seats[i] = st
			continue
		}
		seats[i] = roster[i%len(roster)]
	}
	return seats, nil
}

func Names() []string {
	roster := Roster()
	out := make([]string, len(roster))
	for i, s := range roster {
		out[i] = s.Name()
	}
	return out
}

// plan is the flattened form of a strategy that the provider works from.
type plan struct {
	research     int
	education    int
	advertising  int
	computer     bool
	insurance    bool
	workers      int
	salesmen     int
	warehouses   int
	largeMachine bool
	reserve      int
	discount     int
	longLoanPct  int
	joinBids     bool
	carryChips   bool
}

func planFor(s Strategy) plan {
	switch s := s.(type) {
	case ResearchFocused:
		return plan{research: s.TargetResearch, workers: 1, salesmen: 2, reserve: 20, discount: s.BidDiscount, joinBids: true, carryChips: true}
	case SalesFocused:
		return plan{advertising: s.TargetAdvertising, workers: 1, salesmen: s.TargetSalesmen, warehouses: 1, reserve: 20, discount: s.BidDiscount, joinBids: true, carryChips: true}
	case LowChip:
		return plan{workers: 1, salesmen: 1, reserve: s.CashReserve, discount: s.BidDiscount}
	case Balanced:
		return plan{research: s.TargetResearch, advertising: s.TargetAdvertising, education: 1, insurance: true, workers: s.TargetWorkers, salesmen: 2, reserve: 30, discount: 3, joinBids: true, carryChips: true}
	case Aggressive:
		return plan{research: 1, computer: true, workers: 2, salesmen: 2, warehouses: 2, largeMachine: true, reserve: 10, discount: s.BidDiscount, longLoanPct: s.BorrowPct, joinBids: true, carryChips: true}
	case PlayerDefault:
		return plan{research: 1, workers: 1, salesmen: 1, reserve: 20, discount: 2, carryChips: true}
	}
	panic(fmt.Sprintf("strategy: unhandled variant %T", s))
}
