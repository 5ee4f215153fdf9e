package game

import (
	"math/rand"
	"sort"

	"mgsim/internal/rules"
)

// Bid is one company's attempt to sell at a market in the current row.
type Bid struct {
	Company   CompanyID `json:"company"`
	Price     int       `json:"price"`
	Quantity  int       `json:"quantity"`
	Initiator bool      `json:"initiator"`
}

type RankedBid struct {
	Bid
	CallPrice int  `json:"call_price"`
	Research  int  `json:"research"`
	Parent    bool `json:"parent"`
	Allocated int  `json:"allocated"`
	Won       bool `json:"won"`

	tiebreak int
}

type AuctionResult struct {
	Market string      `json:"market"`
	Bids   []RankedBid `json:"bids"`
}

// Outcome returns the ranked bid placed by id.
func (r AuctionResult) Outcome(id CompanyID) (RankedBid, bool) {
	for _, b := range r.Bids {
		if b.Company == id {
			return b, true
		}
	}
	return RankedBid{}, false
}

// RankBids orders bids by call price ascending, then research chips
// descending, then parent first, then a draw from rng.
func RankBids(cfg *rules.Config, st *GameState, bids []Bid, rng *rand.Rand) []RankedBid {
	keys := rng.Perm(len(bids))
	out := make([]RankedBid, len(bids))
	for i, b := range bids {
		c := st.Company(b.Company)
		out[i] = RankedBid{
			Bid:       b,
			CallPrice: b.Price - PriceCompetitiveness(cfg, st, b.Company),
			Research:  c.Chips.Research,
			Parent:    st.IsParent(b.Company),
			tiebreak:  keys[i],
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CallPrice != b.CallPrice {
			return a.CallPrice < b.CallPrice
		}
		if a.Research != b.Research {
			return a.Research > b.Research
		}
		if a.Parent != b.Parent {
			return a.Parent
		}
		return a.tiebreak < b.tiebreak
	})
	return out
}

// ResolveAuction ranks the bids placed at market and fulfils them in order.
// A bid whose allocation falls below the minimum sale is a loss. Bids must
// already have passed validation.
func ResolveAuction(cfg *rules.Config, st *GameState, market string, bids []Bid, rng *rand.Rand) (AuctionResult, error) {
	m, err := st.Market(market)
	if err != nil {
		return AuctionResult{}, err
	}
	ranked := RankBids(cfg, st, bids, rng)
	for i := range ranked {
		b := &ranked[i]
		c := st.Company(b.Company)
		alloc := min(m.Remaining(), b.Quantity, c.Products)
		if alloc < cfg.MinSaleQuantity {
			c.record(LogBidLost, ActionSell, 0, "lost bid at %s: price %d call %d", m.Name, b.Price, b.CallPrice)
			continue
		}
		b.Allocated = alloc
		b.Won = true
		fulfil(c, m, alloc, b.Price)
	}
	return AuctionResult{Market: m.Name, Bids: ranked}, nil
}

func fulfil(c *Company, m *Market, qty, price int) {
	revenue := qty * price
	c.Cash += revenue
	c.Products -= qty
	m.Stock += qty
	c.Book.Sales += revenue
	c.TotalSales += revenue
	c.TotalQuantity += qty
	c.record(LogSale, ActionSell, revenue, "sold %d at %s for %d each", qty, m.Name, price)
}
