// Package stats runs batches of simulated games and keeps the derived
// statistics. No game state is stored, only aggregates.
package stats

import (
	"errors"
	"sort"
	"time"

	"mgsim/internal/strategy"
)

var (
	ErrNoSummary    = errors.New("no batch summary stored")
	ErrInvalidBatch = errors.New("invalid batch options")
	ErrUnknownStore = errors.New("unknown statistics store")
)

// StrategyStats aggregates every seat a strategy played in a batch.
type StrategyStats struct {
	Seats         int     `json:"seats"`
	Wins          int     `json:"wins"`
	QualifiedWins int     `json:"qualified_wins"`
	AverageEquity float64 `json:"average_equity"`
}

type Summary struct {
	ID             string                   `json:"id"`
	CreatedAt      time.Time                `json:"created_at"`
	Seed           int64                    `json:"seed"`
	Games          int                      `json:"games"`
	Failed         int                      `json:"failed"`
	WinnerWarnings int                      `json:"winner_warnings"`
	AverageRows    float64                  `json:"average_rows"`
	Strategies     map[string]StrategyStats `json:"strategies"`
}

// Completed is the number of games that finished without a fatal error.
func (s Summary) Completed() int { return s.Games - s.Failed }

// Wins returns the win count per strategy name.
func (s Summary) Wins() map[string]int {
	out := make(map[string]int, len(s.Strategies))
	for name, st := range s.Strategies {
		out[name] = st.Wins
	}
	return out
}

// Tuning turns the summary into provider tuning for the next batch.
func (s Summary) Tuning() strategy.Tuning {
	return strategy.TuningFromWins(s.Wins(), s.Completed())
}

// Leaders lists strategy names by wins, then by average equity.
func (s Summary) Leaders() []string {
	names := make([]string, 0, len(s.Strategies))
	for name := range s.Strategies {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := s.Strategies[names[i]], s.Strategies[names[j]]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.AverageEquity != b.AverageEquity {
			return a.AverageEquity > b.AverageEquity
		}
		return names[i] < names[j]
	})
	return names
}
