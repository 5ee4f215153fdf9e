package strategy

import (
	"errors"
	"math/rand"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

// Tuning is the learned state fed back from batch statistics. The zero
// value plays every strategy with its own parameters.
type Tuning struct {
	// ExtraDiscount is added to every strategy's bid discount.
	ExtraDiscount int `json:"extra_discount"`
	// Weights biases Lineup towards strategies that win more often.
	Weights map[string]float64 `json:"weights,omitempty"`
}

// TuningFromWins derives seat weights from per-strategy win counts. Each
// strategy keeps a floor weight so that none disappears from the lineup.
func TuningFromWins(wins map[string]int, games int) Tuning {
	t := Tuning{Weights: make(map[string]float64)}
	if games <= 0 {
		return t
	}
	for _, name := range Names() {
		t.Weights[name] = 0.5 + float64(wins[name])/float64(games)
	}
	return t
}

// Lineup picks n strategies for one game. Without weights every roster
// strategy is used once per cycle in a shuffled order.
func Lineup(rng *rand.Rand, n int, t Tuning) []Strategy {
	roster := Roster()
	out := make([]Strategy, 0, n)
	if len(t.Weights) == 0 {
		for len(out) < n {
			for _, i := range rng.Perm(len(roster)) {
				if len(out) == n {
					break
				}
				out = append(out, roster[i])
			}
		}
		return out
	}

	total := 0.0
	for _, s := range roster {
		total += max(t.Weights[s.Name()], 0)
	}
	for len(out) < n {
		if total <= 0 {
			out = append(out, roster[rng.Intn(len(roster))])
			continue
		}
		r := rng.Float64() * total
		pick := roster[len(roster)-1]
		for _, s := range roster {
			r -= max(t.Weights[s.Name()], 0)
			if r < 0 {
				pick = s
				break
			}
		}
		out = append(out, pick)
	}
	return out
}
