package strategy

import (
	"math/rand"
	"testing"
)

func TestLineupWithoutWeightsUsesWholeRoster(t *testing.T) {
	seats := Lineup(rand.New(rand.NewSource(3)), 6, Tuning{})
	seen := map[string]int{}
	for _, s := range seats {
		seen[s.Name()]++
	}
	for _, name := range Names() {
		if seen[name] != 1 {
			t.Fatalf("%s seated %d times", name, seen[name])
		}
	}
	if got := len(Lineup(rand.New(rand.NewSource(3)), 8, Tuning{})); got != 8 {
		t.Fatalf("expected 8 seats, got %d", got)
	}
}

func TestLineupFollowsWeights(t *testing.T) {
	tuning := Tuning{Weights: map[string]float64{"aggressive": 100, "balanced": 0.01}}
	rng := rand.New(rand.NewSource(1))
	counts := map[string]int{}
	for i := 0; i < 100; i++ {
		for _, s := range Lineup(rng, 6, tuning) {
			counts[s.Name()]++
		}
	}
	if counts["aggressive"] < 500 {
		t.Fatalf("weighted strategy picked %d of 600 seats", counts["aggressive"])
	}
}

func TestTuningFromWins(t *testing.T) {
	tuning := TuningFromWins(map[string]int{"balanced": 6, "low_chip": 2}, 8)
	if tuning.Weights["balanced"] != 1.25 || tuning.Weights["low_chip"] != 0.75 || tuning.Weights["aggressive"] != 0.5 {
		t.Fatalf("unexpected weights %v", tuning.Weights)
	}
	if len(TuningFromWins(nil, 0).Weights) != 0 {
		t.Fatalf("no games should give no weights")
	}
}
