package stats

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"mgsim/internal/game"
	"mgsim/internal/rules"
	"mgsim/internal/strategy"
)

func newRunner() *Runner {
	return NewRunner(game.NewService(rules.Default(), nil), nil)
}

func TestRunnerAggregatesBatch(t *testing.T) {
	sum, err := newRunner().Run(context.Background(), BatchOptions{Games: 6, Seed: 11, Workers: 3})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Games != 6 || sum.Failed != 0 || sum.ID == "" || sum.Seed != 11 {
		t.Fatalf("unexpected summary header %+v", sum)
	}
	seats, wins := 0, 0
	for _, st := range sum.Strategies {
		seats += st.Seats
		wins += st.Wins
		if st.QualifiedWins > st.Wins {
			t.Fatalf("qualified wins exceed wins: %+v", st)
		}
	}
	if seats != 36 || wins != 6 {
		t.Fatalf("seats=%d wins=%d", seats, wins)
	}
	if sum.AverageRows <= 0 {
		t.Fatalf("average rows not recorded")
	}
}

func TestRunnerIsDeterministicAcrossWorkerCounts(t *testing.T) {
	run := func(workers int) Summary {
		sum, err := newRunner().Run(context.Background(), BatchOptions{Games: 4, Seed: 99, Workers: workers})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		sum.ID, sum.CreatedAt = "", time.Time{}
		return sum
	}
	a, b := run(1), run(4)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("batch differs by worker count:\n%+v\n%+v", a, b)
	}
}

func TestRunnerRejectsEmptyBatch(t *testing.T) {
	if _, err := newRunner().Run(context.Background(), BatchOptions{}); !errors.Is(err, ErrInvalidBatch) {
		t.Fatalf("expected ErrInvalidBatch, got %v", err)
	}
}

func TestRunnerStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newRunner().Run(ctx, BatchOptions{Games: 3, Seed: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAggregateExcludesFailedGames(t *testing.T) {
	seats := strategy.Roster()
	ok := gameOutcome{seats: seats, result: game.SimulationResult{
		Rows:    100,
		Winner:  game.Standing{Company: 3, Equity: 500, Qualified: true},
		Ranking: []game.Standing{{Company: 3, Equity: 500, Qualified: true}, {Company: 0, Equity: 300}},
	}}
	failed := gameOutcome{seats: seats, err: &game.InvariantError{Rule: "negative-stock"}}

	sum := aggregate([]gameOutcome{ok, failed})
	if sum.Games != 2 || sum.Failed != 1 || sum.Completed() != 1 || sum.AverageRows != 100 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	winner := sum.Strategies[seats[3].Name()]
	if winner.Wins != 1 || winner.QualifiedWins != 1 || winner.AverageEquity != 500 {
		t.Fatalf("winner stats %+v", winner)
	}
	if sum.Leaders()[0] != seats[3].Name() {
		t.Fatalf("leaders %v", sum.Leaders())
	}
	tuning := sum.Tuning()
	if tuning.Weights[seats[3].Name()] != 1.5 {
		t.Fatalf("tuning weights %v", tuning.Weights)
	}
}
