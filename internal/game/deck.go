package game

import "math/rand"

// Deck draws without replacement. When it runs out the canonical card set
// is restored and shuffled again, so the multiset of cards never changes.
type Deck[T any] struct {
	canonical  []T
	cards      []T
	next       int
	reshuffles int
}

func NewDeck[T any](cards []T, rng *rand.Rand) *Deck[T] {
	d := &Deck[T]{
		canonical: append([]T(nil), cards...),
		cards:     append([]T(nil), cards...),
	}
	shuffle(d.cards, rng)
	return d
}

func (d *Deck[T]) Draw(rng *rand.Rand) T {
	var zero T
	if len(d.canonical) == 0 {
		return zero
	}
	if d.next >= len(d.cards) {
		d.cards = append(d.cards[:0], d.canonical...)
		shuffle(d.cards, rng)
		d.next = 0
		d.reshuffles++
	}
	card := d.cards[d.next]
	d.next++
	return card
}

func (d *Deck[T]) Remaining() int { return len(d.cards) - d.next }

func (d *Deck[T]) Reshuffles() int { return d.reshuffles }

func (d *Deck[T]) Size() int { return len(d.canonical) }

// Order returns the current shuffled order, drawn cards included.
func (d *Deck[T]) Order() []T {
	return append([]T(nil), d.cards...)
}

func shuffle[T any](cards []T, rng *rand.Rand) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

type Token string

const (
	TokenDecision Token = "decision"
	TokenRisk     Token = "risk"
)

func decisionTokens(decision, risk int) []Token {
	out := make([]Token, 0, decision+risk)
	for i := 0; i < decision; i++ {
		out = append(out, TokenDecision)
	}
	for i := 0; i < risk; i++ {
		out = append(out, TokenRisk)
	}
	return out
}
