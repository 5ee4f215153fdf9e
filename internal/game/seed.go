package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// NewSeed returns a non-zero seed from crypto/rand. Zero is reserved for
// "pick one for me" in Options.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	seed := int64(binary.LittleEndian.Uint64(b[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed, nil
}

// NewRand builds the per-game random source. Every shuffle, dice roll and
// tie-break in a game draws from it.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
