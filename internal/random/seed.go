// Package random generates game seeds and the seeded shuffle sources built
// from them. A game is fully determined by its config, its seed and the
// choices made, so seeds are stored with every session.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// streamSalt picks the second PCG word from the seed, so one number is
// enough to reproduce a deal.
const streamSalt = 0x9e3779b97f4a7c15

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// NewSource returns the deterministic generator for seed. The same seed
// always shuffles the same way.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^streamSalt))
}
