// Package rng provides the per-battle random source. Every battle owns
// one RNG seeded at creation; replaying the same seed against the same
// action sequence reproduces the battle exactly.
package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// RNG is a seedable deterministic random source. It is not safe for
// concurrent use; each battle owns its own instance.
type RNG struct {
	seed int64
	src  *rand.Rand
}

// New returns an RNG seeded with the given value.
func New(seed int64) *RNG {
	return &RNG{seed: seed, src: rand.New(rand.NewSource(seed))}
}

// NewSeed generates a high-entropy seed using crypto/rand, for battles
// where the caller does not supply one.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Seed returns the seed this RNG was created with.
func (r *RNG) Seed() int64 { return r.seed }

// Intn returns a value in [0, n). n must be positive.
func (r *RNG) Intn(n int) int { return r.src.Intn(n) }

// Float64 returns a value in [0.0, 1.0).
func (r *RNG) Float64() float64 { return r.src.Float64() }

// Chance reports true with the given percent probability. Values at or
// below 0 never hit; values at or above 100 always hit.
func (r *RNG) Chance(percent int) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return r.src.Intn(100) < percent
}

// ChanceF reports true with probability p in [0, 1].
func (r *RNG) ChanceF(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.src.Float64() < p
}

// CoinFlip returns true half the time. Used for speed ties.
func (r *RNG) CoinFlip() bool { return r.src.Intn(2) == 0 }
