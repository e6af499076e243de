// Package shuffle provides the deterministic PRNG and Fisher-Yates permutation
// shared by the room runtime and the board generator. The sequence is fixed:
// the same seed yields the same stream on every platform, so a host that knows
// the room seed can reproduce the server's deck order bit for bit.
package shuffle

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// RNG is a splittable 32-bit generator (mulberry32 recurrence). All state fits
// in a single uint32; arithmetic wraps mod 2^32.
type RNG struct {
	state uint32
}

// NewRNG returns a generator seeded with the given 31-bit seed.
func NewRNG(seed int32) *RNG {
	return &RNG{state: uint32(seed)}
}

// Float64 advances the generator and returns a value in [0, 1).
func (r *RNG) Float64() float64 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ (t >> 15)) * (1 | t)
	t = (t + (t^(t>>7))*(61|t)) ^ t
	t = t ^ (t >> 14)
	return float64(t) / 4294967296.0
}

// Intn returns a value in [0, n) using the next float draw.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("shuffle: Intn called with n=%d", n))
	}
	return int(r.Float64() * float64(n))
}

// Permute returns a new slice holding a Fisher-Yates permutation of ids,
// driven by the generator seeded with seed. The input is not modified.
func Permute[T any](ids []T, seed int32) []T {
	out := make([]T, len(ids))
	copy(out, ids)
	rng := NewRNG(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// NewSeed draws a uniform seed from [0, 2^31) using the OS entropy source.
func NewSeed() (int32, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read entropy for seed: %w", err)
	}
	return int32(binary.BigEndian.Uint32(buf[:]) & 0x7FFFFFFF), nil
}

// MustSeed is NewSeed for callers that cannot meaningfully recover from an
// entropy failure (room creation, reset).
func MustSeed() int32 {
	seed, err := NewSeed()
	if err != nil {
		panic(err)
	}
	return seed
}
