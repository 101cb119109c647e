// Package rng provides the deterministic random stream every probabilistic
// decision in the simulation draws from. A stream is fully determined by its
// string seed, so a run can be replayed or shared by seed alone.
package rng

import (
	"crypto/rand"
	"encoding/hex"
	"math"
	"strings"
	"unicode/utf16"
)

// Stream is a mulberry32 generator seeded from a string hash.
// It is not safe for concurrent use.
type Stream struct {
	seed  string
	state uint32
}

// New returns a stream for seed. Surrounding whitespace is ignored.
func New(seed string) *Stream {
	seed = strings.TrimSpace(seed)
	return &Stream{seed: seed, state: hashSeed(seed)}
}

// Seed returns the seed string the stream was created from.
func (s *Stream) Seed() string {
	return s.seed
}

// Uint32 returns the next raw 32-bit value.
func (s *Stream) Uint32() uint32 {
	s.state += 0x6d2b79f5
	t := s.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return t ^ (t >> 14)
}

// Float64 returns a value in [0, 1).
func (s *Stream) Float64() float64 {
	return float64(s.Uint32()) / 4294967296.0
}

// Between returns a value in [lo, hi). Returns lo when hi <= lo.
func (s *Stream) Between(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + s.Float64()*(hi-lo)
}

// Intn returns a value in [0, n). Panics if n <= 0.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	return int(s.Float64()*float64(n)) % n
}

// IntBetween returns an integer in [lo, hi] inclusive.
func (s *Stream) IntBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.Intn(hi-lo+1)
}

// Chance returns true with probability p.
func (s *Stream) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	return s.Float64() < p
}

// Angle returns a heading in [0, 2π).
func (s *Stream) Angle() float64 {
	return s.Float64() * 2 * math.Pi
}

// hashSeed folds the UTF-16 code units of seed into a 32-bit state.
func hashSeed(seed string) uint32 {
	units := utf16.Encode([]rune(seed))
	h := uint32(1779033703) ^ uint32(len(units))
	for _, c := range units {
		h = (h ^ uint32(c)) * 3432918353
		h = (h << 13) | (h >> 19)
	}
	h = (h ^ (h >> 16)) * 2246822507
	h = (h ^ (h >> 13)) * 3266489909
	return h ^ (h >> 16)
}

// NewSeed returns a fresh 12-character hex seed from the system entropy source.
func NewSeed() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic("rng: reading entropy: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}
