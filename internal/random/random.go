// Package random provides the randomness used by the game: crypto-backed identifiers and
// probability rolls that can be made deterministic in tests.
package random

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand/v2"
	"sync"
)

var allowedLetters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Letters returns n random ASCII letters, e.g., for naming in-memory databases.
func Letters(n uint) (string, error) {
	letters := make([]rune, n)
	for i := range letters {
		letterIndex, err := rand.Int(rand.Reader, big.NewInt(int64(len(allowedLetters))))
		if err != nil {
			return "", err
		}
		letters[i] = allowedLetters[letterIndex.Int64()]
	}
	return string(letters), nil
}

// Source produces the probability rolls behind lies, glitches, whispers and save corruption.
type Source interface {
	// Float64 returns a number in [0,1).
	Float64() float64
	// IntN returns a number in [0,n). n must be positive.
	IntN(n int) int
}

// Seeded is a concurrency-safe [Source] backed by a PCG generator.
type Seeded struct {
	mu  sync.Mutex
	rng *mathrand.Rand
}

// NewSeeded creates a Source that is reproducible for the same seed.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{rng: mathrand.New(mathrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))} //nolint:gosec // game rolls
}

// NewSource creates a Source seeded from crypto/rand.
func NewSource() *Seeded {
	var seed uint64
	if n, err := rand.Int(rand.Reader, new(big.Int).SetUint64(^uint64(0))); err == nil {
		seed = n.Uint64()
	}
	return NewSeeded(seed)
}

func (s *Seeded) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *Seeded) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Fixed replays a scripted sequence of rolls. It is meant for tests that need exact outcomes.
//
// Float64 cycles through Floats and IntN cycles through Ints (reduced modulo n). An empty sequence yields zero.
type Fixed struct {
	mu     sync.Mutex
	Floats []float64
	Ints   []int
	fi, ii int
}

func (f *Fixed) Float64() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Floats) == 0 {
		return 0
	}
	v := f.Floats[f.fi%len(f.Floats)]
	f.fi++
	return v
}

func (f *Fixed) IntN(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Ints) == 0 || n <= 0 {
		return 0
	}
	v := f.Ints[f.ii%len(f.Ints)]
	f.ii++
	return ((v % n) + n) % n
}
