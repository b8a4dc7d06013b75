package engine

import "math/rand/v2"

// Source supplies uniform variates in [0, 1).
// A Source is used by a single prediction and need not be safe for concurrent use.
type Source interface {
	Float64() float64
}

type zeroNoise struct{}

func (zeroNoise) Float64() float64 { return 0.5 }

// ZeroNoise always returns the midpoint, so every symmetric noise term is exactly zero
var ZeroNoise Source = zeroNoise{}

// NewSeededSource returns a reproducible source for the given seed
func NewSeededSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// newRandomSource returns an independently seeded source for one prediction
func newRandomSource() Source {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// uniform draws from U(lo, hi)
func uniform(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}
