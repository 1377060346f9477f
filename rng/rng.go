// Package rng models the random number generator as an oracle, per
// spec.md §1 and §9: a stateful interface producing uniform [0,1) floats
// and binomial variates, backed in production by a gonum distribution and
// substitutable in tests with a scripted stub.
package rng

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source is the RNG service every sampling routine in this system draws
// from: the reservoir (spec.md §4.4), the simulator's per-window read
// budget and placement offsets (spec.md §4.6).
type Source interface {
	// Uniform01 returns a value drawn uniformly from [0, 1).
	Uniform01() float64
	// Binomial returns a variate drawn from Binomial(n, p).
	Binomial(n int, p float64) int
}

// Gonum is a Source backed by gonum's stat/distuv distributions drawing
// from one golang.org/x/exp/rand generator per Gonum value. Its state is
// mutable and unsynchronized, which is safe because this system is
// single-threaded (spec.md §5).
type Gonum struct {
	src rand.Source
}

// New constructs a Gonum RNG seeded with seed.
func New(seed int64) *Gonum {
	return &Gonum{src: rand.NewSource(uint64(seed))}
}

// Uniform01 implements Source.
func (g *Gonum) Uniform01() float64 {
	u := distuv.Uniform{Min: 0, Max: 1, Src: g.src}
	return u.Rand()
}

// Binomial implements Source. n <= 0 or p <= 0 short-circuits to 0 without
// consulting the underlying distribution, since gonum's Binomial requires
// N >= 0 and rejects P == 0 only by always returning 0 anyway; the
// short-circuit just avoids constructing a distribution per call in the
// (common, in low-coverage windows) n==0 case.
func (g *Gonum) Binomial(n int, p float64) int {
	if n <= 0 || p <= 0 {
		return 0
	}
	b := distuv.Binomial{N: float64(n), P: p, Src: g.src}
	return int(b.Rand())
}

// SeedPair derives the two process seeds spec.md §6.6 specifies for the
// --seed option: (s, s*77). Callers that need two independent streams
// (e.g. the input-model scanner and the simulator) construct one Gonum
// from each.
func SeedPair(s int64) (int64, int64) {
	return s, s * 77
}
