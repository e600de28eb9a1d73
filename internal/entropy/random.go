// Package entropy provides the seeded random source all stochastic game
// systems draw from. A single seed makes a whole run reproducible, which the
// tests rely on.
package entropy

import "math/rand"

// Source wraps a seeded generator with the sampling helpers the game needs.
// Not safe for concurrent use; the simulation is single-threaded.
type Source struct {
	rng *rand.Rand
}

// NewSource creates a deterministic source from a seed.
func NewSource(seed int64) *Source {
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// Float returns a uniform float64 in [0, 1).
func (s *Source) Float() float64 {
	return s.rng.Float64()
}

// Uniform returns a uniform float64 in [min, max).
func (s *Source) Uniform(min, max float64) float64 {
	return min + s.rng.Float64()*(max-min)
}

// Between returns a uniform integer in [min, max] inclusive.
func (s *Source) Between(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.rng.Intn(max-min+1)
}

// Chance reports true with probability p.
func (s *Source) Chance(p float64) bool {
	return s.rng.Float64() < p
}

// Pick returns a uniformly chosen element of items.
func Pick[T any](s *Source, items []T) T {
	return items[s.rng.Intn(len(items))]
}

// Shuffle permutes items in place.
func Shuffle[T any](s *Source, items []T) {
	s.rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
