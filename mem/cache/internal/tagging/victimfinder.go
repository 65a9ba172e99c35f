package tagging

import "math/rand"

// A VictimFinder decides which way of a fully-dirty set should be evicted.
type VictimFinder interface {
	FindVictim(numWays int) (wayID int)
}

// RandomVictimFinder picks a victim uniformly at random among the ways of a
// set.
type RandomVictimFinder struct {
	src *rand.Rand
}

// NewRandomVictimFinder returns a victim finder drawing from the given
// random source, so tests can force deterministic victim selection.
func NewRandomVictimFinder(src rand.Source) *RandomVictimFinder {
	return &RandomVictimFinder{src: rand.New(src)}
}

// FindVictim returns a uniformly random way.
func (f *RandomVictimFinder) FindVictim(numWays int) int {
	return f.src.Intn(numWays)
}
