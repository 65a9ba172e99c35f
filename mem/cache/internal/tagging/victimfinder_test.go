package tagging

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RandomVictimFinder", func() {
	It("should pick victims within the way count", func() {
		vf := NewRandomVictimFinder(rand.NewSource(1))

		for i := 0; i < 100; i++ {
			way := vf.FindVictim(4)
			Expect(way).To(SatisfyAll(
				BeNumerically(">=", 0),
				BeNumerically("<", 4),
			))
		}
	})

	It("should be deterministic for a fixed source", func() {
		vf1 := NewRandomVictimFinder(rand.NewSource(42))
		vf2 := NewRandomVictimFinder(rand.NewSource(42))

		for i := 0; i < 16; i++ {
			Expect(vf1.FindVictim(8)).To(Equal(vf2.FindVictim(8)))
		}
	})
})
