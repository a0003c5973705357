package sim_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fieldsim/internal/sim"
)

var _ = Describe("Trajectory", func() {
	It("starts full of the fill value", func() {
		tr := sim.NewTrajectory(4, 7)
		Expect(tr.Len()).To(Equal(4))
		Expect(tr.Cap()).To(Equal(4))
		Expect(tr.Slice()).To(Equal([]int{7, 7, 7, 7}))
	})

	It("evicts the oldest entry first", func() {
		tr := sim.NewTrajectory(3, 0)
		tr.Push(1)
		Expect(tr.Slice()).To(Equal([]int{0, 0, 1}))

		tr.Push(2)
		tr.Push(3)
		tr.Push(4)
		Expect(tr.Slice()).To(Equal([]int{2, 3, 4}))

		latest, ok := tr.Latest()
		Expect(ok).To(BeTrue())
		Expect(latest).To(Equal(4))
	})

	It("collapses to a single point on Fill", func() {
		tr := sim.NewTrajectory(3, 0)
		tr.Push(1)
		tr.Push(2)
		tr.Fill(9)
		Expect(tr.Slice()).To(Equal([]int{9, 9, 9}))
		tr.Push(5)
		Expect(tr.Slice()).To(Equal([]int{9, 9, 5}))
	})

	It("ignores pushes when disabled", func() {
		tr := sim.NewTrajectory(0, 1)
		tr.Push(2)
		Expect(tr.Len()).To(BeZero())
		Expect(tr.Slice()).To(BeEmpty())
		_, ok := tr.Latest()
		Expect(ok).To(BeFalse())
	})

	It("returns a copy", func() {
		tr := sim.NewTrajectory(2, 1)
		out := tr.Slice()
		out[0] = 100
		Expect(tr.Slice()).To(Equal([]int{1, 1}))
	})
})
