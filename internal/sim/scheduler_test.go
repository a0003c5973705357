package sim_test

import (
	"math/rand"
	"slices"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fieldsim/internal/sim"
)

type counter struct {
	running bool
	ticks   int
}

func (c *counter) Running() bool { return c.running }
func (c *counter) Tick()         { c.ticks++ }

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// partition splits total into n positive pieces that sum to it exactly.
func partition(r *rand.Rand, total time.Duration, n int) []time.Duration {
	cuts := make([]time.Duration, 0, n+1)
	cuts = append(cuts, 0, total)
	for len(cuts) < n+1 {
		cuts = append(cuts, time.Duration(r.Int63n(int64(total))))
	}
	slices.Sort(cuts)
	parts := make([]time.Duration, 0, n)
	for i := 1; i < len(cuts); i++ {
		parts = append(parts, cuts[i]-cuts[i-1])
	}
	return parts
}

var _ = Describe("Scheduler", func() {
	const dt = 10 * time.Millisecond

	var (
		clock *sim.ManualClock
		sched *sim.Scheduler
		st    *counter
	)

	BeforeEach(func() {
		clock = sim.NewManualClock(epoch)
		sched = sim.NewScheduler(dt, clock.Now())
		st = &counter{running: true}
	})

	frame := func(d time.Duration) int {
		return sched.OnFrame(clock.Advance(d), st)
	}

	DescribeTable("runs exactly k ticks however k*dt is partitioned",
		func(k, frames int, seed int64) {
			r := rand.New(rand.NewSource(seed))
			total := 0
			for _, d := range partition(r, time.Duration(k)*dt, frames) {
				total += frame(d)
			}
			Expect(total).To(Equal(k))
			Expect(st.ticks).To(Equal(k))
			Expect(sched.Pending()).To(BeZero())
		},
		Entry("one frame", 37, 1, int64(1)),
		Entry("fewer frames than steps", 100, 7, int64(2)),
		Entry("more frames than steps", 12, 90, int64(3)),
		Entry("many frames", 500, 1000, int64(4)),
	)

	It("floors partial timesteps and carries the remainder", func() {
		Expect(frame(25 * time.Millisecond)).To(Equal(2))
		Expect(sched.Pending()).To(Equal(5 * time.Millisecond))
		Expect(frame(4 * time.Millisecond)).To(Equal(0))
		Expect(frame(1 * time.Millisecond)).To(Equal(1))
		Expect(sched.Pending()).To(BeZero())
	})

	It("treats a frame timestamp from the past as zero elapsed time", func() {
		Expect(frame(15 * time.Millisecond)).To(Equal(1))
		Expect(sched.OnFrame(epoch, st)).To(Equal(0))
		Expect(frame(5 * time.Millisecond)).To(Equal(1))
	})

	It("does not catch up on time spent paused", func() {
		Expect(frame(25 * time.Millisecond)).To(Equal(2))

		st.running = false
		Expect(frame(time.Second)).To(Equal(0))
		Expect(frame(333 * time.Millisecond)).To(Equal(0))
		Expect(sched.Pending()).To(BeNumerically("<", dt))

		st.running = true
		Expect(frame(dt)).To(Equal(1))
		Expect(st.ticks).To(Equal(3))
	})

	It("discards pending time on Restart", func() {
		frame(7 * time.Millisecond)
		sched.Restart(clock.Now())
		Expect(sched.Pending()).To(BeZero())
		Expect(frame(5 * time.Millisecond)).To(Equal(0))
	})

	It("converts seconds to a duration without drift", func() {
		Expect(sim.Step(0.01)).To(Equal(10 * time.Millisecond))
		Expect(sim.Step(1.0 / 60)).To(Equal(16666667 * time.Nanosecond))
	})
})
