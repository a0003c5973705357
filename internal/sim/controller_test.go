package sim_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/integrators"
	"github.com/san-kum/fieldsim/internal/physics"
	"github.com/san-kum/fieldsim/internal/sim"
)

type recorder struct {
	frames []sim.Frame[dynamo.Vec3]
	params []map[string]float64
}

func (r *recorder) Draw(f sim.Frame[dynamo.Vec3])      { r.frames = append(r.frames, f) }
func (r *recorder) ParamsChanged(p map[string]float64) { r.params = append(r.params, p) }

func (r *recorder) last() sim.Frame[dynamo.Vec3] { return r.frames[len(r.frames)-1] }

type stepCounter struct {
	steps, resets int
	lastT         float64
}

func (o *stepCounter) OnStep(_ dynamo.State[dynamo.Vec3], t float64) {
	o.steps++
	o.lastT = t
}

func (o *stepCounter) Reset() {
	o.steps = 0
	o.resets++
}

var _ = Describe("Controller", func() {
	const trail = 2000

	var (
		particle *physics.ChargedParticle
		view     *recorder
		obs      *stepCounter
		ctrl     *sim.Controller[dynamo.Vec3]
	)

	BeforeEach(func() {
		particle = physics.NewChargedParticle()
		view = &recorder{}
		obs = &stepCounter{}
		var err error
		ctrl, err = sim.NewController[dynamo.Vec3](particle, integrators.NewRK4[dynamo.Vec3](0.01), sim.ControllerOptions[dynamo.Vec3]{
			TrailLength: trail,
			View:        view,
			Observers:   []sim.Observer[dynamo.Vec3]{obs},
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts idle and draws the defaults", func() {
		Expect(ctrl.Running()).To(BeFalse())
		Expect(view.frames).NotTo(BeEmpty())
		Expect(view.last().State.X).To(Equal(physics.DefaultPosition))
		Expect(view.last().Trail).To(HaveLen(trail))
	})

	It("toggles between idle and running", func() {
		Expect(ctrl.ToggleRunning()).To(BeTrue())
		Expect(ctrl.Running()).To(BeTrue())
		Expect(ctrl.ToggleRunning()).To(BeFalse())
		ctrl.Start()
		ctrl.Start()
		Expect(ctrl.Running()).To(BeTrue())
		ctrl.Stop()
		Expect(ctrl.Running()).To(BeFalse())
	})

	Describe("Reset", func() {
		BeforeEach(func() {
			Expect(ctrl.SetParameter("Bz", 1)).To(Succeed())
			Expect(ctrl.SetParameter("vx", 2)).To(Succeed())
			Expect(ctrl.SetParameter("q", 3)).To(Succeed())
			ctrl.Start()
			for i := 0; i < 50; i++ {
				ctrl.Tick()
			}
			ctrl.Reset()
		})

		It("reproduces the default state with zero steps", func() {
			st := particle.State()
			Expect(st.X).To(Equal(dynamo.Vec3{X: -10}))
			Expect(st.V).To(Equal(dynamo.Vec3{}))
			Expect(particle.Q).To(Equal(physics.DefaultCharge))
			Expect(particle.M).To(Equal(physics.DefaultMass))
			Expect(particle.B).To(Equal(dynamo.Vec3{}))
		})

		It("goes idle and clears the clock", func() {
			Expect(ctrl.Running()).To(BeFalse())
			Expect(ctrl.Steps()).To(BeZero())
			Expect(ctrl.SimTime()).To(BeZero())
		})

		It("resets observers and redraws the view", func() {
			Expect(obs.resets).To(Equal(2))
			Expect(obs.steps).To(BeZero())
			f := view.last()
			Expect(f.Steps).To(BeZero())
			Expect(f.State.X).To(Equal(physics.DefaultPosition))
			Expect(view.params[len(view.params)-1]).To(HaveKeyWithValue("Bz", 0.0))
		})

		It("collapses the trail to the reset position", func() {
			for _, p := range ctrl.Frame().Trail {
				Expect(p).To(Equal(physics.DefaultPosition))
			}
		})
	})

	It("holds N-1 reset copies and the new position after one step", func() {
		Expect(ctrl.SetParameter("vx", 1)).To(Succeed())
		ctrl.Tick()

		tr := ctrl.Frame().Trail
		Expect(tr).To(HaveLen(trail))
		for _, p := range tr[:trail-1] {
			Expect(p).To(Equal(physics.DefaultPosition))
		}
		Expect(tr[trail-1]).To(Equal(particle.Position()))
		Expect(tr[trail-1].X).To(BeNumerically("~", -9.99, 1e-12))
	})

	It("counts steps and simulated time", func() {
		for i := 0; i < 100; i++ {
			ctrl.Tick()
		}
		Expect(ctrl.Steps()).To(Equal(uint64(100)))
		Expect(ctrl.SimTime()).To(BeNumerically("~", 1.0, 1e-12))
		Expect(obs.steps).To(Equal(100))
		Expect(obs.lastT).To(BeNumerically("~", 1.0, 1e-12))
	})

	Describe("SetParameter", func() {
		DescribeTable("refuses and keeps the previous mass",
			func(value float64, want error) {
				err := ctrl.SetParameter("m", value)
				Expect(err).To(MatchError(want))
				var pe *dynamo.ParamError
				Expect(err).To(BeAssignableToTypeOf(pe))
				Expect(particle.M).To(Equal(physics.DefaultMass))
			},
			Entry("zero", 0.0, dynamo.ErrZeroDivisor),
			Entry("NaN", math.NaN(), dynamo.ErrNonFinite),
			Entry("+Inf", math.Inf(1), dynamo.ErrNonFinite),
			Entry("negative", -1.0, dynamo.ErrParameterBounds),
			Entry("above range", 10.5, dynamo.ErrParameterBounds),
		)

		It("refuses unknown names", func() {
			Expect(ctrl.SetParameter("mass", 1)).To(MatchError(dynamo.ErrUnknownParam))
		})

		It("accepts the inclusive bounds", func() {
			Expect(ctrl.SetParameter("Ex", -1)).To(Succeed())
			Expect(ctrl.SetParameter("q", 10)).To(Succeed())
			Expect(ctrl.SetParameter("q", 0)).To(Succeed())
		})

		It("notifies the view without advancing the state", func() {
			before := len(view.params)
			state := particle.State()
			Expect(ctrl.SetParameter("Ey", 0.5)).To(Succeed())
			Expect(view.params).To(HaveLen(before + 1))
			Expect(view.params[before]).To(HaveKeyWithValue("Ey", 0.5))
			Expect(particle.State()).To(Equal(state))
			Expect(ctrl.Steps()).To(BeZero())
		})

		It("keeps the trajectory finite after a refused mass", func() {
			_ = ctrl.SetParameter("m", 0)
			ctrl.Start()
			for i := 0; i < 10; i++ {
				ctrl.Tick()
			}
			for _, p := range ctrl.Frame().Trail {
				Expect(p.IsFinite()).To(BeTrue())
			}
		})
	})

	It("rejects invalid overrides at construction", func() {
		_, err := sim.NewController[dynamo.Vec3](physics.NewChargedParticle(), integrators.NewRK4[dynamo.Vec3](0.01), sim.ControllerOptions[dynamo.Vec3]{
			Overrides: map[string]float64{"m": 0},
		})
		Expect(err).To(MatchError(dynamo.ErrZeroDivisor))
	})

	It("reapplies overrides on every reset", func() {
		c, err := sim.NewController[dynamo.Vec3](particle, integrators.NewRK4[dynamo.Vec3](0.01), sim.ControllerOptions[dynamo.Vec3]{
			Overrides: map[string]float64{"Bz": 1, "vx": 1},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(particle.B.Z).To(Equal(1.0))

		Expect(c.SetParameter("Bz", -0.5)).To(Succeed())
		c.Tick()
		c.Reset()
		Expect(particle.B.Z).To(Equal(1.0))
		Expect(particle.Velocity()).To(Equal(dynamo.Vec3{X: 1}))
		Expect(particle.Position()).To(Equal(physics.DefaultPosition))
	})
})

var _ = Describe("Session", func() {
	var (
		clock   *sim.ManualClock
		view    *recorder
		session *sim.Session[dynamo.Vec3]
	)

	BeforeEach(func() {
		clock = sim.NewManualClock(epoch)
		view = &recorder{}
		ctrl, err := sim.NewController[dynamo.Vec3](physics.NewChargedParticle(), integrators.NewRK4[dynamo.Vec3](0.01), sim.ControllerOptions[dynamo.Vec3]{
			TrailLength: 10,
			View:        view,
		})
		Expect(err).NotTo(HaveOccurred())
		session = sim.NewSession("particle", ctrl, clock)
	})

	It("satisfies Runner", func() {
		var r sim.Runner = session
		Expect(r.Name()).To(Equal("particle"))
		Expect(r.Now()).To(Equal(epoch))
	})

	It("does nothing while idle", func() {
		Expect(session.OnFrame(clock.Advance(time.Second))).To(BeZero())
		Expect(session.Snapshot().Steps).To(BeZero())
	})

	It("steps floor(elapsed/dt) times and draws once per frame", func() {
		session.SetRunning(true)
		drawn := len(view.frames)

		Expect(session.OnFrame(clock.Advance(time.Second))).To(Equal(100))
		Expect(view.frames).To(HaveLen(drawn + 1))
		Expect(view.last().Steps).To(Equal(uint64(100)))

		Expect(session.OnFrame(clock.Advance(5 * time.Millisecond))).To(BeZero())
		Expect(view.frames).To(HaveLen(drawn + 1))
	})

	It("pauses without a catch-up burst", func() {
		session.SetRunning(true)
		session.OnFrame(clock.Advance(55 * time.Millisecond))
		Expect(session.Snapshot().Steps).To(Equal(uint64(5)))

		session.SetRunning(false)
		session.OnFrame(clock.Advance(10 * time.Second))
		session.SetRunning(true)
		session.OnFrame(clock.Advance(10 * time.Millisecond))

		Expect(session.Snapshot().Steps).To(Equal(uint64(6)))
	})

	It("reports a flat snapshot", func() {
		Expect(session.SetParameter("vx", 2)).To(Succeed())
		snap := session.Snapshot()
		Expect(snap.Model).To(Equal("particle"))
		Expect(snap.Position).To(Equal([]float64{-10, 0, 0}))
		Expect(snap.Velocity).To(Equal([]float64{2, 0, 0}))
		Expect(snap.Energy).NotTo(BeNil())
		Expect(*snap.Energy).To(BeNumerically("~", 0.2, 1e-12))
		Expect(snap.Params).To(HaveKeyWithValue("vx", 2.0))
	})

	It("exposes the trail as plain components", func() {
		tr := session.TrailComponents()
		Expect(tr).To(HaveLen(10))
		Expect(tr[0]).To(Equal([]float64{-10, 0, 0}))
	})

	It("resets to idle", func() {
		session.SetRunning(true)
		session.OnFrame(clock.Advance(time.Second))
		session.Reset()
		Expect(session.Running()).To(BeFalse())
		Expect(session.Snapshot().Position).To(Equal([]float64{-10, 0, 0}))
	})

	It("drops the pending remainder on reset", func() {
		session.SetRunning(true)
		session.OnFrame(clock.Advance(9 * time.Millisecond))
		Expect(session.Scheduler().Pending()).To(Equal(9 * time.Millisecond))

		session.Reset()
		Expect(session.Scheduler().Pending()).To(BeZero())

		session.SetRunning(true)
		Expect(session.OnFrame(clock.Advance(5 * time.Millisecond))).To(BeZero())
		Expect(session.Snapshot().Steps).To(BeZero())
	})
})

var _ = Describe("MultiView", func() {
	It("fans out to every view", func() {
		a, b := &recorder{}, &recorder{}
		mv := sim.MultiView[dynamo.Vec3]{a, b}
		mv.Draw(sim.Frame[dynamo.Vec3]{Steps: 3})
		mv.ParamsChanged(map[string]float64{"q": 1})
		Expect(a.frames).To(HaveLen(1))
		Expect(b.frames[0].Steps).To(Equal(uint64(3)))
		Expect(b.params).To(HaveLen(1))
	})
})
