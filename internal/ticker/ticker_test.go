package ticker_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/biosim/internal/agent"
	"github.com/san-kum/biosim/internal/dynamo"
	"github.com/san-kum/biosim/internal/field"
	"github.com/san-kum/biosim/internal/integrators"
	"github.com/san-kum/biosim/internal/ticker"
)

var errBoom = errors.New("boom")

// sensor records the concentration it saw and then secretes a fixed amount.
type sensor struct {
	id    int
	pos   dynamo.Vec3
	seen  []float64
	moves int
	fail  bool
}

func (p *sensor) ID() int { return p.id }

func (p *sensor) Act(env *agent.Env) error {
	if p.fail {
		return errBoom
	}
	c, err := env.Conc("signal", p.pos)
	if err != nil {
		return err
	}
	p.seen = append(p.seen, c)
	return env.AddQuantity("signal", p.pos, 1)
}

func (p *sensor) UpdatePosition(*agent.Env) { p.moves++ }

func testDomain() field.Domain {
	return field.Domain{
		Bound:    dynamo.Vec3{8, 8, 8},
		Boundary: [3]field.Boundary{field.Wrap, field.Wrap, field.Solid},
		Dt:       0.1,
	}
}

type world struct {
	ticker *ticker.Ticker
	fields []*field.Field
	cells  []*agent.Cell
}

func buildWorld(workers, n int) world {
	domain := testDomain()
	nutrient, err := field.New(domain, field.Options{Name: "nutrient", Boxes: [3]int{8, 8, 8}, Diffusivity: 1, DecayRate: 0.01})
	Expect(err).NotTo(HaveOccurred())
	waste, err := field.New(domain, field.Options{Name: "waste", Boxes: [3]int{4, 4, 4}, Diffusivity: 0.5, DecayRate: 0.1})
	Expect(err).NotTo(HaveOccurred())
	nutrient.SetUniformConc(2)

	var cells []*agent.Cell
	var agents []agent.Agent
	for id := 0; id < n; id++ {
		rng := agent.NewRand(11, id)
		pos := dynamo.Vec3{rng.Float64() * 8, rng.Float64() * 8, rng.Float64() * 8}
		net, err := agent.NewODENetwork(agent.NewUptake(), integrators.NewRK4(), agent.NetworkOptions{H: 0.05, TimeScale: 1, Dt: domain.Dt})
		Expect(err).NotTo(HaveOccurred())
		c := agent.NewCell(id, pos, rng, agent.CellOptions{
			Sense:    "nutrient",
			Network:  net,
			Motility: agent.Chemotaxis{Field: "nutrient", Speed: 2, Bias: 0.5},
			Couplings: []agent.Coupling{
				agent.Consume{Target: "nutrient", Vmax: 5, Km: 0.5},
				agent.Secrete{Target: "waste", Rate: 0.3, Component: 1},
			},
		})
		cells = append(cells, c)
		agents = append(agents, c)
	}

	fields := []*field.Field{nutrient, waste}
	tk, err := ticker.New(ticker.Options{Workers: workers}, dynamo.NewClock(domain.Dt), domain, fields, agents)
	Expect(err).NotTo(HaveOccurred())
	return world{ticker: tk, fields: fields, cells: cells}
}

var _ = Describe("Partition", func() {
	DescribeTable("covers every agent exactly once",
		func(n, workers int) {
			parts := ticker.Partition(n, workers)
			Expect(parts).To(HaveLen(max(workers, 1)))
			next := 0
			for _, r := range parts {
				Expect(r.Start).To(Equal(next))
				Expect(r.End).To(BeNumerically(">=", r.Start))
				next = r.End
			}
			Expect(next).To(Equal(n))
		},
		Entry("even split", 12, 4),
		Entry("uneven split", 10, 3),
		Entry("more workers than agents", 3, 8),
		Entry("no agents", 0, 4),
		Entry("sequential", 5, 1),
		Entry("zero workers", 5, 0),
	)
})

var _ = Describe("Ticker", func() {
	ctx := context.Background()

	It("advances the clock once per tick", func() {
		w := buildWorld(1, 4)
		Expect(w.ticker.Run(ctx, 5)).To(Succeed())
		Expect(w.ticker.Clock().Tick).To(Equal(uint64(5)))
		Expect(w.ticker.Clock().Time).To(BeNumerically("~", 0.5, 1e-12))
		Expect(w.ticker.Stats().Ticks).To(Equal(uint64(5)))
		Expect(w.ticker.Stats().Actions).To(Equal(uint64(20)))
	})

	It("produces identical results for any worker count", func() {
		seq := buildWorld(1, 37)
		par := buildWorld(6, 37)

		Expect(seq.ticker.Run(ctx, 25)).To(Succeed())
		Expect(par.ticker.Run(ctx, 25)).To(Succeed())

		for i := range seq.fields {
			Expect(par.fields[i].Quantities()).To(Equal(seq.fields[i].Quantities()))
		}
		for i := range seq.cells {
			Expect(par.cells[i].Position()).To(Equal(seq.cells[i].Position()))
			Expect(par.cells[i].State()).To(Equal(seq.cells[i].State()))
		}
	})

	It("handles more workers than agents", func() {
		w := buildWorld(16, 3)
		Expect(w.ticker.Run(ctx, 3)).To(Succeed())
		Expect(w.ticker.Clock().Tick).To(Equal(uint64(3)))
	})

	It("runs with no agents", func() {
		w := buildWorld(4, 0)
		before := w.fields[0].TotalQuantity()
		Expect(w.ticker.Tick(ctx)).To(Succeed())
		Expect(w.fields[0].TotalQuantity()).To(BeNumerically("<", before))
	})

	It("shows every agent the field as it was at the start of the tick", func() {
		domain := testDomain()
		f, err := field.New(domain, field.Options{Name: "signal", Boxes: [3]int{2, 2, 2}})
		Expect(err).NotTo(HaveOccurred())

		pos := dynamo.Vec3{1, 1, 1}
		a, b := &sensor{id: 0, pos: pos}, &sensor{id: 1, pos: pos}
		tk, err := ticker.New(ticker.Options{Workers: 2}, dynamo.NewClock(domain.Dt), domain, []*field.Field{f}, []agent.Agent{a, b})
		Expect(err).NotTo(HaveOccurred())

		Expect(tk.Tick(ctx)).To(Succeed())
		Expect(a.seen).To(Equal([]float64{0}))
		Expect(b.seen).To(Equal([]float64{0}))
		Expect(f.Quantity(f.Locate(pos))).To(Equal(2.0))
		Expect(tk.Stats().Exchange).To(Equal(uint64(2)))
	})

	It("runs the interaction hook after commits and before field updates", func() {
		domain := testDomain()
		f, err := field.New(domain, field.Options{Name: "signal", Boxes: [3]int{2, 2, 2}, DecayRate: 1})
		Expect(err).NotTo(HaveOccurred())

		var order []string
		var atHook float64
		a := &sensor{id: 0, pos: dynamo.Vec3{1, 1, 1}}
		opts := ticker.Options{
			Before: func(context.Context, *dynamo.Clock) error {
				order = append(order, "before")
				return nil
			},
			After: func(context.Context, *dynamo.Clock) error {
				order = append(order, "after")
				atHook = f.TotalQuantity()
				return nil
			},
		}
		tk, err := ticker.New(opts, dynamo.NewClock(domain.Dt), domain, []*field.Field{f}, []agent.Agent{a})
		Expect(err).NotTo(HaveOccurred())

		Expect(tk.Tick(ctx)).To(Succeed())
		Expect(order).To(Equal([]string{"before", "after"}))
		Expect(atHook).To(Equal(1.0))
		Expect(f.TotalQuantity()).To(BeNumerically("~", 0.9, 1e-12))
	})

	It("reports agent failures with context and does not advance the clock", func() {
		domain := testDomain()
		f, err := field.New(domain, field.Options{Name: "signal", Boxes: [3]int{2, 2, 2}})
		Expect(err).NotTo(HaveOccurred())

		ok := &sensor{id: 0, pos: dynamo.Vec3{1, 1, 1}}
		bad := &sensor{id: 7, fail: true}
		tk, err := ticker.New(ticker.Options{Workers: 2}, dynamo.NewClock(domain.Dt), domain, []*field.Field{f}, []agent.Agent{ok, bad})
		Expect(err).NotTo(HaveOccurred())

		err = tk.Tick(ctx)
		Expect(err).To(MatchError(errBoom))
		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Agent).To(Equal(7))
		Expect(tk.Clock().Tick).To(BeZero())
		Expect(f.TotalQuantity()).To(BeZero())
	})

	It("leaves agents that acted before a failure advanced", func() {
		domain := testDomain()
		f, err := field.New(domain, field.Options{Name: "signal", Boxes: [3]int{2, 2, 2}})
		Expect(err).NotTo(HaveOccurred())

		ok := &sensor{id: 0, pos: dynamo.Vec3{1, 1, 1}}
		bad := &sensor{id: 1, fail: true}
		tk, err := ticker.New(ticker.Options{Workers: 1}, dynamo.NewClock(domain.Dt), domain, []*field.Field{f}, []agent.Agent{ok, bad})
		Expect(err).NotTo(HaveOccurred())

		Expect(tk.Tick(ctx)).To(MatchError(errBoom))
		Expect(tk.Tick(ctx)).To(MatchError(errBoom))
		Expect(ok.moves).To(Equal(2))
		Expect(ok.seen).To(HaveLen(2))
		Expect(tk.Clock().Tick).To(BeZero())
		Expect(f.TotalQuantity()).To(BeZero())
		Expect(tk.Stats().Actions).To(BeZero())
	})

	It("stops on a cancelled context", func() {
		w := buildWorld(2, 4)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		Expect(w.ticker.Tick(cctx)).To(MatchError(context.Canceled))
		Expect(w.ticker.Clock().Tick).To(BeZero())
	})

	It("rejects duplicate field names", func() {
		domain := testDomain()
		f1, _ := field.New(domain, field.Options{Name: "x", Boxes: [3]int{1, 1, 1}})
		f2, _ := field.New(domain, field.Options{Name: "x", Boxes: [3]int{1, 1, 1}})
		_, err := ticker.New(ticker.Options{}, dynamo.NewClock(domain.Dt), domain, []*field.Field{f1, f2}, nil)
		Expect(err).To(HaveOccurred())
	})
})
