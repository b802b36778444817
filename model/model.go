// Package model owns an outbreak simulation: the agent world, the grid, the
// activation schedule and the per-tick compartment counts.
package model

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/seir/components"
	"github.com/pthm-cable/seir/config"
	"github.com/pthm-cable/seir/systems"
)

// Phase names reported to a PhaseTimer during Step.
const (
	PhaseSchedule  = "schedule"
	PhaseAggregate = "aggregate"
)

// PhaseTimer receives phase boundaries during Step.
type PhaseTimer interface {
	StartPhase(phase string)
}

// Counts is the aggregated state of the model after a tick.
type Counts struct {
	Tick int
	Day  int

	Susceptible int
	Exposed     int
	Infected    int
	Removed     int
	Isolated    int

	AverageContact float64
	Running        bool

	// Cumulative
	TotalInfected int // initially infected plus every exposure so far
	PeakInfected  int
	PeakTick      int

	// Transitions during this tick
	NewExposed        int
	NewInfected       int
	NewRemoved        int
	IsolationsStarted int
	IsolationsLifted  int
}

// Population returns S+E+I+R.
func (c Counts) Population() int {
	return c.Susceptible + c.Exposed + c.Infected + c.Removed
}

// ByKind returns the count for a single compartment.
func (c Counts) ByKind(k components.Kind) int {
	switch k {
	case components.Susceptible:
		return c.Susceptible
	case components.Exposed:
		return c.Exposed
	case components.Infected:
		return c.Infected
	case components.Removed:
		return c.Removed
	}
	return 0
}

// AgentView is a read-only copy of one agent's observable state.
type AgentView struct {
	ID       uint32
	X, Y     int
	Kind     components.Kind
	CanMove  bool
	Contacts int
}

// Model is a single outbreak run. It is not safe for concurrent use.
type Model struct {
	cfg    *config.Config
	params systems.DiseaseParams
	seed   int64
	rng    *rand.Rand

	world   *ecs.World
	creator *ecs.Map5[components.Agent, components.Position, components.DiseaseState, components.Mobility, components.Contacts]
	filter  *ecs.Filter5[components.Agent, components.Position, components.DiseaseState, components.Mobility, components.Contacts]

	stateMap    *ecs.Map[components.DiseaseState]
	mobilityMap *ecs.Map[components.Mobility]
	contactMap  *ecs.Map[components.Contacts]

	grid     *systems.Grid
	schedule *systems.RandomActivation
	disease  *systems.DiseaseSystem
	timer    PhaseTimer

	nextID          uint32
	initialInfected int
	counts          Counts
}

// ParamsFromConfig converts a loaded configuration into engine parameters.
func ParamsFromConfig(cfg *config.Config) systems.DiseaseParams {
	return systems.DiseaseParams{
		InfectionRate:       cfg.Disease.InfectionRate,
		MinExposed:          cfg.Disease.MinExposed,
		MaxExposed:          cfg.Disease.MaxExposed,
		MinInfected:         cfg.Disease.MinInfected,
		MaxInfected:         cfg.Disease.MaxInfected,
		DaySteps:            cfg.Schedule.DaySteps,
		IsolationOnsetTicks: cfg.Derived.IsolationOnsetTicks,
	}
}

// New validates cfg and seeds a model with the given RNG seed.
// The configuration is copied; later edits to cfg do not affect the model.
func New(cfg *config.Config, seed int64) (*Model, error) {
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	cfg.ComputeDerived()

	m := newEmpty(cfg, seed)
	m.populate()
	m.aggregate(systems.Events{})
	return m, nil
}

// newEmpty builds the world and systems without seeding any agents.
func newEmpty(cfg *config.Config, seed int64) *Model {
	world := ecs.NewWorld()
	rng := rand.New(rand.NewSource(seed))
	grid := systems.NewGrid(cfg.World.Width, cfg.World.Height)
	params := ParamsFromConfig(cfg)

	return &Model{
		cfg:    cfg,
		params: params,
		seed:   seed,
		rng:    rng,
		world:  world,
		creator: ecs.NewMap5[components.Agent, components.Position, components.DiseaseState,
			components.Mobility, components.Contacts](world),
		filter: ecs.NewFilter5[components.Agent, components.Position, components.DiseaseState,
			components.Mobility, components.Contacts](world),
		stateMap:    ecs.NewMap[components.DiseaseState](world),
		mobilityMap: ecs.NewMap[components.Mobility](world),
		contactMap:  ecs.NewMap[components.Contacts](world),
		grid:        grid,
		schedule:    systems.NewRandomActivation(rng),
		disease:     systems.NewDiseaseSystem(world, grid, rng, params),
	}
}

// populate walks the cells in row-major order, admitting an agent to a cell
// while below the population target when a draw clears the placement
// threshold. Admitted agents become infected the same way until the infected
// target is met.
func (m *Model) populate() {
	target := m.cfg.Derived.PopulationTarget
	infectedTarget := m.cfg.Derived.InfectedTarget
	threshold := m.cfg.Population.PlacementThreshold

	placed := 0
	for y := 0; y < m.grid.Height(); y++ {
		for x := 0; x < m.grid.Width(); x++ {
			if placed >= target {
				return
			}
			if m.rng.Float64() <= threshold {
				continue
			}
			state := components.NewSusceptible()
			if m.initialInfected < infectedTarget && m.rng.Float64() > threshold {
				state = m.disease.InfectedState()
				m.initialInfected++
			}
			m.spawn(x, y, state)
			placed++
		}
	}
}

// spawn creates one agent at (x, y) and registers it with the grid and schedule.
func (m *Model) spawn(x, y int, state components.DiseaseState) ecs.Entity {
	agent := components.Agent{ID: m.nextID}
	m.nextID++
	pos := components.Position{X: x, Y: y}
	mob := components.Mobility{CanMove: true, IsolationCountdown: m.cfg.Schedule.IsolationCountdown}
	contacts := components.NewContacts()

	e := m.creator.NewEntity(&agent, &pos, &state, &mob, &contacts)
	m.grid.Place(e, x, y)
	m.schedule.Add(e)
	return e
}

// SetPhaseTimer attaches a timer notified at each Step phase. Nil detaches.
func (m *Model) SetPhaseTimer(t PhaseTimer) {
	m.timer = t
}

func (m *Model) startPhase(phase string) {
	if m.timer != nil {
		m.timer.StartPhase(phase)
	}
}

// Step advances the model by one tick: every agent is activated once in a
// fresh random order, then the counts are rebuilt from the grid.
func (m *Model) Step() {
	m.startPhase(PhaseSchedule)
	m.schedule.Step(m.disease.Activate)
	ev := m.disease.TakeEvents()

	m.startPhase(PhaseAggregate)
	m.aggregate(ev)
}

// aggregate recounts compartments over the grid in row-major order.
func (m *Model) aggregate(ev systems.Events) {
	prev := m.counts
	c := Counts{
		Tick:              m.schedule.Steps(),
		Day:               m.schedule.Steps() / m.params.DaySteps,
		TotalInfected:     prev.TotalInfected + ev.Exposures,
		PeakInfected:      prev.PeakInfected,
		PeakTick:          prev.PeakTick,
		NewExposed:        ev.Exposures,
		NewInfected:       ev.Infections,
		NewRemoved:        ev.Removals,
		IsolationsStarted: ev.Isolations,
		IsolationsLifted:  ev.Releases,
	}
	if c.Tick == 0 {
		c.TotalInfected = m.initialInfected
	}

	contacts := 0
	for _, occupants := range m.grid.All() {
		for _, e := range occupants {
			switch m.stateMap.Get(e).Kind {
			case components.Susceptible:
				c.Susceptible++
			case components.Exposed:
				c.Exposed++
			case components.Infected:
				c.Infected++
			case components.Removed:
				c.Removed++
			}
			if !m.mobilityMap.Get(e).CanMove {
				c.Isolated++
			}
			contacts += m.contactMap.Get(e).Len()
		}
	}

	if n := m.schedule.AgentCount(); n > 0 {
		c.AverageContact = float64(contacts) / float64(n)
	}
	c.Running = c.Infected+c.Exposed > 0
	if c.Infected > c.PeakInfected {
		c.PeakInfected = c.Infected
		c.PeakTick = c.Tick
	}
	m.counts = c
}

// Run steps the model until the outbreak resolves, maxTicks ticks have run
// (0 means no limit) or ctx is cancelled. observe, when non-nil, is called
// after every tick. Cancellation is checked between ticks only.
func (m *Model) Run(ctx context.Context, maxTicks int, observe func(Counts)) error {
	for ran := 0; m.counts.Running; ran++ {
		if maxTicks > 0 && ran >= maxTicks {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		m.Step()
		if observe != nil {
			observe(m.counts)
		}
	}
	return nil
}

// Snapshot returns a copy of the most recent counts.
func (m *Model) Snapshot() Counts {
	return m.counts
}

// Agents appends a view of every agent to dst in creation order.
func (m *Model) Agents(dst []AgentView) []AgentView {
	query := m.filter.Query()
	for query.Next() {
		agent, pos, state, mob, contacts := query.Get()
		dst = append(dst, AgentView{
			ID:       agent.ID,
			X:        pos.X,
			Y:        pos.Y,
			Kind:     state.Kind,
			CanMove:  mob.CanMove,
			Contacts: contacts.Len(),
		})
	}
	return dst
}

// AgentCount returns the number of seeded agents.
func (m *Model) AgentCount() int { return m.schedule.AgentCount() }

// InitialInfected returns the number of agents seeded as infected.
func (m *Model) InitialInfected() int { return m.initialInfected }

// Tick returns the number of completed ticks.
func (m *Model) Tick() int { return m.counts.Tick }

// Day returns the current simulated day.
func (m *Model) Day() int { return m.counts.Day }

// Running reports whether any agent is still exposed or infected.
func (m *Model) Running() bool { return m.counts.Running }

// Config returns the model's private copy of its configuration.
func (m *Model) Config() *config.Config { return m.cfg }

// Params returns the engine parameters.
func (m *Model) Params() systems.DiseaseParams { return m.params }

// Seed returns the RNG seed the model was built with.
func (m *Model) Seed() int64 { return m.seed }

// Width returns the grid width in cells.
func (m *Model) Width() int { return m.grid.Width() }

// Height returns the grid height in cells.
func (m *Model) Height() int { return m.grid.Height() }
