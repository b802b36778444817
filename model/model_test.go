package model

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/seir/components"
	"github.com/pthm-cable/seir/config"
	"github.com/pthm-cable/seir/systems"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg
}

func newModel(t *testing.T, cfg *config.Config, seed int64) *Model {
	t.Helper()
	m, err := New(cfg, seed)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestNewSeedsTargets(t *testing.T) {
	cfg := testConfig(t)
	cfg.Population.Density = 50
	cfg.Population.InitialInfected = 10
	m := newModel(t, cfg, 3)

	if m.AgentCount() != 50 {
		t.Errorf("AgentCount = %d, want 50", m.AgentCount())
	}
	if m.InitialInfected() != 10 {
		t.Errorf("InitialInfected = %d, want 10", m.InitialInfected())
	}

	c := m.Snapshot()
	if c.Infected != 10 || c.Susceptible != 40 || c.Exposed != 0 || c.Removed != 0 {
		t.Errorf("initial counts = %+v", c)
	}
	if c.TotalInfected != 10 {
		t.Errorf("TotalInfected = %d, want 10", c.TotalInfected)
	}
	if !c.Running {
		t.Error("model with infected agents is not running")
	}

	// Seeding places at most one agent per cell
	seen := make(map[[2]int]bool)
	for i, a := range m.Agents(nil) {
		if a.ID != uint32(i) {
			t.Errorf("agent %d has ID %d", i, a.ID)
		}
		key := [2]int{a.X, a.Y}
		if seen[key] {
			t.Errorf("two agents seeded in cell %v", key)
		}
		seen[key] = true
	}
}

func TestNewFractionalDensity(t *testing.T) {
	cfg := testConfig(t)
	cfg.World.Width, cfg.World.Height = 10, 10
	cfg.Population.Density = 0.2
	cfg.Population.InitialInfected = 0.25
	m := newModel(t, cfg, 5)

	if m.AgentCount() != 20 {
		t.Errorf("AgentCount = %d, want 20", m.AgentCount())
	}
	if m.InitialInfected() != 5 {
		t.Errorf("InitialInfected = %d, want 5", m.InitialInfected())
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"min exposed above max", func(c *config.Config) { c.Disease.MinExposed = 9 }},
		{"min infected above max", func(c *config.Config) { c.Disease.MinInfected = 20 }},
		{"zero day steps", func(c *config.Config) { c.Schedule.DaySteps = 0 }},
		{"rate above one", func(c *config.Config) { c.Disease.InfectionRate = 1.5 }},
		{"negative isolation day", func(c *config.Config) { c.Schedule.DayIsolation = -1 }},
		{"empty grid", func(c *config.Config) { c.World.Width = 0 }},
		{"negative density", func(c *config.Config) { c.Population.Density = -3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.modify(cfg)
			if _, err := New(cfg, 1); !errors.Is(err, config.ErrInvalid) {
				t.Errorf("New error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestNewCopiesConfig(t *testing.T) {
	cfg := testConfig(t)
	m := newModel(t, cfg, 1)
	cfg.Disease.InfectionRate = 0

	if m.Params().InfectionRate == 0 {
		t.Error("editing the caller's config changed the model")
	}
}

func TestZeroPopulation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Population.Density = 0
	m := newModel(t, cfg, 1)

	if m.AgentCount() != 0 {
		t.Fatalf("AgentCount = %d, want 0", m.AgentCount())
	}
	m.Step()
	c := m.Snapshot()
	if c.AverageContact != 0 {
		t.Errorf("AverageContact = %v, want 0", c.AverageContact)
	}
	if c.Running {
		t.Error("empty model is running")
	}
	if err := m.Run(context.Background(), 0, nil); err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestPopulationConserved(t *testing.T) {
	m := newModel(t, testConfig(t), 7)
	n := m.AgentCount()

	err := m.Run(context.Background(), 400, func(c Counts) {
		if c.Population() != n {
			t.Fatalf("tick %d: S+E+I+R = %d, want %d", c.Tick, c.Population(), n)
		}
		if c.Isolated > n {
			t.Fatalf("tick %d: isolated %d exceeds population", c.Tick, c.Isolated)
		}
		if c.AverageContact < 0 {
			t.Fatalf("tick %d: negative average contact", c.Tick)
		}
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestKindsOnlyMoveForward(t *testing.T) {
	m := newModel(t, testConfig(t), 9)
	prev := m.Agents(nil)
	var cur []AgentView

	for tick := 0; tick < 300 && m.Running(); tick++ {
		m.Step()
		cur = m.Agents(cur[:0])
		for i := range cur {
			if cur[i].Kind < prev[i].Kind {
				t.Fatalf("tick %d: agent %d went %v -> %v", tick, cur[i].ID, prev[i].Kind, cur[i].Kind)
			}
		}
		prev, cur = cur, prev
	}
}

func TestRunResolvesAndStaysResolved(t *testing.T) {
	cfg := testConfig(t)
	cfg.World.Width, cfg.World.Height = 10, 10
	cfg.Population.Density = 30
	m := newModel(t, cfg, 4)

	if err := m.Run(context.Background(), 0, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	final := m.Snapshot()
	if final.Running || final.Infected != 0 || final.Exposed != 0 {
		t.Fatalf("Run returned with %+v", final)
	}

	for i := 0; i < 20; i++ {
		m.Step()
		c := m.Snapshot()
		if c.Running || c.Infected+c.Exposed != 0 {
			t.Fatalf("resolved model restarted: %+v", c)
		}
		if c.Removed != final.Removed || c.Susceptible != final.Susceptible {
			t.Fatalf("compartments changed after resolution: %+v", c)
		}
	}
}

func TestRunMaxTicks(t *testing.T) {
	m := newModel(t, testConfig(t), 2)
	calls := 0
	if err := m.Run(context.Background(), 5, func(Counts) { calls++ }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.Tick() != 5 || calls != 5 {
		t.Errorf("tick = %d, observer calls = %d, want 5 and 5", m.Tick(), calls)
	}
	if m.Day() != 1 {
		t.Errorf("Day = %d after 5 ticks of 5 steps, want 1", m.Day())
	}
}

func TestRunCancelled(t *testing.T) {
	m := newModel(t, testConfig(t), 2)
	ctx, cancel := context.WithCancel(context.Background())

	err := m.Run(ctx, 0, func(c Counts) {
		if c.Tick == 3 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if m.Tick() != 3 {
		t.Errorf("tick = %d, want 3", m.Tick())
	}
}

func TestZeroInfectionRate(t *testing.T) {
	cfg := testConfig(t)
	cfg.Disease.InfectionRate = 0
	m := newModel(t, cfg, 6)
	initialS := m.Snapshot().Susceptible

	err := m.Run(context.Background(), 200, func(c Counts) {
		if c.Susceptible != initialS || c.NewExposed != 0 {
			t.Fatalf("tick %d: exposure with zero infection rate: %+v", c.Tick, c)
		}
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := m.Snapshot().TotalInfected; got != m.InitialInfected() {
		t.Errorf("TotalInfected = %d, want %d", got, m.InitialInfected())
	}
}

func TestReproducibleWithSeed(t *testing.T) {
	run := func(seed int64) []Counts {
		m := newModel(t, testConfig(t), seed)
		var out []Counts
		if err := m.Run(context.Background(), 150, func(c Counts) { out = append(out, c) }); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return out
	}

	a, b := run(21), run(21)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different count sequences")
	}
}

func TestPeakTracking(t *testing.T) {
	m := newModel(t, testConfig(t), 8)
	maxSeen, maxTick := m.Snapshot().Infected, 0

	err := m.Run(context.Background(), 0, func(c Counts) {
		if c.Infected > maxSeen {
			maxSeen, maxTick = c.Infected, c.Tick
		}
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	c := m.Snapshot()
	if c.PeakInfected != maxSeen || c.PeakTick != maxTick {
		t.Errorf("peak = %d at tick %d, want %d at tick %d", c.PeakInfected, c.PeakTick, maxSeen, maxTick)
	}
	if c.TotalInfected < c.PeakInfected {
		t.Errorf("TotalInfected %d below peak %d", c.TotalInfected, c.PeakInfected)
	}
}

// scenarioModel builds an unseeded 2x2 model with one tick per day so tests
// can place agents by hand.
func scenarioModel(t *testing.T) *Model {
	t.Helper()
	cfg := testConfig(t)
	cfg.World.Width, cfg.World.Height = 2, 2
	cfg.Disease.InfectionRate = 1
	cfg.Disease.MinExposed, cfg.Disease.MaxExposed = 2, 2
	cfg.Disease.MinInfected, cfg.Disease.MaxInfected = 3, 3
	cfg.Schedule.DaySteps = 1
	cfg.Schedule.DayIsolation = 100
	if err := cfg.Validate(); err != nil {
		t.Fatalf("scenario config: %v", err)
	}
	cfg.ComputeDerived()
	return newEmpty(cfg, 1)
}

// stepInOrder runs one tick with a fixed activation order.
func stepInOrder(m *Model, order ...ecs.Entity) {
	for _, e := range order {
		m.disease.Activate(e)
	}
	m.aggregate(m.disease.TakeEvents())
}

func TestSingleCellOutbreak(t *testing.T) {
	m := scenarioModel(t)
	inf := m.spawn(0, 0, components.NewTimedState(components.Infected, 4))
	sus := m.spawn(0, 0, components.NewSusceptible())

	kinds := func() (components.Kind, components.Kind) {
		return m.stateMap.Get(inf).Kind, m.stateMap.Get(sus).Kind
	}

	stepInOrder(m, inf, sus)
	if a, b := kinds(); a != components.Infected || b != components.Exposed {
		t.Fatalf("tick 1: kinds = %v, %v; want infected, exposed", a, b)
	}

	stepInOrder(m, inf, sus)
	if a, b := kinds(); a != components.Infected || b != components.Infected {
		t.Fatalf("tick 2: kinds = %v, %v; want both infected", a, b)
	}

	stepInOrder(m, inf, sus)
	if a, _ := kinds(); a != components.Infected {
		t.Fatalf("tick 3: original agent is %v, want infected", a)
	}

	stepInOrder(m, inf, sus)
	if a, _ := kinds(); a != components.Removed {
		t.Fatalf("tick 4: original agent is %v, want removed", a)
	}

	c := m.Snapshot()
	if c.Population() != 2 || c.Removed != 1 || c.Infected != 1 {
		t.Errorf("tick 4 counts = %+v", c)
	}
	if !c.Running {
		t.Error("model stopped while an agent is still infected")
	}

	stepInOrder(m, inf, sus)
	if c := m.Snapshot(); c.Running || c.Removed != 2 {
		t.Errorf("tick 5 counts = %+v, want both removed and stopped", c)
	}
}

func TestIsolatedAgentCounted(t *testing.T) {
	m := scenarioModel(t)
	m.params.IsolationOnsetTicks = 1
	m.disease = systems.NewDiseaseSystem(m.world, m.grid, m.rng, m.params)
	e := m.spawn(1, 1, components.NewTimedState(components.Infected, 5))

	stepInOrder(m, e)
	c := m.Snapshot()
	if c.Isolated != 1 || c.IsolationsStarted != 1 {
		t.Errorf("counts = %+v, want one isolation", c)
	}
	if got := m.Agents(nil)[0]; got.CanMove || got.X != 1 || got.Y != 1 {
		t.Errorf("isolated agent view = %+v", got)
	}
}

func TestIsolationOnsetIgnoresDaySteps(t *testing.T) {
	cfg := testConfig(t)
	cfg.World.Width, cfg.World.Height = 4, 4
	cfg.Schedule.DaySteps = 5
	cfg.Schedule.DayIsolation = 2
	cfg.ComputeDerived()

	m := newEmpty(cfg, 1)
	if m.params.IsolationOnsetTicks != 2 {
		t.Fatalf("IsolationOnsetTicks = %d, want 2", m.params.IsolationOnsetTicks)
	}
	e := m.spawn(0, 0, components.NewTimedState(components.Infected, 100))

	for tick := 1; tick <= 3; tick++ {
		stepInOrder(m, e)
		elapsed := m.stateMap.Get(e).Elapsed()
		canMove := m.mobilityMap.Get(e).CanMove
		if want := elapsed < 2; canMove != want {
			t.Fatalf("tick %d: elapsed %d, CanMove = %v, want %v", tick, elapsed, canMove, want)
		}
	}
}
