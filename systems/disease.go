package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/seir/components"
)

// Movement thresholds on the unit interval: below the first steps +1, below
// the second steps -1, otherwise stays.
const (
	moveForward  = 1.0 / 3.0
	moveBackward = 2.0 / 3.0
)

// DiseaseParams holds the immutable per-run disease parameters.
// Durations are in days and converted to ticks with DaySteps.
type DiseaseParams struct {
	InfectionRate       float64
	MinExposed          float64
	MaxExposed          float64
	MinInfected         float64
	MaxInfected         float64
	DaySteps            int
	IsolationOnsetTicks int // ticks after infection onset when movement halts
}

// Events counts state transitions since the last TakeEvents call.
type Events struct {
	Exposures  int // S -> E
	Infections int // E -> I
	Removals   int // I -> R
	Isolations int // movement halted
	Releases   int // movement resumed after isolation
}

// DiseaseSystem runs the per-agent SEIR state machine, contact tracking,
// transmission and movement.
type DiseaseSystem struct {
	params DiseaseParams
	grid   *Grid
	rng    *rand.Rand

	agentMap    *ecs.Map[components.Agent]
	posMap      *ecs.Map[components.Position]
	stateMap    *ecs.Map[components.DiseaseState]
	mobilityMap *ecs.Map[components.Mobility]
	contactMap  *ecs.Map[components.Contacts]

	events Events
}

// NewDiseaseSystem creates a disease system over the world's agents.
func NewDiseaseSystem(world *ecs.World, grid *Grid, rng *rand.Rand, params DiseaseParams) *DiseaseSystem {
	return &DiseaseSystem{
		params:      params,
		grid:        grid,
		rng:         rng,
		agentMap:    ecs.NewMap[components.Agent](world),
		posMap:      ecs.NewMap[components.Position](world),
		stateMap:    ecs.NewMap[components.DiseaseState](world),
		mobilityMap: ecs.NewMap[components.Mobility](world),
		contactMap:  ecs.NewMap[components.Contacts](world),
	}
}

// Params returns the system's parameters.
func (s *DiseaseSystem) Params() DiseaseParams {
	return s.params
}

// ExposedState draws a fresh exposed state with a uniform incubation period.
func (s *DiseaseSystem) ExposedState() components.DiseaseState {
	return components.NewTimedState(components.Exposed, s.drawTicks(s.params.MinExposed, s.params.MaxExposed))
}

// InfectedState draws a fresh infected state with a uniform illness period.
func (s *DiseaseSystem) InfectedState() components.DiseaseState {
	return components.NewTimedState(components.Infected, s.drawTicks(s.params.MinInfected, s.params.MaxInfected))
}

// drawTicks samples U[lo, hi) days and converts to ticks.
func (s *DiseaseSystem) drawTicks(lo, hi float64) float64 {
	return (lo + s.rng.Float64()*(hi-lo)) * float64(s.params.DaySteps)
}

// Activate runs one agent's step. Agents activated later in the same tick
// observe this agent's writes, including neighbours it has just exposed.
func (s *DiseaseSystem) Activate(e ecs.Entity) {
	state := s.stateMap.Get(e)
	mob := s.mobilityMap.Get(e)

	state.Decrement()
	mob.IsolationCountdown--

	switch state.Kind {
	case components.Exposed:
		if state.Remaining == 0 {
			*state = s.InfectedState()
			s.events.Infections++
		}
	case components.Infected:
		if state.Remaining == 0 {
			*state = components.NewRemoved()
			s.events.Removals++
		}
	}

	// An agent that turned infectious this tick has Elapsed() == 0.
	if state.Kind == components.Infected && mob.CanMove && state.Elapsed() == s.params.IsolationOnsetTicks {
		mob.CanMove = false
		s.events.Isolations++
	}

	if !mob.CanMove {
		if mob.IsolationCountdown != 0 {
			return
		}
		mob.CanMove = true
		s.events.Releases++
	}

	pos := s.posMap.Get(e)
	s.contact(e, pos, state.Kind == components.Infected)

	dx := s.step()
	dy := s.step()
	*pos = s.grid.Relocate(e, *pos, pos.X+dx, pos.Y+dy)
}

// contact records every mobile cell-mate and, when infectious, gives each
// mobile susceptible cell-mate an independent chance of exposure.
func (s *DiseaseSystem) contact(e ecs.Entity, pos *components.Position, infectious bool) {
	occupants := s.grid.CellContents(pos.X, pos.Y)
	if len(occupants) < 2 {
		return
	}
	contacts := s.contactMap.Get(e)

	for _, other := range occupants {
		if other == e {
			continue
		}
		if !s.mobilityMap.Get(other).CanMove {
			continue
		}
		contacts.Add(s.agentMap.Get(other).ID)

		if !infectious {
			continue
		}
		target := s.stateMap.Get(other)
		if target.Kind == components.Susceptible && s.rng.Float64() < s.params.InfectionRate {
			*target = s.ExposedState()
			s.events.Exposures++
		}
	}
}

// step draws a ternary move: +1, -1 or 0.
func (s *DiseaseSystem) step() int {
	r := s.rng.Float64()
	switch {
	case r < moveForward:
		return 1
	case r < moveBackward:
		return -1
	}
	return 0
}

// TakeEvents returns the transitions since the previous call and resets them.
func (s *DiseaseSystem) TakeEvents() Events {
	ev := s.events
	s.events = Events{}
	return ev
}
