package components

import "math"

// Kind is the SEIR compartment an agent belongs to.
type Kind uint8

const (
	Susceptible Kind = iota
	Exposed
	Infected
	Removed
)

// NumKinds is the number of SEIR compartments.
const NumKinds = 4

// Unbounded marks a disease state that never expires on its own.
const Unbounded = -1

// String returns the compartment name.
func (k Kind) String() string {
	switch k {
	case Susceptible:
		return "susceptible"
	case Exposed:
		return "exposed"
	case Infected:
		return "infected"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Letter returns the single-letter compartment code (S, E, I, R).
func (k Kind) Letter() string {
	switch k {
	case Susceptible:
		return "S"
	case Exposed:
		return "E"
	case Infected:
		return "I"
	case Removed:
		return "R"
	}
	return "?"
}

// DiseaseState is an agent's SEIR compartment plus its countdown.
// Remaining counts ticks left in the compartment (Unbounded for S and R).
// Assigned is the lifespan given at the transition, so Assigned-Remaining
// is the number of ticks spent in the compartment.
// A transition replaces the whole value; Kind is never edited in place.
type DiseaseState struct {
	Kind      Kind
	Remaining int
	Assigned  int
}

// NewSusceptible returns an untimed susceptible state.
func NewSusceptible() DiseaseState {
	return DiseaseState{Kind: Susceptible, Remaining: Unbounded, Assigned: Unbounded}
}

// NewRemoved returns the absorbing removed state.
func NewRemoved() DiseaseState {
	return DiseaseState{Kind: Removed, Remaining: Unbounded, Assigned: Unbounded}
}

// NewTimedState returns a state of the given kind lasting round(ticks) ticks.
// Durations that round below one tick are raised to one tick so the state
// always expires.
func NewTimedState(kind Kind, ticks float64) DiseaseState {
	n := int(math.Round(ticks))
	if n < 1 {
		n = 1
	}
	return DiseaseState{Kind: kind, Remaining: n, Assigned: n}
}

// Decrement counts down one tick. Unbounded states are left alone.
func (d *DiseaseState) Decrement() {
	if d.Remaining > Unbounded {
		d.Remaining--
	}
}

// Elapsed returns ticks spent since the state was assigned.
func (d DiseaseState) Elapsed() int {
	return d.Assigned - d.Remaining
}

// Timed reports whether the state carries a countdown.
func (d DiseaseState) Timed() bool {
	return d.Assigned != Unbounded
}

// Expired reports whether a timed state has just reached zero.
func (d DiseaseState) Expired() bool {
	return d.Timed() && d.Remaining == 0
}
