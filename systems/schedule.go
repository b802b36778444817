package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"
)

// RandomActivation activates every agent once per step in a fresh random order.
type RandomActivation struct {
	rng    *rand.Rand
	agents []ecs.Entity
	order  []ecs.Entity // reused permutation buffer
	steps  int
}

// NewRandomActivation creates a scheduler drawing permutations from rng.
func NewRandomActivation(rng *rand.Rand) *RandomActivation {
	return &RandomActivation{rng: rng}
}

// Add registers an agent. Agents are added only during seeding.
func (s *RandomActivation) Add(e ecs.Entity) {
	s.agents = append(s.agents, e)
}

// Step draws a uniform permutation of all agents, then calls activate on each
// exactly once in that order. The permutation is drawn before any activation
// so it consumes the random stream first.
func (s *RandomActivation) Step(activate func(ecs.Entity)) {
	s.order = append(s.order[:0], s.agents...)
	s.rng.Shuffle(len(s.order), func(i, j int) {
		s.order[i], s.order[j] = s.order[j], s.order[i]
	})
	for _, e := range s.order {
		activate(e)
	}
	s.steps++
}

// AgentCount returns the population size.
func (s *RandomActivation) AgentCount() int {
	return len(s.agents)
}

// Steps returns how many times Step has run.
func (s *RandomActivation) Steps() int {
	return s.steps
}
