package systems

import (
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"
)

func TestRandomActivationEachOnce(t *testing.T) {
	es := newEntities(t, 50)
	s := NewRandomActivation(rand.New(rand.NewSource(1)))
	for _, e := range es {
		s.Add(e)
	}

	for step := 0; step < 5; step++ {
		seen := make(map[ecs.Entity]int)
		s.Step(func(e ecs.Entity) { seen[e]++ })
		if len(seen) != len(es) {
			t.Fatalf("step %d activated %d agents, want %d", step, len(seen), len(es))
		}
		for e, n := range seen {
			if n != 1 {
				t.Errorf("step %d activated %v %d times", step, e, n)
			}
		}
	}
	if s.Steps() != 5 {
		t.Errorf("Steps = %d, want 5", s.Steps())
	}
	if s.AgentCount() != 50 {
		t.Errorf("AgentCount = %d, want 50", s.AgentCount())
	}
}

func TestRandomActivationReproducible(t *testing.T) {
	es := newEntities(t, 20)
	order := func(seed int64) []ecs.Entity {
		s := NewRandomActivation(rand.New(rand.NewSource(seed)))
		for _, e := range es {
			s.Add(e)
		}
		var out []ecs.Entity
		for i := 0; i < 3; i++ {
			s.Step(func(e ecs.Entity) { out = append(out, e) })
		}
		return out
	}

	a, b := order(7), order(7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("orders diverge at %d with the same seed", i)
		}
	}
}

func TestRandomActivationReshuffles(t *testing.T) {
	es := newEntities(t, 20)
	s := NewRandomActivation(rand.New(rand.NewSource(3)))
	for _, e := range es {
		s.Add(e)
	}

	var first, second []ecs.Entity
	s.Step(func(e ecs.Entity) { first = append(first, e) })
	s.Step(func(e ecs.Entity) { second = append(second, e) })

	same := true
	for i := range first {
		if first[i] != second[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("two consecutive steps used the same order")
	}
}

func TestRandomActivationEmpty(t *testing.T) {
	s := NewRandomActivation(rand.New(rand.NewSource(1)))
	called := false
	s.Step(func(ecs.Entity) { called = true })
	if called {
		t.Error("empty scheduler activated something")
	}
}
