package telemetry

import (
	"testing"

	"github.com/pthm-cable/seir/model"
)

func TestCollectorWindows(t *testing.T) {
	c := NewCollector(5, 5)

	for tick := 1; tick <= 4; tick++ {
		c.RecordTick(model.Counts{Tick: tick, NewExposed: 1, NewInfected: 2})
		if c.ShouldFlush(tick) {
			t.Fatalf("ShouldFlush(%d) before the window ended", tick)
		}
	}
	c.RecordTick(model.Counts{Tick: 5, NewRemoved: 1, IsolationsStarted: 2, IsolationsLifted: 1})
	if !c.ShouldFlush(5) {
		t.Fatal("ShouldFlush(5) = false at window end")
	}

	counts := model.Counts{
		Tick:          5,
		Susceptible:   6,
		Exposed:       1,
		Infected:      2,
		Removed:       1,
		TotalInfected: 4,
		Running:       true,
	}
	stats := c.Flush(counts, []float64{1, 2, 3, 4})

	if stats.WindowStartTick != 0 || stats.WindowEndTick != 5 || stats.Day != 1 {
		t.Errorf("window = [%d, %d] day %v", stats.WindowStartTick, stats.WindowEndTick, stats.Day)
	}
	if stats.Exposures != 4 || stats.Infections != 8 || stats.Removals != 1 {
		t.Errorf("events = %d/%d/%d, want 4/8/1", stats.Exposures, stats.Infections, stats.Removals)
	}
	if stats.Isolations != 2 || stats.Releases != 1 {
		t.Errorf("isolations = %d, releases = %d", stats.Isolations, stats.Releases)
	}
	if stats.AttackRate != 0.4 {
		t.Errorf("AttackRate = %v, want 0.4", stats.AttackRate)
	}
	if stats.ContactMean != 2.5 {
		t.Errorf("ContactMean = %v, want 2.5", stats.ContactMean)
	}

	// Counters reset and the next window starts at the flush tick
	if c.ShouldFlush(9) {
		t.Error("ShouldFlush(9) true one tick before the second window ends")
	}
	next := c.Flush(model.Counts{Tick: 10}, nil)
	if next.WindowStartTick != 5 || next.Exposures != 0 {
		t.Errorf("second window = %+v", next)
	}
	if next.AttackRate != 0 {
		t.Errorf("AttackRate with no population = %v, want 0", next.AttackRate)
	}
}

func TestCollectorMinimumWindow(t *testing.T) {
	c := NewCollector(0, 0)
	if c.WindowTicks() != 1 {
		t.Errorf("WindowTicks = %d, want 1", c.WindowTicks())
	}
	if !c.ShouldFlush(1) {
		t.Error("single-tick window not flushed after one tick")
	}
}
