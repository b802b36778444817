// Package telemetry provides outbreak tracking, milestones, snapshots and CSV output.
package telemetry

import "github.com/pthm-cable/seir/model"

// Collector accumulates transition events within time windows and produces WindowStats.
type Collector struct {
	windowTicks int
	daySteps    int

	// Current window tracking
	windowStartTick int

	// Event counters for current window
	exposures  int
	infections int
	removals   int
	isolations int
	releases   int
}

// NewCollector creates a new stats collector.
// windowTicks: how many ticks each stats window lasts
// daySteps: ticks per simulated day (used for tick-to-day conversion)
func NewCollector(windowTicks, daySteps int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	if daySteps < 1 {
		daySteps = 1
	}
	return &Collector{
		windowTicks: windowTicks,
		daySteps:    daySteps,
	}
}

// RecordExposures records n susceptible agents becoming exposed.
func (c *Collector) RecordExposures(n int) {
	c.exposures += n
}

// RecordInfections records n exposed agents becoming infectious.
func (c *Collector) RecordInfections(n int) {
	c.infections += n
}

// RecordRemovals records n infected agents being removed.
func (c *Collector) RecordRemovals(n int) {
	c.removals += n
}

// RecordIsolations records n agents halting movement.
func (c *Collector) RecordIsolations(n int) {
	c.isolations += n
}

// RecordReleases records n agents leaving isolation.
func (c *Collector) RecordReleases(n int) {
	c.releases += n
}

// RecordTick records every transition reported by a tick's counts.
func (c *Collector) RecordTick(counts model.Counts) {
	c.RecordExposures(counts.NewExposed)
	c.RecordInfections(counts.NewInfected)
	c.RecordRemovals(counts.NewRemoved)
	c.RecordIsolations(counts.IsolationsStarted)
	c.RecordReleases(counts.IsolationsLifted)
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// contacts holds each agent's contact-set size for percentile calculation.
func (c *Collector) Flush(counts model.Counts, contacts []float64) WindowStats {
	mean, p10, p50, p90 := ComputeStats(contacts)

	var attack float64
	if pop := counts.Population(); pop > 0 {
		attack = float64(counts.TotalInfected) / float64(pop)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   counts.Tick,
		Day:             float64(counts.Tick) / float64(c.daySteps),

		Susceptible: counts.Susceptible,
		Exposed:     counts.Exposed,
		Infected:    counts.Infected,
		Removed:     counts.Removed,
		Isolated:    counts.Isolated,

		Exposures:  c.exposures,
		Infections: c.infections,
		Removals:   c.removals,
		Isolations: c.isolations,
		Releases:   c.releases,

		AverageContact: counts.AverageContact,
		ContactMean:    mean,
		ContactP10:     p10,
		ContactP50:     p50,
		ContactP90:     p90,

		TotalInfected: counts.TotalInfected,
		AttackRate:    attack,
		PeakInfected:  counts.PeakInfected,
		Running:       counts.Running,
	}

	// Reset for next window
	c.windowStartTick = counts.Tick
	c.exposures = 0
	c.infections = 0
	c.removals = 0
	c.isolations = 0
	c.releases = 0

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int {
	return c.windowTicks
}
