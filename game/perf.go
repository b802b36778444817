package game

import (
	"sort"
	"time"
)

// Frame sections timed in windowed mode.
const (
	FrameUpdate = "update"
	FrameDraw   = "draw"
)

// PerfStats tracks execution time for each frame section.
type PerfStats struct {
	samples    map[string][]time.Duration
	maxSamples int
}

// NewPerfStats creates a new performance stats tracker.
func NewPerfStats(maxSamples int) *PerfStats {
	if maxSamples < 1 {
		maxSamples = 120 // ~4 seconds of samples at 30fps
	}
	return &PerfStats{
		samples:    make(map[string][]time.Duration),
		maxSamples: maxSamples,
	}
}

// Record adds a duration sample for the named section.
func (p *PerfStats) Record(name string, d time.Duration) {
	p.samples[name] = append(p.samples[name], d)
	if len(p.samples[name]) > p.maxSamples {
		p.samples[name] = p.samples[name][1:]
	}
}

// Time runs fn and records its duration under name.
func (p *PerfStats) Time(name string, fn func()) {
	start := time.Now()
	fn()
	p.Record(name, time.Since(start))
}

// Avg returns the average duration for the named section.
func (p *PerfStats) Avg(name string) time.Duration {
	s := p.samples[name]
	if len(s) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s {
		total += d
	}
	return total / time.Duration(len(s))
}

// Total returns the sum of all average durations.
func (p *PerfStats) Total() time.Duration {
	var total time.Duration
	for name := range p.samples {
		total += p.Avg(name)
	}
	return total
}

// SortedNames returns section names sorted by average duration (descending).
func (p *PerfStats) SortedNames() []string {
	names := make([]string, 0, len(p.samples))
	for name := range p.samples {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return p.Avg(names[i]) > p.Avg(names[j])
	})
	return names
}
