package telemetry

import "testing"

func findMilestone(ms []Milestone, typ MilestoneType) *Milestone {
	for i := range ms {
		if ms[i].Type == typ {
			return &ms[i]
		}
	}
	return nil
}

func TestMilestoneDetector_FirstTransmissionOnce(t *testing.T) {
	md := NewMilestoneDetector(10, 0.1)

	if ms := md.Check(WindowStats{WindowEndTick: 5, Infected: 3, Running: true}); findMilestone(ms, MilestoneFirstTransmission) != nil {
		t.Fatal("first_transmission before any exposure")
	}

	ms := md.Check(WindowStats{WindowEndTick: 10, Exposures: 2, Infected: 3, Running: true})
	m := findMilestone(ms, MilestoneFirstTransmission)
	if m == nil {
		t.Fatal("expected first_transmission milestone")
	}
	if m.Tick != 10 {
		t.Errorf("tick = %d, want 10", m.Tick)
	}

	ms = md.Check(WindowStats{WindowEndTick: 15, Exposures: 4, Infected: 3, Running: true})
	if findMilestone(ms, MilestoneFirstTransmission) != nil {
		t.Error("first_transmission fired twice")
	}
}

func TestMilestoneDetector_FirstIsolation(t *testing.T) {
	md := NewMilestoneDetector(10, 0.1)

	ms := md.Check(WindowStats{WindowEndTick: 30, Isolations: 1, Running: true})
	if findMilestone(ms, MilestoneFirstIsolation) == nil {
		t.Fatal("expected first_isolation milestone")
	}
	ms = md.Check(WindowStats{WindowEndTick: 35, Isolations: 3, Running: true})
	if findMilestone(ms, MilestoneFirstIsolation) != nil {
		t.Error("first_isolation fired twice")
	}
}

func TestMilestoneDetector_Surge(t *testing.T) {
	md := NewMilestoneDetector(10, 0.1)

	// Steady low transmission
	for i := 0; i < 5; i++ {
		md.Check(WindowStats{WindowEndTick: i * 5, Exposures: 2, Running: true})
	}

	ms := md.Check(WindowStats{WindowEndTick: 25, Exposures: 9, Running: true})
	if findMilestone(ms, MilestoneTransmissionSurge) == nil {
		t.Error("expected transmission_surge milestone")
	}
}

func TestMilestoneDetector_PeakReportedAfterDrop(t *testing.T) {
	md := NewMilestoneDetector(10, 0.1)
	infected := []int{5, 20, 40, 38, 37, 30}

	var peak *Milestone
	for i, n := range infected {
		ms := md.Check(WindowStats{WindowEndTick: (i + 1) * 5, Day: float64(i + 1), Infected: n, Running: true})
		if m := findMilestone(ms, MilestonePeakInfected); m != nil {
			if i != 5 {
				t.Fatalf("peak reported at window %d (infected %d), want window 5", i, n)
			}
			peak = m
		}
	}

	if peak == nil {
		t.Fatal("expected peak_infected milestone")
	}
	if peak.Tick != 15 || peak.Day != 3 {
		t.Errorf("peak at tick %d day %v, want tick 15 day 3", peak.Tick, peak.Day)
	}
}

func TestMilestoneDetector_Resolved(t *testing.T) {
	md := NewMilestoneDetector(10, 0.1)
	md.Check(WindowStats{WindowEndTick: 5, Infected: 2, Running: true})

	ms := md.Check(WindowStats{WindowEndTick: 10, Removed: 2, TotalInfected: 2, AttackRate: 0.5})
	if findMilestone(ms, MilestoneResolved) == nil {
		t.Fatal("expected outbreak_resolved milestone")
	}
	ms = md.Check(WindowStats{WindowEndTick: 15, Removed: 2})
	if findMilestone(ms, MilestoneResolved) != nil {
		t.Error("outbreak_resolved fired twice")
	}
}
