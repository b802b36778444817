package telemetry

import (
	"fmt"
	"log/slog"
)

// MilestoneType identifies the type of milestone.
type MilestoneType string

const (
	MilestoneFirstTransmission MilestoneType = "first_transmission"
	MilestoneFirstIsolation    MilestoneType = "first_isolation"
	MilestoneTransmissionSurge MilestoneType = "transmission_surge"
	MilestonePeakInfected      MilestoneType = "peak_infected"
	MilestoneResolved          MilestoneType = "outbreak_resolved"
)

// Milestone represents an automatically detected moment in an outbreak.
type Milestone struct {
	Type        MilestoneType `csv:"type"`
	Tick        int           `csv:"tick"`
	Day         float64       `csv:"day"`
	Description string        `csv:"description"`
}

// LogMilestone logs the milestone using slog.
func (m Milestone) LogMilestone() {
	slog.Info("milestone",
		"type", string(m.Type),
		"tick", m.Tick,
		"day", m.Day,
		"description", m.Description,
	)
}

// MilestoneDetector detects notable moments from successive window stats.
type MilestoneDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	peakDrop float64 // fraction below the running peak that confirms it

	// State tracking
	seenTransmission bool
	seenIsolation    bool
	resolved         bool
	peak             WindowStats // window holding the running infected peak
	peakReported     bool
}

// NewMilestoneDetector creates a detector with the given history size.
// peakDrop is the fraction by which infected must fall below the running
// peak before the peak is reported.
func NewMilestoneDetector(historySize int, peakDrop float64) *MilestoneDetector {
	if historySize < 3 {
		historySize = 3 // minimum for a meaningful rolling average
	}
	if peakDrop <= 0 || peakDrop >= 1 {
		peakDrop = 0.1
	}
	return &MilestoneDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
		peakDrop:    peakDrop,
	}
}

// Check analyzes the latest stats and returns any triggered milestones.
func (md *MilestoneDetector) Check(stats WindowStats) []Milestone {
	var milestones []Milestone

	if m := md.checkFirstTransmission(stats); m != nil {
		milestones = append(milestones, *m)
	}
	if m := md.checkFirstIsolation(stats); m != nil {
		milestones = append(milestones, *m)
	}
	if m := md.checkSurge(stats); m != nil {
		milestones = append(milestones, *m)
	}
	if m := md.checkPeak(stats); m != nil {
		milestones = append(milestones, *m)
	}
	if m := md.checkResolved(stats); m != nil {
		milestones = append(milestones, *m)
	}

	md.addToHistory(stats)

	return milestones
}

func (md *MilestoneDetector) addToHistory(stats WindowStats) {
	md.history[md.historyIdx] = stats
	md.historyIdx = (md.historyIdx + 1) % md.historySize
	if md.historyIdx == 0 {
		md.historyFull = true
	}
}

func (md *MilestoneDetector) getHistory() []WindowStats {
	if md.historyFull {
		return md.history
	}
	return md.history[:md.historyIdx]
}

func (md *MilestoneDetector) checkFirstTransmission(stats WindowStats) *Milestone {
	if md.seenTransmission || stats.Exposures == 0 {
		return nil
	}
	md.seenTransmission = true
	return &Milestone{
		Type:        MilestoneFirstTransmission,
		Tick:        stats.WindowEndTick,
		Day:         stats.Day,
		Description: fmt.Sprintf("%d agents exposed in the first transmitting window", stats.Exposures),
	}
}

func (md *MilestoneDetector) checkFirstIsolation(stats WindowStats) *Milestone {
	if md.seenIsolation || stats.Isolations == 0 {
		return nil
	}
	md.seenIsolation = true
	return &Milestone{
		Type:        MilestoneFirstIsolation,
		Tick:        stats.WindowEndTick,
		Day:         stats.Day,
		Description: fmt.Sprintf("%d agents isolated", stats.Isolations),
	}
}

// checkSurge fires when exposures exceed twice the rolling average.
func (md *MilestoneDetector) checkSurge(stats WindowStats) *Milestone {
	history := md.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Exposures
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.Exposures) > avg*2.0 && stats.Exposures >= 3 {
		return &Milestone{
			Type:        MilestoneTransmissionSurge,
			Tick:        stats.WindowEndTick,
			Day:         stats.Day,
			Description: fmt.Sprintf("%d exposures is %.1fx average (%.1f)", stats.Exposures, float64(stats.Exposures)/avg, avg),
		}
	}
	return nil
}

// checkPeak tracks the running infected maximum and reports it once infected
// has fallen peakDrop below it.
func (md *MilestoneDetector) checkPeak(stats WindowStats) *Milestone {
	if md.peakReported {
		return nil
	}
	if stats.Infected > md.peak.Infected {
		md.peak = stats
		return nil
	}
	if md.peak.Infected == 0 {
		return nil
	}

	limit := float64(md.peak.Infected) * (1 - md.peakDrop)
	if float64(stats.Infected) >= limit {
		return nil
	}
	md.peakReported = true
	return &Milestone{
		Type:        MilestonePeakInfected,
		Tick:        md.peak.WindowEndTick,
		Day:         md.peak.Day,
		Description: fmt.Sprintf("Infected peaked at %d (%d susceptible remaining)", md.peak.Infected, md.peak.Susceptible),
	}
}

func (md *MilestoneDetector) checkResolved(stats WindowStats) *Milestone {
	if md.resolved || stats.Running {
		return nil
	}
	md.resolved = true
	return &Milestone{
		Type:        MilestoneResolved,
		Tick:        stats.WindowEndTick,
		Day:         stats.Day,
		Description: fmt.Sprintf("Outbreak over: %d ever infected, attack rate %.1f%%", stats.TotalInfected, stats.AttackRate*100),
	}
}
