package game

import (
	"log/slog"

	"github.com/pthm-cable/seir/model"
	"github.com/pthm-cable/seir/telemetry"
)

// flushTelemetry flushes the stats window when it is due and handles milestones.
// The tick an outbreak resolves always flushes so the final window is recorded.
func (g *Game) flushTelemetry(counts model.Counts) {
	if !g.collector.ShouldFlush(counts.Tick) && counts.Running {
		return
	}

	g.contacts = g.contacts[:0]
	for _, a := range g.agents {
		g.contacts = append(g.contacts, float64(a.Contacts))
	}

	stats := g.collector.Flush(counts, g.contacts)
	perfStats := g.perfCollector.Stats()
	g.lastPerf = perfStats

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
		if g.framePerf != nil {
			logFramePerf(g.framePerf)
		}
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, ms := range g.milestones.Check(stats) {
		if g.opts.LogStats {
			ms.LogMilestone()
		}
		if err := g.outputManager.WriteMilestone(ms); err != nil {
			slog.Error("failed to write milestone", "error", err)
		}
		if dir := g.outputManager.SnapshotDir(); dir != "" {
			g.saveSnapshot(&ms, dir)
		}
	}
}

// saveSnapshot writes the current state tagged with a milestone.
func (g *Game) saveSnapshot(ms *telemetry.Milestone, dir string) {
	path, err := telemetry.SaveSnapshot(telemetry.NewSnapshot(g.model, ms), dir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.model.Tick())
}
