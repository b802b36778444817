package game

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/seir/model"
)

// logRunStart logs the parameters a model was built with.
func logRunStart(m *model.Model, outputDir string) {
	p := m.Params()
	slog.Info("model started",
		"seed", m.Seed(),
		"width", m.Width(),
		"height", m.Height(),
		"agents", m.AgentCount(),
		"initial_infected", m.InitialInfected(),
		"infection_rate", p.InfectionRate,
		"day_steps", p.DaySteps,
		"isolation_onset_ticks", p.IsolationOnsetTicks,
		"output_dir", outputDir,
	)
}

// logRunEnd logs the outcome of a run.
func logRunEnd(m *model.Model) {
	c := m.Snapshot()
	var attack float64
	if pop := c.Population(); pop > 0 {
		attack = float64(c.TotalInfected) / float64(pop)
	}
	slog.Info("model finished",
		"tick", c.Tick,
		"day", c.Day,
		"running", c.Running,
		"susceptible", c.Susceptible,
		"exposed", c.Exposed,
		"infected", c.Infected,
		"removed", c.Removed,
		"total_infected", c.TotalInfected,
		"attack_rate", attack,
		"peak_infected", c.PeakInfected,
		"peak_tick", c.PeakTick,
	)
}

// logFramePerf logs the windowed frame section timings.
func logFramePerf(p *PerfStats) {
	attrs := []any{"total_us", p.Total().Microseconds()}
	for _, name := range p.SortedNames() {
		attrs = append(attrs, name+"_us", p.Avg(name).Round(time.Microsecond).Microseconds())
	}
	slog.Info("frame perf", attrs...)
}
