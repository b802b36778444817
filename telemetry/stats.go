package telemetry

import (
	"log/slog"
	"sort"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int     `csv:"-"`
	WindowEndTick   int     `csv:"window_end"`
	Day             float64 `csv:"day"`

	// Compartment counts at window end
	Susceptible int `csv:"susceptible"`
	Exposed     int `csv:"exposed"`
	Infected    int `csv:"infected"`
	Removed     int `csv:"removed"`
	Isolated    int `csv:"isolated"`

	// Transitions during window
	Exposures  int `csv:"exposures"`
	Infections int `csv:"infections"`
	Removals   int `csv:"removals"`
	Isolations int `csv:"isolations"`
	Releases   int `csv:"releases"`

	// Contact distribution (sampled at window end)
	AverageContact float64 `csv:"average_contact"`
	ContactMean    float64 `csv:"contact_mean"`
	ContactP10     float64 `csv:"contact_p10"`
	ContactP50     float64 `csv:"contact_p50"`
	ContactP90     float64 `csv:"contact_p90"`

	// Outbreak progress
	TotalInfected int     `csv:"total_infected"`
	AttackRate    float64 `csv:"attack_rate"`
	PeakInfected  int     `csv:"peak_infected"`
	Running       bool    `csv:"running"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeStats calculates mean and percentiles from a sample.
func ComputeStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	// Sort a copy for percentiles
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.Float64("day", s.Day),
		slog.Int("susceptible", s.Susceptible),
		slog.Int("exposed", s.Exposed),
		slog.Int("infected", s.Infected),
		slog.Int("removed", s.Removed),
		slog.Int("isolated", s.Isolated),
		slog.Int("exposures", s.Exposures),
		slog.Int("infections", s.Infections),
		slog.Int("removals", s.Removals),
		slog.Int("isolations", s.Isolations),
		slog.Int("releases", s.Releases),
		slog.Float64("average_contact", s.AverageContact),
		slog.Float64("contact_p10", s.ContactP10),
		slog.Float64("contact_p50", s.ContactP50),
		slog.Float64("contact_p90", s.ContactP90),
		slog.Int("total_infected", s.TotalInfected),
		slog.Float64("attack_rate", s.AttackRate),
		slog.Int("peak_infected", s.PeakInfected),
		slog.Bool("running", s.Running),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"day", s.Day,
		"susceptible", s.Susceptible,
		"exposed", s.Exposed,
		"infected", s.Infected,
		"removed", s.Removed,
		"isolated", s.Isolated,
		"exposures", s.Exposures,
		"infections", s.Infections,
		"removals", s.Removals,
		"average_contact", s.AverageContact,
		"contact_p50", s.ContactP50,
		"total_infected", s.TotalInfected,
		"attack_rate", s.AttackRate,
	)
}
