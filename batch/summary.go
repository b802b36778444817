package batch

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the runs of one combination.
type Summary struct {
	Combination           string  `csv:"combination"`
	Runs                  int     `csv:"runs"`
	Resolved              int     `csv:"resolved"`
	MeanDays              float64 `csv:"mean_days"`
	StdDays               float64 `csv:"std_days"`
	MeanPercentInfected   float64 `csv:"mean_percent_infected"`
	StdPercentInfected    float64 `csv:"std_percent_infected"`
	MedianPercentInfected float64 `csv:"median_percent_infected"`
	MeanPeakInfected      float64 `csv:"mean_peak_infected"`
	StdPeakInfected       float64 `csv:"std_peak_infected"`
	MeanPeakDay           float64 `csv:"mean_peak_day"`
}

// Summarize groups results by combination, in order of first appearance.
func Summarize(results []Result) []Summary {
	var order []string
	groups := make(map[string][]Result)
	for _, r := range results {
		if _, ok := groups[r.Combination]; !ok {
			order = append(order, r.Combination)
		}
		groups[r.Combination] = append(groups[r.Combination], r)
	}

	summaries := make([]Summary, 0, len(order))
	for _, combo := range order {
		summaries = append(summaries, summarize(combo, groups[combo]))
	}
	return summaries
}

func summarize(combo string, runs []Result) Summary {
	n := len(runs)
	days := make([]float64, n)
	pct := make([]float64, n)
	peak := make([]float64, n)
	peakDay := make([]float64, n)
	resolved := 0
	for i, r := range runs {
		days[i] = r.Days
		pct[i] = r.PercentInfected
		peak[i] = float64(r.PeakInfected)
		peakDay[i] = r.PeakDay
		if r.Resolved {
			resolved++
		}
	}

	s := Summary{
		Combination:         combo,
		Runs:                n,
		Resolved:            resolved,
		MeanDays:            stat.Mean(days, nil),
		StdDays:             stdDev(days),
		MeanPercentInfected: stat.Mean(pct, nil),
		StdPercentInfected:  stdDev(pct),
		MeanPeakInfected:    stat.Mean(peak, nil),
		StdPeakInfected:     stdDev(peak),
		MeanPeakDay:         stat.Mean(peakDay, nil),
	}

	sorted := append([]float64(nil), pct...)
	sort.Float64s(sorted)
	s.MedianPercentInfected = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	return s
}

// stdDev is the sample standard deviation, 0 for fewer than two values.
func stdDev(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return stat.StdDev(x, nil)
}
