package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/seir/config"
	"github.com/pthm-cable/seir/model"
)

// Run is one (combination, iteration) pair scheduled by a Runner.
type Run struct {
	Index       int
	Combination Combination
	Iteration   int
	Seed        int64
	Config      *config.Config
}

// Result is the outcome of one run.
type Result struct {
	Index           int     `csv:"index"`
	Combination     string  `csv:"combination"`
	Iteration       int     `csv:"iteration"`
	Seed            int64   `csv:"seed"`
	Days            float64 `csv:"days"`
	Ticks           int     `csv:"ticks"`
	TotalInfected   int     `csv:"total_infected"`
	InitialInfected int     `csv:"initial_infected"`
	Population      int     `csv:"population"`
	PercentInfected float64 `csv:"percent_infected"`
	PeakInfected    int     `csv:"peak_infected"`
	PeakDay         float64 `csv:"peak_day"`
	AverageContact  float64 `csv:"average_contact"`
	Resolved        bool    `csv:"resolved"`
}

// Runner fans a parameter sweep out over a bounded pool of goroutines.
// Every run owns its model; nothing is shared between goroutines.
type Runner struct {
	Base       *config.Config
	Sweep      map[string][]float64
	Iterations int
	Workers    int
	BaseSeed   int64
	MaxTicks   int // 0 = run each model until the outbreak resolves
}

// NewRunner creates a runner from the batch section of cfg.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		Base:       cfg,
		Sweep:      cfg.Batch.Sweep,
		Iterations: cfg.Batch.Iterations,
		Workers:    cfg.Batch.Workers,
		BaseSeed:   cfg.Batch.BaseSeed,
		MaxTicks:   cfg.Derived.MaxTicks,
	}
}

// Plan expands the sweep into runs. Seeds are BaseSeed plus the run index,
// so any single run can be reproduced on its own.
func (r *Runner) Plan() ([]Run, error) {
	iterations := max(r.Iterations, 1)

	var runs []Run
	for _, combo := range Expand(r.Sweep) {
		cfg, err := combo.Apply(r.Base)
		if err != nil {
			return nil, err
		}
		for it := 0; it < iterations; it++ {
			idx := len(runs)
			runs = append(runs, Run{
				Index:       idx,
				Combination: combo,
				Iteration:   it,
				Seed:        r.BaseSeed + int64(idx),
				Config:      cfg,
			})
		}
	}
	return runs, nil
}

// Run executes every planned run and returns the results in plan order.
// The first failing run cancels the rest.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	runs, err := r.Plan()
	if err != nil {
		return nil, err
	}

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	slog.Info("batch started", "runs", len(runs), "workers", workers, "max_ticks", r.MaxTicks)

	results := make([]Result, len(runs))
	var done atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range runs {
		run := runs[i]
		g.Go(func() error {
			res, err := Execute(ctx, run, r.MaxTicks)
			if err != nil {
				return fmt.Errorf("run %d (%s, iteration %d): %w", run.Index, run.Combination, run.Iteration, err)
			}
			results[run.Index] = res
			slog.Debug("run finished",
				"index", run.Index,
				"combination", res.Combination,
				"days", res.Days,
				"percent_infected", res.PercentInfected,
				"completed", done.Add(1),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("batch finished", "runs", len(runs))
	return results, nil
}

// Execute builds and runs a single model to completion or maxTicks.
func Execute(ctx context.Context, run Run, maxTicks int) (Result, error) {
	m, err := model.New(run.Config, run.Seed)
	if err != nil {
		return Result{}, err
	}
	if err := m.Run(ctx, maxTicks, nil); err != nil {
		return Result{}, err
	}
	return resultFrom(run, m), nil
}

// resultFrom summarizes a finished model.
func resultFrom(run Run, m *model.Model) Result {
	c := m.Snapshot()
	daySteps := float64(m.Params().DaySteps)

	res := Result{
		Index:           run.Index,
		Combination:     run.Combination.String(),
		Iteration:       run.Iteration,
		Seed:            run.Seed,
		Days:            float64(c.Tick) / daySteps,
		Ticks:           c.Tick,
		TotalInfected:   c.TotalInfected,
		InitialInfected: m.InitialInfected(),
		Population:      c.Population(),
		PeakInfected:    c.PeakInfected,
		PeakDay:         float64(c.PeakTick) / daySteps,
		AverageContact:  c.AverageContact,
		Resolved:        !c.Running,
	}
	if res.Population > 0 {
		res.PercentInfected = 100 * float64(c.TotalInfected) / float64(res.Population)
	}
	return res
}
