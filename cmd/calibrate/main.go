// Package main fits disease parameters so simulated outbreaks reach a target
// attack rate, using Nelder-Mead over normalized parameters.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/seir/batch"
	"github.com/pthm-cable/seir/config"
)

// EvalRecord is one row of calibrate_log.csv.
type EvalRecord struct {
	Eval          int     `csv:"eval"`
	Fitness       float64 `csv:"fitness"`
	AttackRate    float64 `csv:"attack_rate"`
	InfectionRate float64 `csv:"infection_rate"`
	DayIsolation  float64 `csv:"day_isolation"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// record builds a log row from clamped parameter values.
func record(params *ParamVector, eval int, fitness, attack float64, clamped []float64) EvalRecord {
	rec := EvalRecord{Eval: eval, Fitness: fitness, AttackRate: attack}
	for i, spec := range params.Specs {
		switch spec.Name {
		case "infection_rate":
			rec.InfectionRate = clamped[i]
		case "day_isolation":
			rec.DayIsolation = clamped[i]
		}
	}
	return rec
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	target := flag.Float64("target", 0.5, "Target attack rate (fraction of the population ever infected)")
	fitIsolation := flag.Bool("fit-isolation", false, "Also fit schedule.day_isolation")
	maxIsolationDay := flag.Int("max-isolation-day", 30, "Upper bound for day_isolation when fitted")
	maxDays := flag.Float64("max-days", 365, "Cap on simulated days per run")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if *target < 0 || *target > 1 {
		log.Fatalf("--target must be in [0,1], got %v", *target)
	}
	if *seeds < 1 {
		log.Fatal("--seeds must be at least 1")
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	params := NewParamVector(*fitIsolation, *maxIsolationDay)

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	maxTicks := int(math.Round(*maxDays * float64(baseCfg.Schedule.DaySteps)))
	evaluator := NewFitnessEvaluator(params, *target, maxTicks, evalSeeds, baseCfg)

	initX := params.Normalize(params.Clamp(params.ExtractFromConfig(baseCfg)))

	var records []EvalRecord
	bestFitness := math.Inf(1)
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(clamped)
			attack := evaluator.LastAttackRate()

			if err := evaluator.Err(); err != nil {
				log.Printf("evaluation %d failed: %v", len(records)+1, err)
			}
			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}
			records = append(records, record(params, len(records)+1, fitness, attack, clamped))

			elapsed := time.Since(startTime)
			remaining := time.Duration(*maxEvals-len(records)) * (elapsed / time.Duration(len(records)))
			fmt.Printf("Eval %d/%d: attack=%.3f target=%.3f error=%.5f (best=%.5f) | elapsed: %s, ETA: %s\n",
				len(records), *maxEvals, attack, *target, fitness, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))

			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-6,
			Iterations: 20,
		},
	}
	method := &optimize.NelderMead{SimplexSize: 0.2}

	fmt.Printf("Starting Nelder-Mead calibration with %d parameters, target=%.3f, max_evals=%d\n",
		params.Dim(), *target, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, ticks per run: %d\n", *seeds, maxTicks)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	logPath := filepath.Join(*outputDir, "calibrate_log.csv")
	if err := batch.WriteCSV(logPath, records); err != nil {
		log.Printf("failed to write evaluation log: %v", err)
	}

	// Use best params found (may be from any evaluation, not just final)
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nCalibration complete after %d evaluations in %s\n", len(records), formatDuration(time.Since(startTime)))
	fmt.Printf("Best squared error: %.6f\n", bestFitness)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, bestParams[i])
	}

	bestCfg := baseCfg.Clone()
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
