package main

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/seir/batch"
	"github.com/pthm-cable/seir/config"
)

// FitnessEvaluator runs headless outbreaks and scores them against a target
// attack rate.
type FitnessEvaluator struct {
	params     *ParamVector
	target     float64 // fraction of the population ever infected
	maxTicks   int
	seeds      []int64
	baseConfig *config.Config

	mu         sync.Mutex
	lastAttack float64 // mean attack rate from the most recent Evaluate call
	lastErr    error
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, target float64, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		target:     target,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastAttackRate returns the mean attack rate from the most recent evaluation.
func (fe *FitnessEvaluator) LastAttackRate() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastAttack
}

// Err returns the last error hit while running models, if any.
func (fe *FitnessEvaluator) Err() error {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastErr
}

// Evaluate computes fitness for raw parameter values (lower = better): the
// squared distance between the attack rate and the target, averaged over the
// evaluator's seeds. Every evaluation reuses the same seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	attacks := make([]float64, len(fe.seeds))
	g, ctx := errgroup.WithContext(context.Background())
	for i, seed := range fe.seeds {
		g.Go(func() error {
			res, err := batch.Execute(ctx, batch.Run{Index: i, Seed: seed, Config: cfg}, fe.maxTicks)
			if err != nil {
				return err
			}
			attacks[i] = res.PercentInfected / 100
			return nil
		})
	}
	err := g.Wait()

	fe.mu.Lock()
	defer fe.mu.Unlock()
	fe.lastErr = err
	if err != nil {
		fe.lastAttack = math.NaN()
		return math.Inf(1)
	}

	var total, attack float64
	for _, a := range attacks {
		d := a - fe.target
		total += d * d
		attack += a
	}
	n := float64(len(attacks))
	fe.lastAttack = attack / n
	return total / n
}
