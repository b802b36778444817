// Package batch runs parameter sweeps over many independent models.
package batch

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pthm-cable/seir/config"
)

// ErrUnknownParam is returned for sweep keys that name no parameter.
var ErrUnknownParam = errors.New("unknown sweep parameter")

// setters maps sweep keys onto config fields.
var setters = map[string]func(*config.Config, float64){
	"width":               func(c *config.Config, v float64) { c.World.Width = int(math.Round(v)) },
	"height":              func(c *config.Config, v float64) { c.World.Height = int(math.Round(v)) },
	"density":             func(c *config.Config, v float64) { c.Population.Density = v },
	"initial_infected":    func(c *config.Config, v float64) { c.Population.InitialInfected = v },
	"infection_rate":      func(c *config.Config, v float64) { c.Disease.InfectionRate = v },
	"min_exposed":         func(c *config.Config, v float64) { c.Disease.MinExposed = v },
	"max_exposed":         func(c *config.Config, v float64) { c.Disease.MaxExposed = v },
	"min_infected":        func(c *config.Config, v float64) { c.Disease.MinInfected = v },
	"max_infected":        func(c *config.Config, v float64) { c.Disease.MaxInfected = v },
	"day_steps":           func(c *config.Config, v float64) { c.Schedule.DaySteps = int(math.Round(v)) },
	"day_isolation":       func(c *config.Config, v float64) { c.Schedule.DayIsolation = int(math.Round(v)) },
	"isolation_countdown": func(c *config.Config, v float64) { c.Schedule.IsolationCountdown = int(math.Round(v)) },
}

// Params returns the sweepable parameter names in sorted order.
func Params() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Combination is one assignment of values to the swept parameters.
type Combination struct {
	Keys   []string // sorted
	Values []float64
}

// String formats the combination as key=value pairs, e.g. "density=50;infection_rate=0.3".
func (c Combination) String() string {
	if len(c.Keys) == 0 {
		return "base"
	}
	parts := make([]string, len(c.Keys))
	for i, k := range c.Keys {
		parts[i] = k + "=" + strconv.FormatFloat(c.Values[i], 'g', -1, 64)
	}
	return strings.Join(parts, ";")
}

// Apply returns a validated copy of base with the combination's values set.
func (c Combination) Apply(base *config.Config) (*config.Config, error) {
	cfg := base.Clone()
	for i, k := range c.Keys {
		set, ok := setters[k]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownParam, k)
		}
		set(cfg, c.Values[i])
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("combination %s: %w", c, err)
	}
	cfg.ComputeDerived()
	return cfg, nil
}

// Expand returns the cartesian product of sweep in a deterministic order.
// Keys are sorted; the first key varies slowest. An empty sweep yields the
// single empty combination.
func Expand(sweep map[string][]float64) []Combination {
	keys := make([]string, 0, len(sweep))
	for k, vs := range sweep {
		if len(vs) == 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	combos := []Combination{{Keys: keys}}
	for _, k := range keys {
		next := make([]Combination, 0, len(combos)*len(sweep[k]))
		for _, c := range combos {
			for _, v := range sweep[k] {
				values := make([]float64, len(c.Values), len(keys))
				copy(values, c.Values)
				next = append(next, Combination{Keys: keys, Values: append(values, v)})
			}
		}
		combos = next
	}
	return combos
}
