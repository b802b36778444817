package main

import (
	"math"

	"github.com/pthm-cable/seir/config"
)

// ParamSpec defines a single calibrated parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Integer bool    // Rounded before it reaches the config
}

// ParamVector holds the set of calibrated parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the calibrated parameter set. The infection rate is
// always fitted; the isolation day only when fitIsolation is set.
func NewParamVector(fitIsolation bool, maxIsolationDay int) *ParamVector {
	specs := []ParamSpec{
		{Name: "infection_rate", Path: "disease.infection_rate", Min: 0, Max: 1},
	}
	if fitIsolation {
		if maxIsolationDay < 1 {
			maxIsolationDay = 1
		}
		specs = append(specs, ParamSpec{
			Name: "day_isolation", Path: "schedule.day_isolation",
			Min: 0, Max: float64(maxIsolationDay), Integer: true,
		})
	}
	return &ParamVector{Specs: specs}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds, rounding integer parameters.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Max(spec.Min, math.Min(spec.Max, v[i]))
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg and refreshes its
// derived values.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		switch spec.Name {
		case "infection_rate":
			cfg.Disease.InfectionRate = clamped[i]
		case "day_isolation":
			cfg.Schedule.DayIsolation = int(math.Round(clamped[i]))
		}
	}
	cfg.ComputeDerived()
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	values := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		switch spec.Name {
		case "infection_rate":
			values[i] = cfg.Disease.InfectionRate
		case "day_isolation":
			values[i] = float64(cfg.Schedule.DayIsolation)
		}
	}
	return values
}
