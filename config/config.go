// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every configuration validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Population PopulationConfig `yaml:"population"`
	Disease    DiseaseConfig    `yaml:"disease"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Batch      BatchConfig      `yaml:"batch"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the grid dimensions in cells.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PopulationConfig holds seeding parameters.
// Density and InitialInfected below 1 are fractions (of grid cells and of the
// population target respectively); values of 1 or more are absolute counts.
type PopulationConfig struct {
	Density            float64 `yaml:"density"`
	InitialInfected    float64 `yaml:"initial_infected"`
	PlacementThreshold float64 `yaml:"placement_threshold"` // a cell is seeded when a draw exceeds this
}

// DiseaseConfig holds transmission and progression parameters.
// Durations are in days.
type DiseaseConfig struct {
	InfectionRate float64 `yaml:"infection_rate"`
	MinExposed    float64 `yaml:"min_exposed"`
	MaxExposed    float64 `yaml:"max_exposed"`
	MinInfected   float64 `yaml:"min_infected"`
	MaxInfected   float64 `yaml:"max_infected"`
}

// ScheduleConfig holds time-scale and isolation parameters.
type ScheduleConfig struct {
	DaySteps           int     `yaml:"day_steps"`           // ticks per simulated day
	DayIsolation       int     `yaml:"day_isolation"`       // elapsed infected ticks until movement halts
	IsolationCountdown int     `yaml:"isolation_countdown"` // per-agent isolation window in ticks
	MaxDays            float64 `yaml:"max_days"`            // 0 = run until the outbreak resolves
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowDays          float64 `yaml:"window_days"`
	RecordAgents        bool    `yaml:"record_agents"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	PeakDropFraction    float64 `yaml:"peak_drop_fraction"`
}

// BatchConfig holds parameter sweep settings.
type BatchConfig struct {
	Iterations int                  `yaml:"iterations"`
	Workers    int                  `yaml:"workers"`
	BaseSeed   int64                `yaml:"base_seed"`
	Sweep      map[string][]float64 `yaml:"sweep"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	PopulationTarget    int // absolute agent count to seed
	InfectedTarget      int // absolute initially infected count
	IsolationOnsetTicks int // elapsed infected ticks that trigger isolation
	MaxTicks            int // Schedule.MaxDays in ticks (0 = unlimited)
	WindowTicks         int // Telemetry.WindowDays in ticks (at least 1)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	return Load("")
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The result is validated.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	if c.Batch.Sweep != nil {
		cp.Batch.Sweep = make(map[string][]float64, len(c.Batch.Sweep))
		for k, v := range c.Batch.Sweep {
			cp.Batch.Sweep[k] = append([]float64(nil), v...)
		}
	}
	return &cp
}

// Validate rejects parameter combinations that would produce negative
// durations or undefined statistics. All violations are reported together.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.World.Width <= 0 || c.World.Height <= 0 {
		bad("world dimensions must be positive, got %dx%d", c.World.Width, c.World.Height)
	}
	if c.Population.Density < 0 || math.IsNaN(c.Population.Density) {
		bad("density must be non-negative, got %v", c.Population.Density)
	}
	if c.Population.InitialInfected < 0 || math.IsNaN(c.Population.InitialInfected) {
		bad("initial_infected must be non-negative, got %v", c.Population.InitialInfected)
	}
	if c.Population.PlacementThreshold < 0 || c.Population.PlacementThreshold >= 1 {
		bad("placement_threshold must be in [0,1), got %v", c.Population.PlacementThreshold)
	}

	d := c.Disease
	if d.InfectionRate < 0 || d.InfectionRate > 1 || math.IsNaN(d.InfectionRate) {
		bad("infection_rate must be in [0,1], got %v", d.InfectionRate)
	}
	if !(d.MinExposed > 0) || !(d.MaxExposed > 0) {
		bad("exposed durations must be positive, got [%v, %v]", d.MinExposed, d.MaxExposed)
	} else if d.MinExposed > d.MaxExposed {
		bad("min_exposed (%v) > max_exposed (%v)", d.MinExposed, d.MaxExposed)
	}
	if !(d.MinInfected > 0) || !(d.MaxInfected > 0) {
		bad("infected durations must be positive, got [%v, %v]", d.MinInfected, d.MaxInfected)
	} else if d.MinInfected > d.MaxInfected {
		bad("min_infected (%v) > max_infected (%v)", d.MinInfected, d.MaxInfected)
	}

	s := c.Schedule
	if s.DaySteps <= 0 {
		bad("day_steps must be positive, got %d", s.DaySteps)
	}
	if s.DayIsolation < 0 {
		bad("day_isolation must be non-negative, got %d", s.DayIsolation)
	}
	if s.MaxDays < 0 {
		bad("max_days must be non-negative, got %v", s.MaxDays)
	}

	if c.Telemetry.WindowDays < 0 {
		bad("telemetry window_days must be non-negative, got %v", c.Telemetry.WindowDays)
	}
	if c.Batch.Iterations < 0 || c.Batch.Workers < 0 {
		bad("batch iterations and workers must be non-negative")
	}

	return errors.Join(errs...)
}

// ComputeDerived calculates values derived from loaded config.
// Call it again after editing a Config in place.
func (c *Config) ComputeDerived() {
	cells := c.World.Width * c.World.Height
	c.Derived.PopulationTarget = resolveCount(c.Population.Density, cells)
	c.Derived.InfectedTarget = resolveCount(c.Population.InitialInfected, c.Derived.PopulationTarget)
	// Compared against the infected lifespan as is, without day_steps scaling.
	c.Derived.IsolationOnsetTicks = c.Schedule.DayIsolation
	c.Derived.MaxTicks = int(math.Round(c.Schedule.MaxDays * float64(c.Schedule.DaySteps)))

	window := int(math.Round(c.Telemetry.WindowDays * float64(c.Schedule.DaySteps)))
	if window < 1 {
		window = 1
	}
	c.Derived.WindowTicks = window
}

// resolveCount turns a fraction-or-count value into an absolute count.
// Values in (0,1) are a fraction of whole; values >= 1 are counts.
func resolveCount(v float64, whole int) int {
	if v <= 0 {
		return 0
	}
	if v < 1 {
		return int(math.Round(v * float64(whole)))
	}
	return int(math.Round(v))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
