package ui

import (
	"errors"
	"strings"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/seir/components"
	"github.com/pthm-cable/seir/config"
	"github.com/pthm-cable/seir/model"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg
}

func TestParamsRoundtrip(t *testing.T) {
	cfg := defaultConfig(t)

	p := ParamsFrom(cfg)
	if p.Density != float32(cfg.Derived.PopulationTarget) {
		t.Errorf("Density = %f, want population target %d", p.Density, cfg.Derived.PopulationTarget)
	}
	if p.InitialInfected != float32(cfg.Derived.InfectedTarget) {
		t.Errorf("InitialInfected = %f, want %d", p.InitialInfected, cfg.Derived.InfectedTarget)
	}

	out, err := p.Apply(cfg)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Derived != cfg.Derived {
		t.Errorf("derived config changed: %+v -> %+v", cfg.Derived, out.Derived)
	}
	if out.Disease != cfg.Disease {
		t.Errorf("disease config changed: %+v -> %+v", cfg.Disease, out.Disease)
	}
}

func TestParamsApply(t *testing.T) {
	cfg := defaultConfig(t)

	p := ParamsFrom(cfg)
	p.InfectionRate = 0.4512
	p.DaySteps = 3.4
	p.DayIsolation = 2.6
	p.Density = 60.2
	p.InitialInfected = 5

	out, err := p.Apply(cfg)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if out.Disease.InfectionRate != 0.45 {
		t.Errorf("InfectionRate = %v, want 0.45", out.Disease.InfectionRate)
	}
	if out.Schedule.DaySteps != 3 || out.Schedule.DayIsolation != 3 {
		t.Errorf("schedule = %+v, want day_steps 3 day_isolation 3", out.Schedule)
	}
	if out.Derived.PopulationTarget != 60 || out.Derived.InfectedTarget != 5 {
		t.Errorf("targets = %d/%d, want 60/5", out.Derived.PopulationTarget, out.Derived.InfectedTarget)
	}
	if out.Derived.IsolationOnsetTicks != 3 {
		t.Errorf("IsolationOnsetTicks = %d, want 3", out.Derived.IsolationOnsetTicks)
	}

	// The source config is untouched
	if cfg.Disease.InfectionRate == out.Disease.InfectionRate || cfg.Schedule.DaySteps == 3 {
		t.Error("Apply modified the source config")
	}
}

func TestParamsApplyRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"infected bounds swapped", func(p *Params) { p.MinInfected, p.MaxInfected = 10, 2 }},
		{"exposed bounds swapped", func(p *Params) { p.MinExposed, p.MaxExposed = 6, 1 }},
		{"zero day steps", func(p *Params) { p.DaySteps = 0.2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			p := ParamsFrom(cfg)
			tt.mutate(&p)

			out, err := p.Apply(cfg)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, config.ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
			if out != nil {
				t.Error("invalid params returned a config")
			}
		})
	}
}

func TestSlidersCoverParams(t *testing.T) {
	cfg := defaultConfig(t)
	p := ParamsFrom(cfg)

	seen := make(map[*float32]bool)
	for _, s := range sliders(cfg.World.Width * cfg.World.Height) {
		v := s.value(&p)
		if seen[v] {
			t.Errorf("slider %q edits a field twice", s.label)
		}
		seen[v] = true

		if lo, hi := s.lo(p), s.hi(p); *v < lo || *v > hi {
			t.Errorf("slider %q default %f outside [%f, %f]", s.label, *v, lo, hi)
		}
	}
	if len(seen) != 9 {
		t.Errorf("got %d sliders, want 9", len(seen))
	}
}

func TestHUDText(t *testing.T) {
	tests := []struct {
		name   string
		data   HUDData
		status string
	}{
		{"running", HUDData{Agents: 100, Day: 3, Running: true}, "Running"},
		{"paused", HUDData{Agents: 100, Day: 3, Running: true, Paused: true}, "PAUSED"},
		{"over", HUDData{Agents: 100, Day: 3, Paused: true}, "Outbreak over"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.data.Headline(); got != "Number agents: 100; Day: 3" {
				t.Errorf("Headline() = %q", got)
			}
			if got := tt.data.Status(); got != tt.status {
				t.Errorf("Status() = %q, want %q", got, tt.status)
			}
		})
	}
}

func TestOverlayRegistry(t *testing.T) {
	reg := NewOverlayRegistry()

	if reg.IsEnabled(OverlayGridLines) {
		t.Error("overlays start disabled")
	}

	id, on, ok := reg.HandleKeyPress(rl.KeyG)
	if !ok || id != OverlayGridLines || !on {
		t.Errorf("HandleKeyPress(G) = (%s, %v, %v)", id, on, ok)
	}
	if _, _, ok := reg.HandleKeyPress(rl.KeyZ); ok {
		t.Error("unbound key toggled an overlay")
	}

	reg.Register(OverlayDescriptor{ID: "a", Category: "test", Exclusive: []OverlayID{"b"}})
	reg.Register(OverlayDescriptor{ID: "b", Category: "test"})
	reg.SetEnabled("b", true)
	reg.Toggle("a")
	if reg.IsEnabled("b") {
		t.Error("enabling a should disable exclusive overlay b")
	}

	cats := reg.Categories()
	if len(cats) != 3 || cats[0] != "grid" || cats[2] != "test" {
		t.Errorf("Categories() = %v", cats)
	}

	enabled := reg.EnabledOverlays()
	if len(enabled) != 2 || enabled[0] != OverlayGridLines || enabled[1] != "a" {
		t.Errorf("EnabledOverlays() = %v", enabled)
	}
}

func TestCellAgents(t *testing.T) {
	agents := []model.AgentView{
		{ID: 0, X: 1, Y: 1, Kind: components.Susceptible},
		{ID: 1, X: 2, Y: 1, Kind: components.Infected},
		{ID: 2, X: 1, Y: 1, Kind: components.Infected},
	}

	got := CellAgents(nil, agents, 1, 1)
	if len(got) != 2 || got[0].ID != 0 || got[1].ID != 2 {
		t.Errorf("CellAgents = %+v", got)
	}

	infectious := cellSection.Fields[2].Getter(CellData{X: 1, Y: 1, Agents: got})
	if infectious != 0.5 {
		t.Errorf("infectious fraction = %f, want 0.5", infectious)
	}
	if cellSection.Fields[2].Getter(CellData{}) != 0 {
		t.Error("empty cell should report zero infectious fraction")
	}
}

func TestWrapText(t *testing.T) {
	measure := func(s string) int32 { return int32(len(s)) }

	lines := WrapText("invalid config: min_infected (10) > max_infected (2)", 20, measure)
	for _, l := range lines {
		if len(l) > 20 && strings.Contains(l, " ") {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if strings.Join(lines, " ") != "invalid config: min_infected (10) > max_infected (2)" {
		t.Errorf("wrapping lost words: %q", lines)
	}
	if got := WrapText("", 20, measure); len(got) != 0 {
		t.Errorf("empty text wrapped to %q", got)
	}
}
