package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/seir/config"
)

// Params holds the model parameters editable from the controls panel.
type Params struct {
	InfectionRate   float32
	MinInfected     float32
	MaxInfected     float32
	MinExposed      float32
	MaxExposed      float32
	DaySteps        float32
	DayIsolation    float32
	Density         float32 // agent count
	InitialInfected float32 // agent count
}

// ParamsFrom reads the editable parameters from cfg.
// Density and initial infected are shown as the resolved absolute counts.
func ParamsFrom(cfg *config.Config) Params {
	return Params{
		InfectionRate:   float32(cfg.Disease.InfectionRate),
		MinInfected:     float32(cfg.Disease.MinInfected),
		MaxInfected:     float32(cfg.Disease.MaxInfected),
		MinExposed:      float32(cfg.Disease.MinExposed),
		MaxExposed:      float32(cfg.Disease.MaxExposed),
		DaySteps:        float32(cfg.Schedule.DaySteps),
		DayIsolation:    float32(cfg.Schedule.DayIsolation),
		Density:         float32(cfg.Derived.PopulationTarget),
		InitialInfected: float32(cfg.Derived.InfectedTarget),
	}
}

// Apply returns a validated copy of cfg carrying p. cfg is never modified.
func (p Params) Apply(cfg *config.Config) (*config.Config, error) {
	out := cfg.Clone()
	out.Disease.InfectionRate = roundTo(p.InfectionRate, 100)
	out.Disease.MinInfected = roundTo(p.MinInfected, 10)
	out.Disease.MaxInfected = roundTo(p.MaxInfected, 10)
	out.Disease.MinExposed = roundTo(p.MinExposed, 10)
	out.Disease.MaxExposed = roundTo(p.MaxExposed, 10)
	out.Schedule.DaySteps = int(math.Round(float64(p.DaySteps)))
	out.Schedule.DayIsolation = int(math.Round(float64(p.DayIsolation)))
	out.Population.Density = math.Round(float64(p.Density))
	out.Population.InitialInfected = math.Round(float64(p.InitialInfected))

	if err := out.Validate(); err != nil {
		return nil, err
	}
	out.ComputeDerived()
	return out, nil
}

// roundTo rounds v to 1/scale steps so slider noise does not leak into configs.
func roundTo(v float32, scale float64) float64 {
	return math.Round(float64(v)*scale) / scale
}

// Action is a button press reported by the controls panel.
type Action int

const (
	ActionNone Action = iota
	ActionReset
	ActionTogglePause
	ActionStep
)

// slider describes one parameter slider.
type slider struct {
	label   string
	format  string
	lo, hi  func(Params) float32
	value   func(*Params) *float32
	integer bool
}

func fixed(v float32) func(Params) float32 { return func(Params) float32 { return v } }

// sliders lists every slider in display order.
func sliders(cells int) []slider {
	return []slider{
		{label: "Infection rate", format: "%.2f", lo: fixed(0), hi: fixed(1),
			value: func(p *Params) *float32 { return &p.InfectionRate }},
		{label: "Min infected (days)", format: "%.1f", lo: fixed(1), hi: fixed(30),
			value: func(p *Params) *float32 { return &p.MinInfected }},
		{label: "Max infected (days)", format: "%.1f", lo: fixed(1), hi: fixed(30),
			value: func(p *Params) *float32 { return &p.MaxInfected }},
		{label: "Min exposed (days)", format: "%.1f", lo: fixed(1), hi: fixed(30),
			value: func(p *Params) *float32 { return &p.MinExposed }},
		{label: "Max exposed (days)", format: "%.1f", lo: fixed(1), hi: fixed(30),
			value: func(p *Params) *float32 { return &p.MaxExposed }},
		{label: "Day steps", format: "%.0f", lo: fixed(1), hi: fixed(24), integer: true,
			value: func(p *Params) *float32 { return &p.DaySteps }},
		{label: "Day isolation", format: "%.0f", lo: fixed(0), hi: fixed(30), integer: true,
			value: func(p *Params) *float32 { return &p.DayIsolation }},
		{label: "Density (agents)", format: "%.0f", lo: fixed(0), hi: fixed(float32(cells)), integer: true,
			value: func(p *Params) *float32 { return &p.Density }},
		{label: "Initial infected", format: "%.0f", lo: fixed(0), hi: func(p Params) float32 { return max(p.Density, 1) }, integer: true,
			value: func(p *Params) *float32 { return &p.InitialInfected }},
	}
}

// ControlsPanel renders parameter sliders, run buttons and overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32

	params  Params
	sliders []slider
	err     error
}

// NewControlsPanel creates a controls panel editing the parameters of cfg.
func NewControlsPanel(x, y, width int32, cfg *config.Config) *ControlsPanel {
	c := &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
	c.Load(cfg)
	return c
}

// Load replaces the edited parameters with those of cfg.
func (c *ControlsPanel) Load(cfg *config.Config) {
	c.params = ParamsFrom(cfg)
	c.sliders = sliders(cfg.World.Width * cfg.World.Height)
	c.err = nil
}

// Params returns the currently edited parameters.
func (c *ControlsPanel) Params() Params {
	return c.params
}

// SetError shows err under the buttons; nil clears it.
func (c *ControlsPanel) SetError(err error) {
	c.err = err
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Width returns the panel width.
func (c *ControlsPanel) Width() int32 {
	return c.width
}

// Draw renders the panel and returns the button pressed this frame.
func (c *ControlsPanel) Draw(paused bool, overlays *OverlayRegistry, panelHeight int32) Action {
	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight
	inner := float32(c.width - padding*2)

	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	x := c.x + padding
	y := c.y + padding

	rl.DrawText("Parameters", x, y, 16, rl.White)
	y += lineHeight + 6

	for _, s := range c.sliders {
		v := s.value(&c.params)
		rl.DrawText(s.label, x, y, r.Theme.FontSize, r.Theme.LabelColor)
		val := fmt.Sprintf(s.format, *v)
		rl.DrawText(val, c.x+c.width-padding-rl.MeasureText(val, r.Theme.FontSize), y, r.Theme.FontSize, r.Theme.ValueColor)
		y += lineHeight - 2

		lo, hi := s.lo(c.params), s.hi(c.params)
		next := gui.SliderBar(rl.Rectangle{X: float32(x), Y: float32(y), Width: inner, Height: 14}, "", "", *v, lo, hi)
		if s.integer {
			next = float32(math.Round(float64(next)))
		}
		*v = next
		y += 22
	}

	y += 4
	action := ActionNone
	third := (inner - 8) / 3
	if gui.Button(rl.Rectangle{X: float32(x), Y: float32(y), Width: third, Height: 24}, "Reset") {
		action = ActionReset
	}
	pauseLabel := "Pause"
	if paused {
		pauseLabel = "Resume"
	}
	if gui.Button(rl.Rectangle{X: float32(x) + third + 4, Y: float32(y), Width: third, Height: 24}, pauseLabel) {
		action = ActionTogglePause
	}
	if gui.Button(rl.Rectangle{X: float32(x) + 2*(third+4), Y: float32(y), Width: third, Height: 24}, "Step") {
		action = ActionStep
	}
	y += 32

	if c.err != nil {
		y = r.DrawError(x, y, c.err.Error(), c.width-padding*2)
		y += 4
	}

	if overlays != nil {
		c.drawOverlays(x, y, overlays)
	}

	return action
}

// drawOverlays lists overlay toggles grouped by category.
func (c *ControlsPanel) drawOverlays(x, y int32, overlays *OverlayRegistry) int32 {
	r := c.renderer
	lineHeight := r.Theme.LineHeight

	rl.DrawText("Overlays", x, y, 16, rl.White)
	y += lineHeight + 4

	for _, category := range overlays.Categories() {
		rl.DrawText(categoryLabel(category), x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(x, y, desc, overlays.IsEnabled(desc.ID), c.width-r.Theme.Padding*2)
			y += lineHeight
		}

		y += 4 // Gap between categories
	}

	return y
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	// Status indicator
	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	// Name
	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	// Key binding (right aligned)
	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "grid":
		return "Grid"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}
