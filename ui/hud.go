package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/seir/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title         string
	Agents        int
	Day           int
	Tick          int
	Infected      int
	Running       bool
	Paused        bool
	StepsPerFrame int
	FPS           int32
}

// Headline returns the agent and day summary line.
func (d HUDData) Headline() string {
	return fmt.Sprintf("Number agents: %d; Day: %d", d.Agents, d.Day)
}

// Status returns the run state label.
func (d HUDData) Status() string {
	switch {
	case !d.Running:
		return "Outbreak over"
	case d.Paused:
		return "PAUSED"
	default:
		return "Running"
	}
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD at (x, y).
func (h *HUD) Draw(x, y int32, data HUDData) {
	rl.DrawText(data.Title, x, y, 20, rl.White)

	rl.DrawText(data.Headline(), x, y+25, 16, rl.LightGray)

	rl.DrawText(
		fmt.Sprintf("Tick: %d | Speed: %dx | FPS: %d", data.Tick, data.StepsPerFrame, data.FPS),
		x, y+45, 16, rl.LightGray,
	)

	statusColor := rl.Yellow
	if !data.Running {
		statusColor = rl.Orange
	}
	rl.DrawText(data.Status(), x, y+65, 16, statusColor)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the tick phase timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s | %.0f ticks/s", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range stats.SortedPhases() {
		pct := stats.PhasePct[name]

		color := rl.LightGray
		if pct > 60 {
			color = rl.Red
		} else if pct > 30 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", name, stats.PhaseAvg[name].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
