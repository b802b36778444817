package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/seir/renderer"
	"github.com/pthm-cable/seir/ui"
)

const controlsLegend = "[Space] pause  [N] step  [R] reset  [,/.] speed  [arrows/wheel] pan/zoom  [Home] recenter  [click] inspect"

// Update handles input and advances the model in windowed mode.
func (g *Game) Update() {
	g.perfCollector.RecordFrame()
	g.framePerf.Time(FrameUpdate, func() {
		g.handleInput()

		if g.paused {
			return
		}
		for i := 0; i < g.stepsPerUpdate && g.canStep(); i++ {
			g.Step()
		}
	})
}

// Draw renders the game state.
func (g *Game) Draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()

	g.framePerf.Time(FrameDraw, g.draw)
}

func (g *Game) draw() {
	rl.ClearBackground(rl.Color{R: 12, G: 14, B: 18, A: 255})

	g.gridRenderer.Draw(g.agents, renderer.GridOptions{
		GridLines:      g.overlays.IsEnabled(ui.OverlayGridLines),
		IsolationRings: g.overlays.IsEnabled(ui.OverlayIsolationRings),
		ContactHeat:    g.overlays.IsEnabled(ui.OverlayContactHeat),
		SelectedX:      g.selection.x,
		SelectedY:      g.selection.y,
		HasSelection:   g.selection.ok,
	})

	counts := g.model.Snapshot()
	g.hud.Draw(int32(g.layout.Grid.X), 10, ui.HUDData{
		Title:         "SEIR",
		Agents:        g.model.AgentCount(),
		Day:           counts.Day,
		Tick:          counts.Tick,
		Infected:      counts.Infected,
		Running:       counts.Running,
		Paused:        g.paused,
		StepsPerFrame: g.stepsPerUpdate,
		FPS:           rl.GetFPS(),
	})

	if g.overlays.IsEnabled(ui.OverlayCharts) {
		c := g.layout.Charts
		g.charts.Draw(rl.Rectangle{X: c.X, Y: c.Y, Width: c.W, Height: c.H})
	}

	if g.overlays.IsEnabled(ui.OverlayPerf) {
		g.perfPanel.SetPosition(int32(g.layout.Charts.X), 10)
		g.perfPanel.Draw(g.lastPerf)
	}

	if g.selection.ok {
		g.drawInspector()
	}

	action := g.controls.Draw(g.paused, g.overlays, int32(g.layout.Controls.H))
	g.handleControls(action)

	g.hud.DrawControls(int32(g.screenHeight), controlsLegend)
}

// drawInspector shows the agents in the selected cell inside the grid view.
func (g *Game) drawInspector() {
	data := ui.CellData{X: g.selection.x, Y: g.selection.y}
	data.Agents = ui.CellAgents(nil, g.agents, data.X, data.Y)

	grid := g.layout.Grid
	g.inspector.SetPosition(int32(grid.X+grid.W)-InspectorW-LayoutGap, int32(grid.Y)+LayoutGap)
	g.inspector.Draw(data)
}
