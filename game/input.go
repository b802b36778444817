package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/seir/ui"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	if rl.IsKeyPressed(rl.KeyN) && g.model.Running() {
		g.Step()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.applyControls()
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < MaxSpeed {
		g.stepsPerUpdate++
	}

	// Overlay toggles
	for _, desc := range g.overlays.All() {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			g.overlays.Toggle(desc.ID)
		}
	}

	g.handleCameraInput()
	g.handleSelection()
}

// handleControls acts on the button pressed in the controls panel.
func (g *Game) handleControls(action ui.Action) {
	switch action {
	case ui.ActionReset:
		g.applyControls()
	case ui.ActionTogglePause:
		g.paused = !g.paused
	case ui.ActionStep:
		if g.model.Running() {
			g.Step()
		}
	}
}

// applyControls rebuilds the model from the panel's parameters.
// Invalid parameters leave the current run untouched and show the error.
func (g *Game) applyControls() {
	cfg, err := g.controls.Params().Apply(g.cfg)
	if err != nil {
		slog.Warn("rejected parameters", "error", err)
		g.controls.SetError(err)
		return
	}
	if err := g.Reset(cfg); err != nil {
		slog.Error("failed to reset model", "error", err)
		g.controls.SetError(err)
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h
	g.layout = ComputeLayout(w, h)

	grid := g.layout.Grid
	g.camera.Resize(grid.X, grid.Y, grid.W, grid.H)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Arrow key panning in screen pixels
	const panSpeed = float32(8.0)
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Mouse wheel zoom only over the grid
	mouse := rl.GetMousePosition()
	if wheelMove := rl.GetMouseWheelMove(); wheelMove != 0 && g.camera.Contains(mouse.X, mouse.Y) {
		g.camera.ZoomBy(1.0 + wheelMove*0.1)
	}

	// Keyboard zoom with +/- (= and - keys)
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

// handleSelection picks the cell under a left click and clears it on right click.
func (g *Game) handleSelection() {
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) {
		g.selection = cellSelection{}
		return
	}
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}
	mouse := rl.GetMousePosition()
	if x, y, ok := g.camera.ScreenToCell(mouse.X, mouse.Y); ok {
		g.selection = cellSelection{x: x, y: y, ok: true}
	}
}
