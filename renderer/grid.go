package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/seir/camera"
	"github.com/pthm-cable/seir/model"
)

const (
	// agentRadius is the circle radius in cells.
	agentRadius = 0.5
	// shareOffset is how far agents sharing a cell are pushed from its center, in cells.
	shareOffset = 0.18
)

// GridOptions toggles the optional grid layers.
type GridOptions struct {
	GridLines      bool
	IsolationRings bool
	ContactHeat    bool
	SelectedX      int
	SelectedY      int
	HasSelection   bool
}

// GridRenderer draws the cell grid and the agents on it.
type GridRenderer struct {
	cam *camera.Camera

	// Scratch buffers reused between frames
	cellCount map[int]int
	cellSlot  map[int]int
}

// NewGridRenderer creates a grid renderer drawing through cam.
func NewGridRenderer(cam *camera.Camera) *GridRenderer {
	return &GridRenderer{
		cam:       cam,
		cellCount: make(map[int]int),
		cellSlot:  make(map[int]int),
	}
}

// SlotOffset returns the offset in cells for the slot-th of n agents sharing a cell.
// A lone agent sits at the cell center; others are spread on a small ring.
func SlotOffset(slot, n int) (dx, dy float32) {
	if n <= 1 {
		return 0, 0
	}
	angle := 2 * math.Pi * float64(slot) / float64(n)
	return float32(math.Cos(angle)) * shareOffset, float32(math.Sin(angle)) * shareOffset
}

// ContactHeat maps a contact count onto [0,1] relative to maxContacts.
func ContactHeat(contacts, maxContacts int) float32 {
	if maxContacts <= 0 || contacts <= 0 {
		return 0
	}
	if contacts >= maxContacts {
		return 1
	}
	return float32(contacts) / float32(maxContacts)
}

// Draw renders the grid background, optional layers and every agent.
func (r *GridRenderer) Draw(agents []model.AgentView, opts GridOptions) {
	cam := r.cam
	cols := int(cam.Cols)

	rl.BeginScissorMode(int32(cam.ViewX), int32(cam.ViewY), int32(cam.ViewW), int32(cam.ViewH))
	defer rl.EndScissorMode()

	rl.DrawRectangle(int32(cam.ViewX), int32(cam.ViewY), int32(cam.ViewW), int32(cam.ViewH), rl.White)

	if opts.GridLines {
		r.drawGridLines()
	}

	clear(r.cellCount)
	clear(r.cellSlot)
	maxContacts := 0
	for _, a := range agents {
		r.cellCount[a.Y*cols+a.X]++
		maxContacts = max(maxContacts, a.Contacts)
	}

	if opts.ContactHeat {
		r.drawContactHeat(agents, maxContacts)
	}

	radius := agentRadius * cam.Zoom
	for _, a := range agents {
		key := a.Y*cols + a.X
		slot := r.cellSlot[key]
		r.cellSlot[key]++

		dx, dy := SlotOffset(slot, r.cellCount[key])
		cx := float32(a.X) + 0.5 + dx
		cy := float32(a.Y) + 0.5 + dy
		if !cam.IsVisible(cx, cy, agentRadius) {
			continue
		}

		sx, sy := cam.CellToScreen(cx, cy)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, KindColor(a.Kind))
		rl.DrawCircleLinesV(rl.Vector2{X: sx, Y: sy}, radius, ColorStroke)

		if opts.IsolationRings && !a.CanMove {
			rl.DrawCircleLinesV(rl.Vector2{X: sx, Y: sy}, radius+2, ColorIsolated)
		}
	}

	if opts.HasSelection {
		rl.DrawRectangleLinesEx(r.cellRect(opts.SelectedX, opts.SelectedY), 2, rl.Gold)
	}
}

// drawGridLines draws cell boundaries.
func (r *GridRenderer) drawGridLines() {
	cam := r.cam
	line := rl.Color{R: 220, G: 220, B: 220, A: 255}
	for x := 0; x <= int(cam.Cols); x++ {
		sx, _ := cam.CellToScreen(float32(x), cam.Y)
		rl.DrawLineV(rl.Vector2{X: sx, Y: cam.ViewY}, rl.Vector2{X: sx, Y: cam.ViewY + cam.ViewH}, line)
	}
	for y := 0; y <= int(cam.Rows); y++ {
		_, sy := cam.CellToScreen(cam.X, float32(y))
		rl.DrawLineV(rl.Vector2{X: cam.ViewX, Y: sy}, rl.Vector2{X: cam.ViewX + cam.ViewW, Y: sy}, line)
	}
}

// drawContactHeat shades each occupied cell by the largest contact set in it.
func (r *GridRenderer) drawContactHeat(agents []model.AgentView, maxContacts int) {
	cols := int(r.cam.Cols)
	peak := make(map[int]int, len(r.cellCount))
	for _, a := range agents {
		key := a.Y*cols + a.X
		peak[key] = max(peak[key], a.Contacts)
	}
	for key, contacts := range peak {
		heat := ContactHeat(contacts, maxContacts)
		if heat == 0 {
			continue
		}
		x, y := key%cols, key/cols
		rl.DrawRectangleRec(r.cellRect(x, y), withAlpha(ColorContact, uint8(40+heat*140)))
	}
}

// cellRect returns the screen rectangle covered by cell (x, y).
// It is anchored on the cell center so cells straddling the wrap seam stay whole.
func (r *GridRenderer) cellRect(x, y int) rl.Rectangle {
	sx, sy := r.cam.CellCenter(x, y)
	half := r.cam.Zoom / 2
	return rl.Rectangle{X: sx - half, Y: sy - half, Width: r.cam.Zoom, Height: r.cam.Zoom}
}
