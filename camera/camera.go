// Package camera provides a 2D view onto the toroidal cell grid.
package camera

import "math"

// Camera maps grid cells into a screen rectangle.
// Supports pan and zoom with toroidal wrapping.
type Camera struct {
	// X, Y is the view center in cell coordinates
	X, Y float32

	// Zoom is the size of one cell in pixels
	Zoom float32

	// Screen rectangle the grid is drawn into
	ViewX, ViewY, ViewW, ViewH float32

	// Grid dimensions in cells (for toroidal wrapping)
	Cols, Rows float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera showing the whole cols x rows grid inside the given
// screen rectangle.
func New(viewX, viewY, viewW, viewH float32, cols, rows int) *Camera {
	c := &Camera{
		ViewX: viewX,
		ViewY: viewY,
		ViewW: viewW,
		ViewH: viewH,
		Cols:  float32(cols),
		Rows:  float32(rows),
	}
	c.fit()
	c.Reset()
	return c
}

// fit recomputes the zoom limits for the current viewport.
// At MinZoom the whole grid is visible in both dimensions.
func (c *Camera) fit() {
	c.MinZoom = min(c.ViewW/c.Cols, c.ViewH/c.Rows)
	c.MaxZoom = c.MinZoom * 8
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	if c.Zoom > c.MaxZoom {
		c.Zoom = c.MaxZoom
	}
}

// CellToScreen converts cell coordinates to screen coordinates, taking the
// shortest way around the torus from the view center.
func (c *Camera) CellToScreen(cx, cy float32) (sx, sy float32) {
	dx := toroidalDelta(cx, c.X, c.Cols)
	dy := toroidalDelta(cy, c.Y, c.Rows)
	sx = c.ViewX + c.ViewW/2 + dx*c.Zoom
	sy = c.ViewY + c.ViewH/2 + dy*c.Zoom
	return sx, sy
}

// CellCenter returns the screen position of the center of cell (x, y).
func (c *Camera) CellCenter(x, y int) (sx, sy float32) {
	return c.CellToScreen(float32(x)+0.5, float32(y)+0.5)
}

// ScreenToCell returns the cell under a screen point. ok is false outside
// the view rectangle.
func (c *Camera) ScreenToCell(sx, sy float32) (x, y int, ok bool) {
	if !c.Contains(sx, sy) {
		return 0, 0, false
	}
	wx := mod(c.X+(sx-c.ViewX-c.ViewW/2)/c.Zoom, c.Cols)
	wy := mod(c.Y+(sy-c.ViewY-c.ViewH/2)/c.Zoom, c.Rows)
	x = min(int(wx), int(c.Cols)-1)
	y = min(int(wy), int(c.Rows)-1)
	return x, y, true
}

// Contains reports whether a screen point lies inside the view rectangle.
func (c *Camera) Contains(sx, sy float32) bool {
	return sx >= c.ViewX && sx < c.ViewX+c.ViewW && sy >= c.ViewY && sy < c.ViewY+c.ViewH
}

// IsVisible returns true if a circle at cell coordinates (cx, cy) with the
// given radius in cells could be visible (conservative check for culling).
func (c *Camera) IsVisible(cx, cy, radius float32) bool {
	dx := toroidalDelta(cx, c.X, c.Cols)
	dy := toroidalDelta(cy, c.Y, c.Rows)

	halfW := c.ViewW/(2*c.Zoom) + radius
	halfH := c.ViewH/(2*c.Zoom) + radius

	return absf(dx) <= halfW && absf(dy) <= halfH
}

// Resize moves the view rectangle and recalculates zoom constraints.
func (c *Camera) Resize(viewX, viewY, viewW, viewH float32) {
	c.ViewX, c.ViewY = viewX, viewY
	if viewW == c.ViewW && viewH == c.ViewH {
		return
	}
	c.ViewW, c.ViewH = viewW, viewH
	c.fit()
}

// Pan moves the camera by the given delta in screen pixels.
// Automatically wraps around grid boundaries.
func (c *Camera) Pan(dx, dy float32) {
	c.X = mod(c.X+dx/c.Zoom, c.Cols)
	c.Y = mod(c.Y+dy/c.Zoom, c.Rows)
}

// SetZoom sets the cell size in pixels, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset centers the grid and zooms out to fit it.
func (c *Camera) Reset() {
	c.X = c.Cols / 2
	c.Y = c.Rows / 2
	c.Zoom = c.MinZoom
}

// toroidalDelta computes the shortest signed distance from 'from' to 'to'
// in a toroidal space of the given size.
func toroidalDelta(to, from, size float32) float32 {
	d := to - from
	if d > size/2 {
		d -= size
	} else if d < -size/2 {
		d += size
	}
	return d
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
