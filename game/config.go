package game

// Layout constants in pixels.
const (
	PanelWidth  = 260 // controls panel on the left
	ChartWidth  = 340 // chart column on the right
	HeaderSize  = 90  // HUD strip above the grid
	FooterSize  = 30  // key legend below the grid
	LayoutGap   = 10
	InspectorW  = 230
	ChartTicks  = 600 // ticks kept in the time series
	MaxSpeed    = 20  // steps-per-update ceiling
	HistorySize = 5   // milestone detector rolling history
)

// Rect is a screen rectangle.
type Rect struct {
	X, Y, W, H float32
}

// Layout holds the screen regions for one window size.
type Layout struct {
	Controls Rect
	Grid     Rect
	Charts   Rect
}

// ComputeLayout splits a window into the controls column, the grid view and
// the chart column. The grid region never collapses below one pixel.
func ComputeLayout(width, height float32) Layout {
	controls := Rect{X: 0, Y: 0, W: PanelWidth, H: height}

	chartX := max(width-ChartWidth, PanelWidth+LayoutGap+1)
	charts := Rect{X: chartX, Y: HeaderSize, W: width - chartX - LayoutGap, H: height - HeaderSize - FooterSize}

	gridX := float32(PanelWidth + LayoutGap)
	grid := Rect{
		X: gridX,
		Y: HeaderSize,
		W: max(chartX-LayoutGap-gridX, 1),
		H: max(height-HeaderSize-FooterSize, 1),
	}

	return Layout{Controls: controls, Grid: grid, Charts: charts}
}
