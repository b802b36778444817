package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/seir/model"
)

// Series is a fixed-capacity ring buffer of samples.
type Series struct {
	Label string
	Color rl.Color

	values []float64
	head   int
	n      int
}

// NewSeries creates a series holding up to capacity samples.
func NewSeries(label string, color rl.Color, capacity int) *Series {
	if capacity < 2 {
		capacity = 2
	}
	return &Series{
		Label:  label,
		Color:  color,
		values: make([]float64, capacity),
	}
}

// Push appends a sample, dropping the oldest when full.
func (s *Series) Push(v float64) {
	s.values[s.head] = v
	s.head = (s.head + 1) % len(s.values)
	if s.n < len(s.values) {
		s.n++
	}
}

// Len returns the number of stored samples.
func (s *Series) Len() int { return s.n }

// Cap returns the series capacity.
func (s *Series) Cap() int { return len(s.values) }

// Reset drops all samples.
func (s *Series) Reset() {
	s.head = 0
	s.n = 0
}

// Values appends the samples oldest first to dst.
func (s *Series) Values(dst []float64) []float64 {
	start := (s.head - s.n + len(s.values)) % len(s.values)
	for i := 0; i < s.n; i++ {
		dst = append(dst, s.values[(start+i)%len(s.values)])
	}
	return dst
}

// Last returns the newest sample, or 0 when empty.
func (s *Series) Last() float64 {
	if s.n == 0 {
		return 0
	}
	return s.values[(s.head-1+len(s.values))%len(s.values)]
}

// Max returns the largest stored sample, or 0 when empty.
func (s *Series) Max() float64 {
	var m float64
	start := (s.head - s.n + len(s.values)) % len(s.values)
	for i := 0; i < s.n; i++ {
		m = max(m, s.values[(start+i)%len(s.values)])
	}
	return m
}

// Chart draws one or more series as line plots sharing a y axis.
type Chart struct {
	Title  string
	Series []*Series

	// FixedMax pins the y axis top; 0 scales to the data.
	FixedMax float64

	scratch []float64
	points  []rl.Vector2
}

// NewChart creates a chart over the given series.
func NewChart(title string, series ...*Series) *Chart {
	return &Chart{Title: title, Series: series}
}

// Reset clears every series.
func (c *Chart) Reset() {
	for _, s := range c.Series {
		s.Reset()
	}
}

// yMax returns the value mapped to the top of the plot.
func (c *Chart) yMax() float64 {
	if c.FixedMax > 0 {
		return c.FixedMax
	}
	var m float64
	for _, s := range c.Series {
		m = max(m, s.Max())
	}
	if m == 0 {
		m = 1
	}
	return m
}

// PlotPoints maps values onto rect, with capacity samples spanning its width.
// The y axis runs from 0 at the bottom to yMax at the top; values are clamped.
func PlotPoints(dst []rl.Vector2, values []float64, capacity int, yMax float64, rect rl.Rectangle) []rl.Vector2 {
	if capacity < 2 {
		capacity = 2
	}
	if yMax <= 0 {
		yMax = 1
	}
	step := rect.Width / float32(capacity-1)
	for i, v := range values {
		frac := v / yMax
		if frac < 0 {
			frac = 0
		} else if frac > 1 {
			frac = 1
		}
		dst = append(dst, rl.Vector2{
			X: rect.X + float32(i)*step,
			Y: rect.Y + rect.Height - float32(frac)*rect.Height,
		})
	}
	return dst
}

// Draw renders the chart with a title and legend into rect.
func (c *Chart) Draw(rect rl.Rectangle) {
	rl.DrawRectangleRec(rect, rl.Color{R: 20, G: 25, B: 30, A: 240})
	rl.DrawRectangleLinesEx(rect, 1, rl.Color{R: 60, G: 70, B: 80, A: 255})

	rl.DrawText(c.Title, int32(rect.X)+6, int32(rect.Y)+4, 12, rl.LightGray)

	plot := rl.Rectangle{X: rect.X + 6, Y: rect.Y + 20, Width: rect.Width - 12, Height: rect.Height - 40}
	yMax := c.yMax()
	rl.DrawText(fmt.Sprintf("%.0f", yMax), int32(rect.X+rect.Width)-40, int32(rect.Y)+4, 10, rl.Gray)

	for _, s := range c.Series {
		c.scratch = s.Values(c.scratch[:0])
		c.points = PlotPoints(c.points[:0], c.scratch, s.Cap(), yMax, plot)
		if len(c.points) >= 2 {
			rl.DrawLineStrip(c.points, s.Color)
		}
	}

	// Legend
	x := int32(rect.X) + 6
	y := int32(rect.Y+rect.Height) - 16
	for _, s := range c.Series {
		rl.DrawRectangle(x, y+2, 8, 8, s.Color)
		label := fmt.Sprintf("%s %.0f", s.Label, s.Last())
		rl.DrawText(label, x+12, y, 10, rl.LightGray)
		x += rl.MeasureText(label, 10) + 24
	}
}

// OutbreakCharts holds the compartment and contact time series.
type OutbreakCharts struct {
	Compartments *Chart
	Contacts     *Chart

	s, e, i, r, isolated *Series
	contact              *Series
}

// NewOutbreakCharts creates charts keeping the last capacity ticks.
func NewOutbreakCharts(capacity int) *OutbreakCharts {
	oc := &OutbreakCharts{
		s:        NewSeries("S", ColorSusceptible, capacity),
		e:        NewSeries("E", ColorExposed, capacity),
		i:        NewSeries("I", ColorInfected, capacity),
		r:        NewSeries("R", ColorRemoved, capacity),
		isolated: NewSeries("Iso", ColorIsolated, capacity),
		contact:  NewSeries("Avg contact", ColorContact, capacity),
	}
	oc.Compartments = NewChart("SEIR", oc.s, oc.e, oc.i, oc.r, oc.isolated)
	oc.Contacts = NewChart("Contacts", oc.contact)
	return oc
}

// Push records one tick of counts.
func (oc *OutbreakCharts) Push(c model.Counts) {
	oc.s.Push(float64(c.Susceptible))
	oc.e.Push(float64(c.Exposed))
	oc.i.Push(float64(c.Infected))
	oc.r.Push(float64(c.Removed))
	oc.isolated.Push(float64(c.Isolated))
	oc.contact.Push(c.AverageContact)
}

// Reset clears both charts and pins the compartment axis to population.
func (oc *OutbreakCharts) Reset(population int) {
	oc.Compartments.Reset()
	oc.Contacts.Reset()
	oc.Compartments.FixedMax = float64(population)
}

// Draw renders both charts stacked inside rect.
func (oc *OutbreakCharts) Draw(rect rl.Rectangle) {
	top := rect
	top.Height = rect.Height * 0.6
	bottom := rect
	bottom.Y = rect.Y + top.Height + 6
	bottom.Height = rect.Height - top.Height - 6

	oc.Compartments.Draw(top)
	oc.Contacts.Draw(bottom)
}
