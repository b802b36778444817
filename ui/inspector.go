package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/seir/components"
	"github.com/pthm-cable/seir/model"
	"github.com/pthm-cable/seir/renderer"
)

// maxListed caps the agents listed for one cell.
const maxListed = 8

// CellData is what the inspector shows for a selected cell.
type CellData struct {
	X, Y   int
	Agents []model.AgentView
}

// CellAgents collects the agents standing on cell (x, y) into dst.
func CellAgents(dst, agents []model.AgentView, x, y int) []model.AgentView {
	for _, a := range agents {
		if a.X == x && a.Y == y {
			dst = append(dst, a)
		}
	}
	return dst
}

// cellSection summarizes a cell.
var cellSection = SectionDescriptor{
	ID:    "cell",
	Title: "Cell",
	Fields: []FieldDescriptor{
		{ID: "pos", Label: "Position", Widget: WidgetText, TextGetter: func(d any) string {
			c := d.(CellData)
			return fmt.Sprintf("(%d, %d)", c.X, c.Y)
		}},
		{ID: "count", Label: "Agents", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float32 {
			return float32(len(d.(CellData).Agents))
		}},
		{ID: "infectious", Label: "Infectious", Widget: WidgetBar, Getter: func(d any) float32 {
			c := d.(CellData)
			if len(c.Agents) == 0 {
				return 0
			}
			var n int
			for _, a := range c.Agents {
				if a.Kind == components.Infected {
					n++
				}
			}
			return float32(n) / float32(len(c.Agents))
		}},
	},
}

// agentSection describes one agent.
var agentSection = SectionDescriptor{
	ID: "agent",
	Fields: []FieldDescriptor{
		{ID: "kind", Label: "State", Widget: WidgetColorSwatch, ColorGetter: func(d any) rl.Color {
			return renderer.KindColor(d.(model.AgentView).Kind)
		}},
		{ID: "detail", Label: "Agent", Widget: WidgetText, TextGetter: func(d any) string {
			a := d.(model.AgentView)
			return fmt.Sprintf("#%d %s", a.ID, a.Kind)
		}},
		{ID: "contacts", Label: "Contacts", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float32 {
			return float32(d.(model.AgentView).Contacts)
		}},
		{ID: "isolated", Label: "Isolated", Widget: WidgetText, TextGetter: func(any) string {
			return "yes"
		}, Visible: func(d any) bool {
			return !d.(model.AgentView).CanMove
		}},
	},
}

// Inspector renders the cell inspection panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Height returns the panel height needed for data.
func (ins *Inspector) Height(data CellData) int32 {
	t := ins.renderer.Theme
	listed := min(len(data.Agents), maxListed)
	lines := int32(4 + listed*4)
	if len(data.Agents) > maxListed {
		lines++
	}
	return lines*t.LineHeight + t.Padding*2 + int32(listed)*6
}

// Draw renders the inspector panel for the given cell.
func (ins *Inspector) Draw(data CellData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding
	contentWidth := ins.width - padding*2

	r.DrawPanel(ins.x, ins.y, ins.width, ins.Height(data))

	x := ins.x + padding
	y := r.DrawSection(x, ins.y+padding, cellSection, data, contentWidth)

	for i, a := range data.Agents {
		if i == maxListed {
			r.DrawLabel(x, y, fmt.Sprintf("... and %d more", len(data.Agents)-maxListed))
			y += r.Theme.LineHeight
			break
		}
		y = r.DrawSection(x, y, agentSection, a, contentWidth)
		y = r.DrawSpacer(y, 2)
	}

	return y
}
