package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/seir/components"
)

// Compartment colors.
var (
	ColorSusceptible = rl.Color{R: 0x00, G: 0xFF, B: 0x00, A: 255}
	ColorExposed     = rl.Color{R: 0x00, G: 0x00, B: 0xFF, A: 255}
	ColorInfected    = rl.Color{R: 0xFF, G: 0x00, B: 0x00, A: 255}
	ColorRemoved     = rl.Color{R: 0xCC, G: 0xCC, B: 0xCC, A: 255}

	// ColorStroke outlines every agent.
	ColorStroke = rl.Black

	// ColorIsolated is used for isolated agents and the isolated series.
	ColorIsolated = rl.Color{R: 255, G: 165, B: 0, A: 255}

	// ColorContact is used for the average contact series.
	ColorContact = rl.Color{R: 200, G: 120, B: 220, A: 255}
)

// KindColor returns the fill color for a disease kind.
func KindColor(k components.Kind) rl.Color {
	switch k {
	case components.Susceptible:
		return ColorSusceptible
	case components.Exposed:
		return ColorExposed
	case components.Infected:
		return ColorInfected
	case components.Removed:
		return ColorRemoved
	}
	return rl.Magenta
}

// withAlpha returns c with its alpha channel replaced.
func withAlpha(c rl.Color, a uint8) rl.Color {
	c.A = a
	return c
}
