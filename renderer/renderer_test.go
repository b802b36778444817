package renderer

import (
	"math"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/seir/components"
	"github.com/pthm-cable/seir/model"
)

func TestKindColor(t *testing.T) {
	tests := []struct {
		kind components.Kind
		want rl.Color
	}{
		{components.Susceptible, rl.Color{R: 0, G: 255, B: 0, A: 255}},
		{components.Exposed, rl.Color{R: 0, G: 0, B: 255, A: 255}},
		{components.Infected, rl.Color{R: 255, G: 0, B: 0, A: 255}},
		{components.Removed, rl.Color{R: 204, G: 204, B: 204, A: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := KindColor(tt.kind); got != tt.want {
				t.Errorf("KindColor(%v) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestSlotOffset(t *testing.T) {
	if dx, dy := SlotOffset(0, 1); dx != 0 || dy != 0 {
		t.Errorf("lone agent offset = (%f, %f), want centered", dx, dy)
	}

	// Shared cells spread agents apart but stay inside the cell
	seen := make(map[[2]float32]bool)
	for slot := 0; slot < 4; slot++ {
		dx, dy := SlotOffset(slot, 4)
		dist := math.Hypot(float64(dx), float64(dy))
		if math.Abs(dist-shareOffset) > 1e-4 {
			t.Errorf("slot %d offset distance %f, want %f", slot, dist, shareOffset)
		}
		key := [2]float32{dx, dy}
		if seen[key] {
			t.Errorf("slot %d reuses offset %v", slot, key)
		}
		seen[key] = true
	}
}

func TestContactHeat(t *testing.T) {
	tests := []struct {
		name           string
		contacts, peak int
		want           float32
	}{
		{"no peak", 3, 0, 0},
		{"no contacts", 0, 5, 0},
		{"half", 2, 4, 0.5},
		{"at peak", 4, 4, 1},
		{"above peak", 9, 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContactHeat(tt.contacts, tt.peak); got != tt.want {
				t.Errorf("ContactHeat(%d, %d) = %f, want %f", tt.contacts, tt.peak, got, tt.want)
			}
		})
	}
}

func TestSeriesRingBuffer(t *testing.T) {
	s := NewSeries("I", ColorInfected, 3)

	if s.Last() != 0 || s.Max() != 0 || s.Len() != 0 {
		t.Fatal("empty series should report zeros")
	}

	for _, v := range []float64{1, 5, 2, 4} {
		s.Push(v)
	}

	got := s.Values(nil)
	want := []float64{5, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("Values() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Values() = %v, want %v", got, want)
		}
	}
	if s.Last() != 4 {
		t.Errorf("Last() = %f, want 4", s.Last())
	}
	if s.Max() != 5 {
		t.Errorf("Max() = %f, want 5", s.Max())
	}

	s.Reset()
	if s.Len() != 0 || len(s.Values(nil)) != 0 {
		t.Error("Reset should drop all samples")
	}
}

func TestPlotPoints(t *testing.T) {
	rect := rl.Rectangle{X: 10, Y: 20, Width: 100, Height: 50}
	pts := PlotPoints(nil, []float64{0, 5, 10, 20}, 5, 10, rect)

	if len(pts) != 4 {
		t.Fatalf("got %d points, want 4", len(pts))
	}
	want := []rl.Vector2{
		{X: 10, Y: 70}, // zero sits on the bottom edge
		{X: 35, Y: 45}, // half way up
		{X: 60, Y: 20}, // top edge
		{X: 85, Y: 20}, // clamped
	}
	for i, w := range want {
		if math.Abs(float64(pts[i].X-w.X)) > 1e-3 || math.Abs(float64(pts[i].Y-w.Y)) > 1e-3 {
			t.Errorf("point %d = %v, want %v", i, pts[i], w)
		}
	}
}

func TestOutbreakChartsPush(t *testing.T) {
	oc := NewOutbreakCharts(10)
	oc.Reset(50)

	oc.Push(model.Counts{Susceptible: 40, Exposed: 3, Infected: 5, Removed: 2, Isolated: 1, AverageContact: 2.5})
	oc.Push(model.Counts{Susceptible: 38, Exposed: 4, Infected: 6, Removed: 2, Isolated: 2, AverageContact: 3})

	if oc.Compartments.FixedMax != 50 {
		t.Errorf("compartment axis = %f, want population 50", oc.Compartments.FixedMax)
	}
	if got := oc.i.Last(); got != 6 {
		t.Errorf("infected series last = %f, want 6", got)
	}
	if got := oc.contact.Max(); got != 3 {
		t.Errorf("contact series max = %f, want 3", got)
	}
	if oc.Contacts.yMax() != 3 {
		t.Errorf("contact chart scales to data, got %f", oc.Contacts.yMax())
	}
}
