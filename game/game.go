// Package game drives a model run: stepping, telemetry and, in windowed
// mode, drawing and input.
package game

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pthm-cable/seir/camera"
	"github.com/pthm-cable/seir/config"
	"github.com/pthm-cable/seir/model"
	"github.com/pthm-cable/seir/renderer"
	"github.com/pthm-cable/seir/telemetry"
	"github.com/pthm-cable/seir/ui"
)

// Options configures a game instance.
type Options struct {
	Seed           int64
	LogStats       bool   // log window stats, perf and milestones via slog
	OutputDir      string // empty disables CSV and snapshot output
	Headless       bool
	StepsPerUpdate int
	MaxTicks       int // stop stepping at this tick (0 = until resolved)
}

// Game holds one model run and everything observing it.
type Game struct {
	cfg  *config.Config
	opts Options

	model *model.Model

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	milestones    *telemetry.MilestoneDetector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	resets        int

	// Scratch buffers reused every tick
	agents   []model.AgentView
	contacts []float64

	paused         bool
	stepsPerUpdate int

	// Windowed mode only
	camera       *camera.Camera
	gridRenderer *renderer.GridRenderer
	charts       *renderer.OutbreakCharts
	hud          *ui.HUD
	controls     *ui.ControlsPanel
	inspector    *ui.Inspector
	perfPanel    *ui.PerfPanel
	overlays     *ui.OverlayRegistry
	framePerf    *PerfStats
	layout       Layout
	selection    cellSelection
	lastPerf     telemetry.PerfStats

	screenWidth, screenHeight float32
}

// cellSelection is the grid cell picked in the inspector.
type cellSelection struct {
	x, y int
	ok   bool
}

// NewGameWithOptions creates a game running cfg.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}

	g := &Game{
		cfg:            cfg,
		opts:           opts,
		stepsPerUpdate: opts.StepsPerUpdate,
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
	}

	if !opts.Headless {
		g.screenWidth = float32(cfg.Screen.Width)
		g.screenHeight = float32(cfg.Screen.Height)
		g.layout = ComputeLayout(g.screenWidth, g.screenHeight)
		g.hud = ui.NewHUD()
		g.overlays = ui.NewOverlayRegistry()
		g.overlays.SetEnabled(ui.OverlayCharts, true)
		g.controls = ui.NewControlsPanel(0, 0, PanelWidth, cfg)
		g.inspector = ui.NewInspector(0, 0, InspectorW)
		g.perfPanel = ui.NewPerfPanel(0, 0)
		g.charts = renderer.NewOutbreakCharts(ChartTicks)
		g.framePerf = NewPerfStats(cfg.Telemetry.PerfCollectorWindow)
	}

	if err := g.start(cfg, opts.OutputDir); err != nil {
		return nil, err
	}
	return g, nil
}

// start builds a fresh model from cfg and resets every observer.
func (g *Game) start(cfg *config.Config, outputDir string) error {
	m, err := model.New(cfg, g.opts.Seed)
	if err != nil {
		return fmt.Errorf("building model: %w", err)
	}

	om, err := telemetry.NewOutputManager(outputDir, cfg.Telemetry.RecordAgents)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return fmt.Errorf("writing config: %w", err)
	}

	if g.outputManager != nil {
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}

	g.cfg = cfg
	g.model = m
	g.model.SetPhaseTimer(g.perfCollector)
	g.outputManager = om
	g.collector = telemetry.NewCollector(cfg.Derived.WindowTicks, cfg.Schedule.DaySteps)
	g.milestones = telemetry.NewMilestoneDetector(HistorySize, cfg.Telemetry.PeakDropFraction)
	g.agents = g.model.Agents(g.agents[:0])

	if err := g.outputManager.WriteAgents(0, g.agents); err != nil {
		slog.Error("failed to write agents", "error", err)
	}

	if !g.opts.Headless {
		g.camera = camera.New(g.layout.Grid.X, g.layout.Grid.Y, g.layout.Grid.W, g.layout.Grid.H, cfg.World.Width, cfg.World.Height)
		g.gridRenderer = renderer.NewGridRenderer(g.camera)
		g.charts.Reset(m.AgentCount())
		g.charts.Push(m.Snapshot())
		g.controls.Load(cfg)
		g.selection = cellSelection{}
	}

	logRunStart(g.model, outputDir)
	return nil
}

// Reset rebuilds the model from cfg with the original seed.
// Output after the first reset goes to reset_<n> subdirectories.
func (g *Game) Reset(cfg *config.Config) error {
	outputDir := ""
	if g.opts.OutputDir != "" {
		outputDir = filepath.Join(g.opts.OutputDir, fmt.Sprintf("reset_%d", g.resets+1))
	}
	if err := g.start(cfg, outputDir); err != nil {
		return err
	}
	g.resets++
	return nil
}

// SetStatsCallback registers a function receiving every flushed window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) {
	g.statsCallback = fn
}

// Step advances the model one tick and feeds telemetry.
func (g *Game) Step() {
	g.perfCollector.StartTick()
	g.model.Step()

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	counts := g.model.Snapshot()
	g.collector.RecordTick(counts)
	g.agents = g.model.Agents(g.agents[:0])

	if g.charts != nil {
		g.charts.Push(counts)
	}
	if err := g.outputManager.WriteAgents(counts.Tick, g.agents); err != nil {
		slog.Error("failed to write agents", "error", err)
	}

	g.flushTelemetry(counts)
	g.perfCollector.EndTick()
}

// UpdateHeadless advances the model without any graphics.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate && g.canStep(); i++ {
		g.Step()
	}
}

// canStep reports whether another tick may run.
func (g *Game) canStep() bool {
	return g.model.Running() && !g.LimitReached()
}

// LimitReached reports whether the run has hit Options.MaxTicks.
func (g *Game) LimitReached() bool {
	return g.opts.MaxTicks > 0 && g.model.Tick() >= g.opts.MaxTicks
}

// Done reports whether the run has resolved or hit its tick limit.
func (g *Game) Done() bool { return !g.canStep() }

// Model returns the running model.
func (g *Game) Model() *model.Model { return g.model }

// Config returns the configuration of the running model.
func (g *Game) Config() *config.Config { return g.cfg }

// Tick returns the current tick.
func (g *Game) Tick() int { return g.model.Tick() }

// Running reports whether the outbreak is still active.
func (g *Game) Running() bool { return g.model.Running() }

// Paused reports whether stepping is suspended in windowed mode.
func (g *Game) Paused() bool { return g.paused }

// Unload flushes and closes output files.
func (g *Game) Unload() {
	logRunEnd(g.model)
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
