package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/seir/config"
	"github.com/pthm-cable/seir/model"
)

// AgentSample is one agent's state at one tick, as written to agents.csv.
type AgentSample struct {
	Tick     int    `csv:"tick"`
	ID       uint32 `csv:"id"`
	X        int    `csv:"x"`
	Y        int    `csv:"y"`
	Kind     string `csv:"kind"`
	Contacts int    `csv:"contacts"`
}

// csvFile appends gocsv records to a file, writing the header once.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func createCSV(dir, name string) (*csvFile, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvFile{f: f}, nil
}

// writeRecords marshals records to c. The first write includes headers.
func writeRecords[T any](c *csvFile, records []T) error {
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

func (c *csvFile) Close() error {
	if c == nil {
		return nil
	}
	return c.f.Close()
}

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir        string
	telemetry  *csvFile
	perf       *csvFile
	milestones *csvFile
	agents     *csvFile // nil unless agent recording is enabled
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled). agents.csv is created only
// when recordAgents is set.
func NewOutputManager(dir string, recordAgents bool) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	var err error

	if om.telemetry, err = createCSV(dir, "telemetry.csv"); err != nil {
		return nil, err
	}
	if om.perf, err = createCSV(dir, "perf.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.milestones, err = createCSV(dir, "milestones.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if recordAgents {
		if om.agents, err = createCSV(dir, "agents.csv"); err != nil {
			om.Close()
			return nil, err
		}
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := writeRecords(om.telemetry, []WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	if err := writeRecords(om.perf, []PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteMilestone writes a milestone record to milestones.csv.
func (om *OutputManager) WriteMilestone(m Milestone) error {
	if om == nil {
		return nil
	}
	if err := writeRecords(om.milestones, []Milestone{m}); err != nil {
		return fmt.Errorf("writing milestone: %w", err)
	}
	return nil
}

// RecordsAgents reports whether agents.csv is being written.
func (om *OutputManager) RecordsAgents() bool {
	return om != nil && om.agents != nil
}

// WriteAgents appends one row per agent for the given tick to agents.csv.
// It is a no-op when agent recording is disabled.
func (om *OutputManager) WriteAgents(tick int, views []model.AgentView) error {
	if !om.RecordsAgents() || len(views) == 0 {
		return nil
	}
	samples := make([]AgentSample, len(views))
	for i, v := range views {
		samples[i] = AgentSample{
			Tick:     tick,
			ID:       v.ID,
			X:        v.X,
			Y:        v.Y,
			Kind:     v.Kind.Letter(),
			Contacts: v.Contacts,
		}
	}
	if err := writeRecords(om.agents, samples); err != nil {
		return fmt.Errorf("writing agents: %w", err)
	}
	return nil
}

// SnapshotDir returns the directory milestone snapshots are written to.
func (om *OutputManager) SnapshotDir() string {
	if om == nil {
		return ""
	}
	return filepath.Join(om.dir, "snapshots")
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, c := range []*csvFile{om.telemetry, om.perf, om.milestones, om.agents} {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
