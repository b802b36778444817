package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/seir/components"
	"github.com/pthm-cable/seir/config"
	"github.com/pthm-cable/seir/model"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("", true)
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}

	// All methods are safe on a nil manager
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteAgents(1, []model.AgentView{{ID: 1}}); err != nil {
		t.Error(err)
	}
	if om.RecordsAgents() || om.Dir() != "" {
		t.Error("nil manager reports output")
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir, false)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 1; i <= 3; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: i * 5, Infected: i}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
	}
	if err := om.WriteMilestone(Milestone{Type: MilestoneResolved, Tick: 15, Description: "done"}); err != nil {
		t.Fatalf("WriteMilestone: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "telemetry.csv"))
	if len(lines) != 4 {
		t.Fatalf("telemetry.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,day,susceptible") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if strings.Contains(lines[0], "WindowStartTick") {
		t.Error("excluded field written to header")
	}
	if !strings.HasPrefix(lines[3], "15,") {
		t.Errorf("last row = %q, want window_end 15", lines[3])
	}

	ms := readLines(t, filepath.Join(dir, "milestones.csv"))
	if len(ms) != 2 || ms[0] != "type,tick,day,description" {
		t.Errorf("milestones.csv = %q", ms)
	}

	if _, err := os.Stat(filepath.Join(dir, "agents.csv")); !os.IsNotExist(err) {
		t.Error("agents.csv created with agent recording disabled")
	}
}

func TestOutputManagerAgents(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir, true)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	views := []model.AgentView{
		{ID: 0, X: 1, Y: 2, Kind: components.Infected, Contacts: 3},
		{ID: 1, X: 4, Y: 0, Kind: components.Susceptible},
	}
	for tick := 1; tick <= 2; tick++ {
		if err := om.WriteAgents(tick, views); err != nil {
			t.Fatalf("WriteAgents: %v", err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "agents.csv"))
	want := []string{
		"tick,id,x,y,kind,contacts",
		"1,0,1,2,I,3",
		"1,1,4,0,S,0",
		"2,0,1,2,I,3",
		"2,1,4,0,S,0",
	}
	if len(lines) != len(want) {
		t.Fatalf("agents.csv = %q", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestOutputManagerConfig(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir, false)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	defer om.Close()

	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.Disease.InfectionRate = 0.25
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	loaded, err := config.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("loading written config: %v", err)
	}
	if loaded.Disease.InfectionRate != 0.25 {
		t.Errorf("infection_rate = %v, want 0.25", loaded.Disease.InfectionRate)
	}
}
