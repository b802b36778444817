package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/seir/components"
	"github.com/pthm-cable/seir/model"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the observable simulation state at one tick.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	Width  int `json:"width"`
	Height int `json:"height"`

	Tick int `json:"tick"`
	Day  int `json:"day"`

	Susceptible int `json:"susceptible"`
	Exposed     int `json:"exposed"`
	Infected    int `json:"infected"`
	Removed     int `json:"removed"`

	Agents []AgentState `json:"agents"`

	Milestone *Milestone `json:"milestone,omitempty"`
}

// AgentState holds one agent's observable state.
type AgentState struct {
	ID       uint32 `json:"id"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Kind     string `json:"kind"`
	CanMove  bool   `json:"can_move"`
	Contacts int    `json:"contacts"`
}

// NewSnapshot captures the model's current state. ms may be nil.
func NewSnapshot(m *model.Model, ms *Milestone) *Snapshot {
	c := m.Snapshot()
	views := m.Agents(nil)

	snap := &Snapshot{
		Version:     SnapshotVersion,
		RNGSeed:     m.Seed(),
		Width:       m.Width(),
		Height:      m.Height(),
		Tick:        c.Tick,
		Day:         c.Day,
		Susceptible: c.Susceptible,
		Exposed:     c.Exposed,
		Infected:    c.Infected,
		Removed:     c.Removed,
		Agents:      make([]AgentState, len(views)),
		Milestone:   ms,
	}
	for i, v := range views {
		snap.Agents[i] = AgentState{
			ID:       v.ID,
			X:        v.X,
			Y:        v.Y,
			Kind:     v.Kind.Letter(),
			CanMove:  v.CanMove,
			Contacts: v.Contacts,
		}
	}
	return snap
}

// CountKind returns how many agents in the snapshot hold the given compartment.
func (s *Snapshot) CountKind(k components.Kind) int {
	n := 0
	for _, a := range s.Agents {
		if a.Kind == k.Letter() {
			n++
		}
	}
	return n
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Milestone != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Milestone.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
