package steward

import (
	"encoding/json"
	"log/slog"
	"os"
)

const maxRecords = 10

// CycleRecord captures what happened in a single cycle.
type CycleRecord struct {
	Tick       uint64  `json:"tick"`
	Elapsed    float64 `json:"elapsed"`
	Level      Level   `json:"level"`
	Action     string  `json:"action"` // Event ID, or "none"
	Started    bool    `json:"started"`
	Casualties int     `json:"casualties"`
	Rationale  string  `json:"rationale,omitempty"`
}

// Memory is a ring of recent cycle records, optionally persisted to a
// JSON file so a restarted steward keeps its streaks.
type Memory struct {
	Records []CycleRecord `json:"records"`
	path    string
}

// LoadMemory reads path. A missing or empty path, or a corrupt file,
// yields empty memory.
func LoadMemory(path string) *Memory {
	mem := &Memory{path: path}
	if path == "" {
		return mem
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mem
	}
	if err := json.Unmarshal(data, mem); err != nil {
		slog.Warn("steward memory corrupted, starting fresh", "path", path, "error", err)
		return &Memory{path: path}
	}
	return mem
}

// Save writes the memory to its file, if it has one.
func (m *Memory) Save() {
	if m.path == "" {
		return
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		slog.Error("failed to marshal steward memory", "error", err)
		return
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		slog.Error("failed to write steward memory", "error", err)
	}
}

// Record adds a cycle record, trimming to maxRecords. A record from an
// earlier tick than the last one means a new match started, so the ring
// is cleared first.
func (m *Memory) Record(r CycleRecord) {
	if n := len(m.Records); n > 0 && r.Tick < m.Records[n-1].Tick {
		m.Records = nil
	}
	m.Records = append(m.Records, r)
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// Streak counts the consecutive most recent records at level.
func (m *Memory) Streak(level Level) int {
	n := 0
	for i := len(m.Records) - 1; i >= 0 && m.Records[i].Level == level; i-- {
		n++
	}
	return n
}

// LastAction returns the action of the latest cycle that started an
// event, or "" if the latest cycle did not.
func (m *Memory) LastAction() string {
	if len(m.Records) == 0 {
		return ""
	}
	last := m.Records[len(m.Records)-1]
	if !last.Started {
		return ""
	}
	return last.Action
}
