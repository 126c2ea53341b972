package engine

import (
	"fmt"
	"log/slog"
)

// Kind classifies an entry of the event stream.
type Kind string

const (
	KindInfection         Kind = "infection"
	KindRecovery          Kind = "recovery"
	KindImmunity          Kind = "immunity"
	KindDeath             Kind = "death"
	KindHeal              Kind = "heal"
	KindScan              Kind = "scan"
	KindBarrierPlaced     Kind = "barrier_placed"
	KindBarrierRemoved    Kind = "barrier_removed"
	KindResourceCollected Kind = "resource_collected"
	KindEventStart        Kind = "event_start"
	KindEventEnd          Kind = "event_end"
	KindSeed              Kind = "seed"
	KindVictory           Kind = "victory"
	KindDefeat            Kind = "defeat"
	KindNotice            Kind = "notice" // A requested action could not be performed
)

// Severity tells the UI how to colour an event.
type Severity string

const (
	SeverityInfo   Severity = "info"
	SeverityGood   Severity = "good"
	SeverityWarn   Severity = "warn"
	SeverityInfect Severity = "infect"
)

// Event is one entry of the structured event stream.
type Event struct {
	Time     float64        `json:"time"` // Match seconds
	Tick     uint64         `json:"tick"`
	Kind     Kind           `json:"kind"`
	Message  string         `json:"message"`
	Severity Severity       `json:"severity"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// EventSink receives every event as it is emitted.
type EventSink interface {
	OnEvent(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) OnEvent(e Event) { f(e) }

// SnapshotSink receives the periodic aggregate snapshot.
type SnapshotSink interface {
	OnSnapshot(Snapshot)
}

// SnapshotSinkFunc adapts a function to SnapshotSink.
type SnapshotSinkFunc func(Snapshot)

func (f SnapshotSinkFunc) OnSnapshot(s Snapshot) { f(s) }

const (
	maxRecentEvents = 1000
	noticeThrottle  = 1.0 // Seconds between repeats of the same notice
)

// stream fans events out to sinks and keeps a bounded recent history.
type stream struct {
	recent     []Event
	sinks      []EventSink
	lastNotice map[string]float64
}

func newStream() *stream {
	return &stream{lastNotice: make(map[string]float64)}
}

func (s *stream) emit(e Event) {
	s.recent = append(s.recent, e)
	if len(s.recent) > maxRecentEvents {
		s.recent = s.recent[len(s.recent)-maxRecentEvents:]
	}
	for _, sink := range s.sinks {
		sink.OnEvent(e)
	}
	slog.Debug("event", "kind", e.Kind, "time", fmt.Sprintf("%.2f", e.Time), "message", e.Message)
}

// throttled reports whether a notice with key was emitted within the
// throttle window, and records now otherwise.
func (s *stream) throttled(key string, now float64) bool {
	if last, ok := s.lastNotice[key]; ok && now-last < noticeThrottle {
		return true
	}
	s.lastNotice[key] = now
	return false
}
