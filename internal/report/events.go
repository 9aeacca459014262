package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventRefresh EventType = "refresh"
	EventExtract EventType = "extract"
	EventPurge   EventType = "purge"
	EventMatch   EventType = "match"
	EventReview  EventType = "review"
	EventDemote  EventType = "demote"
	EventExport  EventType = "export"
	EventError   EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in the resolve pipeline
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	Query     string            `json:"query,omitempty"`
	Path      string            `json:"path,omitempty"`
	Score     int               `json:"score,omitempty"`
	Method    string            `json:"method,omitempty"`
	Status    string            `json:"status,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// NullLogger returns a logger that silently discards everything
func NullLogger() *EventLogger {
	return &EventLogger{}
}

// Path returns the event log path, or "" for a null logger
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close closes the underlying file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogExtract logs a metadata extraction event
func (l *EventLogger) LogExtract(path string, err error) error {
	level := LevelDebug
	errMsg := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level: level,
		Event: EventExtract,
		Path:  path,
		Error: errMsg,
	})
}

// LogPurge logs removal of a vanished catalogue entry
func (l *EventLogger) LogPurge(path string) error {
	return l.Log(&Event{
		Level: LevelInfo,
		Event: EventPurge,
		Path:  path,
	})
}

// LogMatch logs the outcome of one query
func (l *EventLogger) LogMatch(query, path string, score int, method, status string) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventMatch,
		Query:  query,
		Path:   path,
		Score:  score,
		Method: method,
		Status: status,
	})
}

// LogDemote logs a suspicious-pattern demotion
func (l *EventLogger) LogDemote(query, path string, score int, reason string) error {
	return l.Log(&Event{
		Level:  LevelWarning,
		Event:  EventDemote,
		Query:  query,
		Path:   path,
		Score:  score,
		Reason: reason,
	})
}

// LogReview logs a review resolution
func (l *EventLogger) LogReview(query, path string, status string) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventReview,
		Query:  query,
		Path:   path,
		Status: status,
	})
}

// LogExport logs an exporter run
func (l *EventLogger) LogExport(path string, count int) error {
	return l.Log(&Event{
		Level: LevelInfo,
		Event: EventExport,
		Path:  path,
		Extra: map[string]string{
			"count": fmt.Sprintf("%d", count),
		},
	})
}
