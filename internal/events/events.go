// Package events defines the build lifecycle events published by the
// render orchestrator, a synchronous bus for delivering them, and
// optional sinks (sqlite journal, NATS) fed from the bus.
package events

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Event is a domain event emitted during a render pass.
type Event interface {
	// BuildID returns the build identifier this event belongs to.
	BuildID() string
	// Type returns the event type name.
	Type() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
	// Payload returns the event data as JSON bytes.
	Payload() []byte
}

// Event type names.
const (
	TypeBuildStarted    = "BuildStarted"
	TypeArtifactWritten = "ArtifactWritten"
	TypePageSkipped     = "PageSkipped"
	TypePageFailed      = "PageFailed"
	TypeBuildCompleted  = "BuildCompleted"
)

// AllTypes lists every event type, in lifecycle order. Sinks that want
// the full stream subscribe to each.
var AllTypes = []string{
	TypeBuildStarted,
	TypeArtifactWritten,
	TypePageSkipped,
	TypePageFailed,
	TypeBuildCompleted,
}

// BaseEvent provides a default implementation of Event.
type BaseEvent struct {
	EventBuildID   string
	EventType      string
	EventTimestamp time.Time
	EventPayload   []byte
}

func (e *BaseEvent) BuildID() string      { return e.EventBuildID }
func (e *BaseEvent) Type() string         { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte      { return e.EventPayload }

func newBase(buildID, eventType string, payload any) BaseEvent {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payloads are flat maps of strings and numbers; this cannot
		// happen in practice but an event must never sink a build.
		slog.Warn("marshal event payload failed", "type", eventType, "error", err)
		data = nil
	}
	return BaseEvent{
		EventBuildID:   buildID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}
}

// BuildStarted is emitted when a render pass begins.
type BuildStarted struct {
	BaseEvent
	Paths   []string `json:"paths"`
	Crawl   bool     `json:"crawl"`
	Workers int      `json:"workers"`
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID string, paths []string, crawl bool, workers int) *BuildStarted {
	return &BuildStarted{
		BaseEvent: newBase(buildID, TypeBuildStarted, map[string]any{
			"paths":   paths,
			"crawl":   crawl,
			"workers": workers,
		}),
		Paths:   paths,
		Crawl:   crawl,
		Workers: workers,
	}
}

// ArtifactWritten is emitted when a page render produces a stored artifact.
type ArtifactWritten struct {
	BaseEvent
	Path     string `json:"path"`
	Artifact string `json:"artifact"`
	Size     int    `json:"size"`
	Depth    int    `json:"depth"`
}

// NewArtifactWritten creates an ArtifactWritten event.
func NewArtifactWritten(buildID, path, artifact string, size, depth int) *ArtifactWritten {
	return &ArtifactWritten{
		BaseEvent: newBase(buildID, TypeArtifactWritten, map[string]any{
			"path":     path,
			"artifact": artifact,
			"size":     size,
			"depth":    depth,
		}),
		Path:     path,
		Artifact: artifact,
		Size:     size,
		Depth:    depth,
	}
}

// PageSkipped is emitted when a page renders but its artifact already exists.
type PageSkipped struct {
	BaseEvent
	Path     string `json:"path"`
	Artifact string `json:"artifact"`
}

// NewPageSkipped creates a PageSkipped event.
func NewPageSkipped(buildID, path, artifact string) *PageSkipped {
	return &PageSkipped{
		BaseEvent: newBase(buildID, TypePageSkipped, map[string]any{
			"path":     path,
			"artifact": artifact,
		}),
		Path:     path,
		Artifact: artifact,
	}
}

// PageFailed is emitted when rendering a page returns an error.
type PageFailed struct {
	BaseEvent
	Path  string `json:"path"`
	Error string `json:"error"`
}

// NewPageFailed creates a PageFailed event.
func NewPageFailed(buildID, path, errMsg string) *PageFailed {
	return &PageFailed{
		BaseEvent: newBase(buildID, TypePageFailed, map[string]any{
			"path":  path,
			"error": errMsg,
		}),
		Path:  path,
		Error: errMsg,
	}
}

// BuildCompleted is emitted when a render pass finishes, whatever the outcome.
type BuildCompleted struct {
	BaseEvent
	Outcome  string        `json:"outcome"`
	Written  int           `json:"written"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration_ms"`
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID, outcome string, written, skipped, failed int, duration time.Duration) *BuildCompleted {
	return &BuildCompleted{
		BaseEvent: newBase(buildID, TypeBuildCompleted, map[string]any{
			"outcome":     outcome,
			"written":     written,
			"skipped":     skipped,
			"failed":      failed,
			"duration_ms": duration.Milliseconds(),
		}),
		Outcome:  outcome,
		Written:  written,
		Skipped:  skipped,
		Failed:   failed,
		Duration: duration,
	}
}
