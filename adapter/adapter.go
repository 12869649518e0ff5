// Package adapter defines the downstream event boundary.
//
// Adapters publish one event per completed story to downstream systems.
// The runtime owns adapter lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"encoding/json"
)

// SchemaVersion is the published event schema version.
const SchemaVersion = "1.0.0"

// EventTypeStoryCompleted is the event type for decoded stories.
const EventTypeStoryCompleted = "story_completed"

// StoryCompletedEvent is the payload published when a story completes
// reassembly and decodes successfully.
type StoryCompletedEvent struct {
	SchemaVersion string `json:"schema_version"`
	EventType     string `json:"event_type"` // always "story_completed"
	GUID          string `json:"guid"`
	Source        string `json:"source"`
	RIC           string `json:"ric"`
	SessionID     string `json:"session_id,omitempty"`
	Headline      string `json:"headline"`
	Language      string `json:"language"`
	Provider      string `json:"provider"`
	// VersionCreated is the story's own version timestamp, ISO 8601.
	VersionCreated string `json:"version_created"`
	// Timestamp is the publish time, ISO 8601.
	Timestamp string `json:"timestamp"`
	// Fragments is how many fragments the story arrived in.
	Fragments int64 `json:"fragments"`
	// Story is the full decoded document.
	Story json.RawMessage `json:"story"`
}

// Adapter publishes story completion events to a downstream system.
// Implementations must be safe for reuse across a whole session.
type Adapter interface {
	// Publish sends a story completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *StoryCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
