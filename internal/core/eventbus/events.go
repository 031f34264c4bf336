// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within techtrack.
package eventbus

import (
	"github.com/colonyops/techtrack/internal/core/tech"
)

// Event names an event type.
type Event string

const (
	// Keep list sorted A-Z
	EventItemCreated           Event = "item.created"
	EventItemDeleted           Event = "item.deleted"
	EventItemStatusChanged     Event = "item.status-changed"
	EventNotificationPublished Event = "notification.published"
	EventTrackerChanged        Event = "tracker.changed"
	EventTrackerImported       Event = "tracker.imported"
	EventTrackerReloaded       Event = "tracker.reloaded"
)

// Events lists every event type.
var Events = []Event{
	EventItemCreated,
	EventItemDeleted,
	EventItemStatusChanged,
	EventNotificationPublished,
	EventTrackerChanged,
	EventTrackerImported,
	EventTrackerReloaded,
}

// ItemCreatedPayload is emitted when a technology is added.
type ItemCreatedPayload struct {
	Item tech.Item
}

// ItemDeletedPayload is emitted when a technology is removed.
type ItemDeletedPayload struct {
	ItemID tech.ID
	Title  string
}

// ItemStatusChangedPayload is emitted whenever an operation moves an item to
// a different status, whether set directly or derived from its notes.
type ItemStatusChangedPayload struct {
	ItemID    tech.ID
	Title     string
	OldStatus tech.Status
	NewStatus tech.Status
}

// TrackerChangedPayload is emitted after every successful mutation, once the
// new collection is persisted.
type TrackerChangedPayload struct {
	Op    string
	Count int
}

// TrackerImportedPayload is emitted after an import replaced the collection.
type TrackerImportedPayload struct {
	Count int
}

// TrackerReloadedPayload is emitted when the collection was re-read from
// storage after an external edit.
type TrackerReloadedPayload struct {
	Count int
}

// Level is the severity of a user-facing notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
)

// NotificationPublishedPayload carries a user-facing message derived from a
// domain event.
type NotificationPublishedPayload struct {
	Level   Level
	Message string
}
