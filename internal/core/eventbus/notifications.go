package eventbus

import (
	"fmt"

	"github.com/colonyops/techtrack/internal/core/tech"
)

// NotificationRouter maps domain events to user-facing notifications.
type NotificationRouter struct {
	bus *EventBus
}

// NewNotificationRouter constructs a router for event-to-notification mappings.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeItemCreated(func(p ItemCreatedPayload) {
		r.notifyf(LevelInfo, "added %q", p.Item.Title)
	})

	r.bus.SubscribeItemDeleted(func(p ItemDeletedPayload) {
		r.notifyf(LevelInfo, "removed %q", p.Title)
	})

	r.bus.SubscribeItemStatusChanged(func(p ItemStatusChangedPayload) {
		switch {
		case p.NewStatus == tech.StatusCompleted:
			r.notifyf(LevelSuccess, "%q completed", p.Title)
		case p.OldStatus == tech.StatusCompleted:
			r.notifyf(LevelWarning, "%q is no longer completed", p.Title)
		}
	})

	r.bus.SubscribeTrackerImported(func(p TrackerImportedPayload) {
		r.notifyf(LevelSuccess, "imported %d technologies", p.Count)
	})

	r.bus.SubscribeTrackerReloaded(func(p TrackerReloadedPayload) {
		r.notifyf(LevelInfo, "reloaded %d technologies from disk", p.Count)
	})
}

func (r *NotificationRouter) notifyf(level Level, format string, args ...any) {
	r.bus.PublishNotificationPublished(NotificationPublishedPayload{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}
