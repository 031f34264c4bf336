package eventbus

func (bus *EventBus) PublishItemCreated(p ItemCreatedPayload) {
	publish(bus, EventItemCreated, p)
}

func (bus *EventBus) SubscribeItemCreated(fn func(ItemCreatedPayload)) {
	subscribe(bus, EventItemCreated, fn)
}

func (bus *EventBus) PublishItemDeleted(p ItemDeletedPayload) {
	publish(bus, EventItemDeleted, p)
}

func (bus *EventBus) SubscribeItemDeleted(fn func(ItemDeletedPayload)) {
	subscribe(bus, EventItemDeleted, fn)
}

func (bus *EventBus) PublishItemStatusChanged(p ItemStatusChangedPayload) {
	publish(bus, EventItemStatusChanged, p)
}

func (bus *EventBus) SubscribeItemStatusChanged(fn func(ItemStatusChangedPayload)) {
	subscribe(bus, EventItemStatusChanged, fn)
}

func (bus *EventBus) PublishNotificationPublished(p NotificationPublishedPayload) {
	publish(bus, EventNotificationPublished, p)
}

func (bus *EventBus) SubscribeNotificationPublished(fn func(NotificationPublishedPayload)) {
	subscribe(bus, EventNotificationPublished, fn)
}

func (bus *EventBus) PublishTrackerChanged(p TrackerChangedPayload) {
	publish(bus, EventTrackerChanged, p)
}

func (bus *EventBus) SubscribeTrackerChanged(fn func(TrackerChangedPayload)) {
	subscribe(bus, EventTrackerChanged, fn)
}

func (bus *EventBus) PublishTrackerImported(p TrackerImportedPayload) {
	publish(bus, EventTrackerImported, p)
}

func (bus *EventBus) SubscribeTrackerImported(fn func(TrackerImportedPayload)) {
	subscribe(bus, EventTrackerImported, fn)
}

func (bus *EventBus) PublishTrackerReloaded(p TrackerReloadedPayload) {
	publish(bus, EventTrackerReloaded, p)
}

func (bus *EventBus) SubscribeTrackerReloaded(fn func(TrackerReloadedPayload)) {
	subscribe(bus, EventTrackerReloaded, fn)
}
