package core

// EventLogger is the subset of the observability event log that the schedule
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// Schedule event types written to the event log.
const (
	EventTaskCreated       = "task.created"
	EventTaskUpdated       = "task.updated"
	EventTaskRemoved       = "task.removed"
	EventTaskRescheduled   = "task.rescheduled"
	EventDelayConfirmed    = "task.delay_confirmed"
	EventDelayDiscarded    = "task.delay_discarded"
	EventDragAborted       = "drag.aborted"
	EventCategoryRenamed   = "category.renamed"
	EventCategoryDeleted   = "category.deleted"
	EventDateSubstituted   = "date.substituted"
	EventHolidayToggled    = "holiday.toggled"
	EventCategoryCollapsed = "category.collapsed"
)

// logEvent writes to events when it is configured. Event log failures never
// interrupt an interactive edit.
func logEvent(events EventLogger, eventType string, data map[string]any) {
	if events == nil {
		return
	}
	_ = events.LogEvent(eventType, data)
}
