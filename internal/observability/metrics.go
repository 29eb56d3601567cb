package observability

import (
	"fmt"
	"time"
)

// Schedule event types the metrics and alerts understand. They mirror the
// types written by the core package.
const (
	typeTaskCreated     = "task.created"
	typeTaskRemoved     = "task.removed"
	typeTaskRescheduled = "task.rescheduled"
	typeDelayConfirmed  = "task.delay_confirmed"
	typeDelayDiscarded  = "task.delay_discarded"
	typeDragAborted     = "drag.aborted"
	typeDateSubstituted = "date.substituted"
	typeCategoryRenamed = "category.renamed"
)

// Metrics summarises schedule activity derived from the event log.
type Metrics struct {
	TasksCreated      int            `json:"tasks_created"`
	TasksRemoved      int            `json:"tasks_removed"`
	Reschedules       int            `json:"reschedules"`
	DelaysConfirmed   int            `json:"delays_confirmed"`
	DelaysDiscarded   int            `json:"delays_discarded"`
	DragsAborted      int            `json:"drags_aborted"`
	DateSubstitutions int            `json:"date_substitutions"`
	CategoryRenames   int            `json:"category_renames"`
	DelayDays         int            `json:"delay_days"`
	DelaysByTask      map[string]int `json:"delays_by_task"`
	EventCount        int            `json:"event_count"`
	OldestEvent       *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent       *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates every event since the given time.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		DelaysByTask: make(map[string]int),
		EventCount:   len(events),
	}
	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		switch event.Type {
		case typeTaskCreated:
			m.TasksCreated++
		case typeTaskRemoved:
			m.TasksRemoved++
		case typeTaskRescheduled:
			m.Reschedules++
		case typeDelayConfirmed:
			m.Reschedules++
			m.DelaysConfirmed++
			m.DelayDays += intField(event.Data, "days")
			if id := event.TaskID(); id != "" {
				m.DelaysByTask[id]++
			}
		case typeDelayDiscarded:
			m.DelaysDiscarded++
		case typeDragAborted:
			m.DragsAborted++
		case typeDateSubstituted:
			m.DateSubstitutions++
		case typeCategoryRenamed:
			m.CategoryRenames++
		}
	}
	return m, nil
}

// intField reads a numeric field from event data. Values decoded from JSON
// arrive as float64.
func intField(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
