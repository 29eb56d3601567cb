package observability

import (
	"fmt"
	"sort"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when schedule-slip alerts fire.
type AlertThresholds struct {
	// RepeatedDelayCount is the number of confirmed delays on one task
	// within the window that marks it as repeatedly slipping.
	RepeatedDelayCount int `yaml:"repeated_delay_count" json:"repeated_delay_count"`
	// WindowDays is the look-back window for all delay alerts.
	WindowDays int `yaml:"window_days" json:"window_days"`
	// MaxDelaysInWindow caps confirmed delays across the whole project.
	MaxDelaysInWindow int `yaml:"max_delays_in_window" json:"max_delays_in_window"`
}

// DefaultAlertThresholds returns the default thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		RepeatedDelayCount: 2,
		WindowDays:         7,
		MaxDelaysInWindow:  5,
	}
}

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine with the given EventLog and thresholds.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate checks every condition over the configured window. Alerts are
// ordered by severity, then id.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := ae.now()
	since := now.Add(-time.Duration(ae.thresholds.WindowDays) * 24 * time.Hour)

	delays, err := ae.eventLog.Read(EventFilter{Since: &since, Type: typeDelayConfirmed})
	if err != nil {
		return nil, fmt.Errorf("reading delay events: %w", err)
	}
	substitutions, err := ae.eventLog.Read(EventFilter{Since: &since, Type: typeDateSubstituted})
	if err != nil {
		return nil, fmt.Errorf("reading date substitution events: %w", err)
	}

	var alerts []Alert
	alerts = append(alerts, ae.checkRepeatedDelays(delays, now)...)
	alerts = append(alerts, ae.checkDelayVolume(delays, now)...)
	alerts = append(alerts, checkDateSubstitutions(substitutions, now)...)

	sort.Slice(alerts, func(i, j int) bool {
		ri, rj := severityRank(alerts[i].Severity), severityRank(alerts[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return alerts[i].ID < alerts[j].ID
	})
	return alerts, nil
}

// checkRepeatedDelays flags tasks whose end date was pushed out several times
// within the window.
func (ae *alertEngine) checkRepeatedDelays(delays []Event, now time.Time) []Alert {
	perTask := make(map[string]int)
	days := make(map[string]int)
	for _, e := range delays {
		id := e.TaskID()
		if id == "" {
			continue
		}
		perTask[id]++
		days[id] += intField(e.Data, "days")
	}

	var alerts []Alert
	for id, n := range perTask {
		if n < ae.thresholds.RepeatedDelayCount {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          fmt.Sprintf("repeated-delay-%s", id),
			Condition:   "task_repeatedly_delayed",
			Severity:    SeverityHigh,
			Message:     fmt.Sprintf("task %s was delayed %d times (%d days) in the last %d days", id, n, days[id], ae.thresholds.WindowDays),
			TriggeredAt: now,
		})
	}
	return alerts
}

func (ae *alertEngine) checkDelayVolume(delays []Event, now time.Time) []Alert {
	if ae.thresholds.MaxDelaysInWindow <= 0 || len(delays) <= ae.thresholds.MaxDelaysInWindow {
		return nil
	}
	return []Alert{{
		ID:          "delay-volume",
		Condition:   "too_many_delays",
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("%d delays confirmed in the last %d days, exceeding the maximum of %d", len(delays), ae.thresholds.WindowDays, ae.thresholds.MaxDelaysInWindow),
		TriggeredAt: now,
	}}
}

func checkDateSubstitutions(events []Event, now time.Time) []Alert {
	if len(events) == 0 {
		return nil
	}
	return []Alert{{
		ID:          "date-substitutions",
		Condition:   "unparseable_dates",
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("%d unparseable dates were replaced with the load date; check the project file", len(events)),
		TriggeredAt: now,
	}}
}

func severityRank(s AlertSeverity) int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	default:
		return 2
	}
}
