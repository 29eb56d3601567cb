package cli

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/wbs-gantt/internal/core"
	"github.com/valter-silva-au/wbs-gantt/internal/observability"
)

// setupHistory points EventLog at a fresh log seeded with events.
func setupHistory(t *testing.T, events ...observability.Event) {
	t.Helper()
	log, err := observability.NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	orig := EventLog
	t.Cleanup(func() {
		EventLog = orig
		_ = log.Close()
	})
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatal(err)
		}
	}
	EventLog = log
}

func historyEvents() []observability.Event {
	now := time.Now().UTC()
	return []observability.Event{
		{Time: now.Add(-40 * 24 * time.Hour), Type: core.EventTaskCreated, Data: map[string]any{"task_id": "T-1"}},
		{Time: now.Add(-3 * time.Hour), Type: core.EventTaskRescheduled, Data: map[string]any{"task_id": "T-1", "days": 2}},
		{Time: now.Add(-2 * time.Hour), Type: core.EventDelayConfirmed, Data: map[string]any{"task_id": "T-3", "reason": "rain"}},
		{Time: now.Add(-time.Hour), Level: observability.LevelWarn, Type: core.EventDateSubstituted, Data: map[string]any{"input": "2025-02-30"}},
	}
}

func TestHistoryCmd_NilEventLog(t *testing.T) {
	orig := EventLog
	defer func() { EventLog = orig }()
	EventLog = nil

	if _, err := runCmd(t, "history"); err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected not initialized error, got %v", err)
	}
}

func TestHistoryCmd_Filters(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "default window",
			args:    []string{"history"},
			want:    []string{"task.rescheduled", "task.delay_confirmed", "date.substituted"},
			notWant: []string{"task.created"},
		},
		{
			name: "wider window",
			args: []string{"history", "--since", "60d"},
			want: []string{"task.created"},
		},
		{
			name:    "by task",
			args:    []string{"history", "T-1"},
			want:    []string{"days=2 task_id=T-1"},
			notWant: []string{"T-3", "date.substituted"},
		},
		{
			name:    "by type",
			args:    []string{"history", "--type", "task.delay_confirmed"},
			want:    []string{"reason=rain task_id=T-3"},
			notWant: []string{"task.rescheduled"},
		},
		{
			name:    "warnings only",
			args:    []string{"history", "--level", "warn"},
			want:    []string{"WARN  date.substituted", "input=2025-02-30"},
			notWant: []string{"INFO"},
		},
		{
			name:    "limit keeps newest",
			args:    []string{"history", "--limit", "1"},
			want:    []string{"date.substituted"},
			notWant: []string{"task.rescheduled"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupHistory(t, historyEvents()...)

			out, err := runCmd(t, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestHistoryCmd_Empty(t *testing.T) {
	setupHistory(t)

	out, err := runCmd(t, "history", "T-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No events found.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestHistoryCmd_InvalidSince(t *testing.T) {
	setupHistory(t)

	if _, err := runCmd(t, "history", "--since", "soon"); err == nil || !strings.Contains(err.Error(), "--since") {
		t.Errorf("expected --since error, got %v", err)
	}
}
