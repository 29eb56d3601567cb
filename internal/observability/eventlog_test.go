package observability

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestEventLog_WriteAndRead(t *testing.T) {
	log := newTestLog(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	writeEvents(t, log,
		Event{Time: now, Level: LevelInfo, Type: "task.rescheduled", Message: "moved", Data: map[string]any{"task_id": "T-1"}},
		Event{Time: now.Add(time.Second), Level: LevelWarn, Type: "date.substituted", Message: "bad date"},
	)

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 events, got %d", len(result))
	}
	if result[0].Type != "task.rescheduled" || result[0].TaskID() != "T-1" {
		t.Errorf("first event = %+v", result[0])
	}
	if result[1].Level != LevelWarn {
		t.Errorf("expected level WARN, got %s", result[1].Level)
	}
}

func TestEventLog_WriteDefaults(t *testing.T) {
	log := newTestLog(t)
	before := time.Now().UTC().Add(-time.Second)

	writeEvents(t, log, Event{Type: "drag.aborted"})

	result, _ := log.Read(EventFilter{})
	if len(result) != 1 {
		t.Fatalf("expected 1 event, got %d", len(result))
	}
	if result[0].Level != LevelInfo {
		t.Errorf("Level = %q, want INFO", result[0].Level)
	}
	if result[0].Time.Before(before) {
		t.Errorf("Time not stamped: %v", result[0].Time)
	}
}

func TestEventLog_Filters(t *testing.T) {
	log := newTestLog(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	writeEvents(t, log,
		delayEvent(base, "T-1", 2),
		delayEvent(base.Add(24*time.Hour), "T-2", 1),
		Event{Time: base.Add(48 * time.Hour), Type: typeTaskRescheduled, Data: map[string]any{"task_id": "T-1"}},
		Event{Time: base.Add(72 * time.Hour), Level: LevelWarn, Type: typeDateSubstituted},
	)

	since := base.Add(time.Hour)
	until := base.Add(50 * time.Hour)
	tests := []struct {
		name   string
		filter EventFilter
		want   int
	}{
		{"all", EventFilter{}, 4},
		{"by type", EventFilter{Type: typeDelayConfirmed}, 2},
		{"by task", EventFilter{TaskID: "T-1"}, 2},
		{"by level", EventFilter{Level: LevelWarn}, 1},
		{"since", EventFilter{Since: &since}, 3},
		{"range", EventFilter{Since: &since, Until: &until}, 2},
		{"task and type", EventFilter{TaskID: "T-1", Type: typeDelayConfirmed}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := log.Read(tt.filter)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := `{"time":"2025-06-01T00:00:00Z","level":"INFO","type":"task.created","msg":"x"}
{broken
{"time":"2025-06-02T00:00:00Z","level":"INFO","type":"task.removed","msg":"y"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("opening: %v", err)
	}
	defer log.Close()

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 events, got %d", len(got))
	}
}

func TestEventLog_ConcurrentWrites(t *testing.T) {
	log := newTestLog(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = log.Write(Event{Type: typeTaskRescheduled, Data: map[string]any{"n": n}})
		}(i)
	}
	wg.Wait()

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 20 {
		t.Errorf("expected 20 events, got %d", len(got))
	}
}
