package core

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/valter-silva-au/wbs-gantt/internal/dates"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// --- Helpers ---

// memStore is an in-memory ProjectStore.
type memStore struct {
	project *models.Project
	saves   int
}

func (s *memStore) Load() (*models.Project, error) {
	if s.project == nil {
		return &models.Project{}, nil
	}
	return s.project.Clone(), nil
}

func (s *memStore) Save(p *models.Project) error {
	s.project = p.Clone()
	s.saves++
	return nil
}

// recordingEvents captures logged events in order.
type recordingEvents struct {
	events []recordedEvent
}

type recordedEvent struct {
	Type string
	Data map[string]any
}

func (r *recordingEvents) LogEvent(eventType string, data map[string]any) error {
	r.events = append(r.events, recordedEvent{Type: eventType, Data: data})
	return nil
}

func (r *recordingEvents) types() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleProject() *models.Project {
	return &models.Project{
		ID:        "P100",
		Name:      "Plant Upgrade",
		ManagerID: "mgr",
		StartDate: "2025-01-01",
		Categories: []models.WBSCategory{
			{ID: "c-design", Name: "Design"},
			{ID: "c-build", Name: "Build"},
		},
		Tasks: []models.Task{
			{ID: "T-1", Title: "Survey", Category: "Design", StartDate: "2025-01-01", Duration: 5, Progress: 50},
			{ID: "T-2", Title: "Drawings", Category: "Design", StartDate: "2025-01-03", Duration: 1, Progress: 100},
			{ID: "T-3", Title: "Foundations", Category: "Build", StartDate: "2025-01-10", Duration: 4},
		},
		NextTaskSeq: 3,
	}
}

func newTestManager(t *testing.T, p *models.Project) (ProjectManager, *memStore, *recordingEvents) {
	t.Helper()
	store := &memStore{project: p}
	events := &recordingEvents{}
	pm := NewProjectManager(store, NewTaskIDGenerator("T", 0), events, discardLogger())
	if err := pm.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return pm, store, events
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// --- Load ---

func TestProjectManager_LoadRepairsRecords(t *testing.T) {
	p := sampleProject()
	p.Tasks[0].Duration = 0
	p.Tasks[1].StartDate = "not-a-date"

	pm, _, events := newTestManager(t, p)

	t1, _ := pm.GetTask("T-1")
	if t1.Duration != 1 {
		t.Errorf("expected duration clamped to 1, got %d", t1.Duration)
	}
	t2, _ := pm.GetTask("T-2")
	if t2.StartDate != dates.Format(dates.Today()) {
		t.Errorf("expected today's date substituted, got %q", t2.StartDate)
	}
	if len(events.events) != 1 || events.events[0].Type != EventDateSubstituted {
		t.Errorf("expected one %s event, got %v", EventDateSubstituted, events.types())
	}
}

func TestProjectManager_LoadClampsProgress(t *testing.T) {
	p := sampleProject()
	p.Tasks[0].Progress = 150
	p.Tasks[1].Progress = -20

	pm, _, _ := newTestManager(t, p)

	if t1, _ := pm.GetTask("T-1"); t1.Progress != 100 {
		t.Errorf("expected progress clamped to 100, got %d", t1.Progress)
	}
	if t2, _ := pm.GetTask("T-2"); t2.Progress != 0 {
		t.Errorf("expected progress clamped to 0, got %d", t2.Progress)
	}
	if t3, _ := pm.GetTask("T-3"); t3.Progress != 0 {
		t.Errorf("in-range progress changed: %d", t3.Progress)
	}

	sum := Rollup(pm.Tasks(), "Design", discardLogger())
	if sum == nil || sum.Progress < 0 || sum.Progress > 100 {
		t.Errorf("rollup progress out of range: %+v", sum)
	}
}

func TestProjectManager_SnapshotIsIsolated(t *testing.T) {
	pm, _, _ := newTestManager(t, sampleProject())

	snap := pm.Snapshot()
	snap.Tasks[0].Title = "changed"
	snap.Categories[0].Name = "changed"

	if got, _ := pm.GetTask("T-1"); got.Title != "Survey" {
		t.Errorf("snapshot mutation leaked into manager: %q", got.Title)
	}
	if pm.Categories()[0].Name != "Design" {
		t.Error("snapshot category mutation leaked into manager")
	}
}

// --- Tasks ---

func TestProjectManager_AddTaskDefaults(t *testing.T) {
	pm, _, events := newTestManager(t, sampleProject())

	task, err := pm.AddTask("  Wiring  ", "Build")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if task.ID != "T-4" {
		t.Errorf("ID = %q, want T-4", task.ID)
	}
	if task.Title != "Wiring" {
		t.Errorf("Title = %q, want trimmed", task.Title)
	}
	if task.StartDate != "2025-01-01" || task.Duration != 1 || task.Progress != 0 {
		t.Errorf("unexpected defaults: %+v", task)
	}
	if got := events.types(); len(got) != 1 || got[0] != EventTaskCreated {
		t.Errorf("events = %v", got)
	}
}

func TestProjectManager_AddTaskUnknownCategory(t *testing.T) {
	pm, _, _ := newTestManager(t, sampleProject())

	_, err := pm.AddTask("x", "Commissioning")
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestProjectManager_TaskIDsNeverReused(t *testing.T) {
	pm, _, _ := newTestManager(t, sampleProject())

	if err := pm.RemoveTask("T-3"); err != nil {
		t.Fatalf("RemoveTask: %v", err)
	}
	task, err := pm.AddTask("replacement", "")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if task.ID == "T-3" {
		t.Fatal("removed task id was reused")
	}
	if _, err := pm.GetTask("T-3"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected removed task to be gone, got %v", err)
	}
}

func TestProjectManager_UpdateTaskValidation(t *testing.T) {
	tests := []struct {
		name    string
		upd     TaskUpdate
		wantErr error
	}{
		{"zero duration", TaskUpdate{Duration: intPtr(0)}, ErrInvalidDuration},
		{"negative progress", TaskUpdate{Progress: intPtr(-1)}, ErrInvalidProgress},
		{"progress over 100", TaskUpdate{Progress: intPtr(101)}, ErrInvalidProgress},
		{"bad date", TaskUpdate{StartDate: strPtr("2025-13-01")}, dates.ErrInvalidDate},
		{"unknown category", TaskUpdate{Category: strPtr("Nope")}, ErrCategoryNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm, _, _ := newTestManager(t, sampleProject())
			before, _ := pm.GetTask("T-1")

			_, err := pm.UpdateTask("T-1", tt.upd)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if after, _ := pm.GetTask("T-1"); after != before {
				t.Errorf("task changed on failed update: %+v", after)
			}
		})
	}
}

func TestProjectManager_UpdateTaskApplies(t *testing.T) {
	pm, _, _ := newTestManager(t, sampleProject())

	got, err := pm.UpdateTask("T-1", TaskUpdate{
		Assignee: strPtr("alice"),
		Duration: intPtr(8),
		Progress: intPtr(75),
		Category: strPtr(""),
	})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if got.Assignee != "alice" || got.Duration != 8 || got.Progress != 75 || got.Category != "" {
		t.Errorf("unexpected task after update: %+v", got)
	}
	if got.Title != "Survey" {
		t.Errorf("untouched field changed: %q", got.Title)
	}
}

func TestProjectManager_RescheduleKeepsEarlierReason(t *testing.T) {
	pm, _, _ := newTestManager(t, sampleProject())

	if _, err := pm.Reschedule("T-1", "2025-01-05", "supplier late"); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	got, err := pm.Reschedule("T-1", "2025-01-02", "")
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if got.StartDate != "2025-01-02" || got.DelayReason != "supplier late" {
		t.Errorf("unexpected task: %+v", got)
	}
}

// --- Categories ---

func TestProjectManager_RenameCategoryCascades(t *testing.T) {
	pm, _, events := newTestManager(t, sampleProject())

	n, err := pm.RenameCategory("c-design", "Engineering")
	if err != nil {
		t.Fatalf("RenameCategory: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 tasks updated, got %d", n)
	}
	for _, task := range pm.Tasks() {
		if task.Category == "Design" {
			t.Errorf("task %s still references old name", task.ID)
		}
	}
	if r := Rollup(pm.Tasks(), "Engineering", discardLogger()); r == nil || r.TaskCount != 2 {
		t.Errorf("rollup under new name = %+v", r)
	}
	if got := events.types(); len(got) != 1 || got[0] != EventCategoryRenamed {
		t.Errorf("events = %v", got)
	}
}

func TestProjectManager_RenameCategoryConflicts(t *testing.T) {
	pm, _, _ := newTestManager(t, sampleProject())

	if _, err := pm.RenameCategory("c-design", "Build"); !errors.Is(err, ErrDuplicateCategory) {
		t.Errorf("expected ErrDuplicateCategory, got %v", err)
	}
	if _, err := pm.RenameCategory("missing", "X"); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestProjectManager_DeleteCategoryPolicies(t *testing.T) {
	t.Run("orphan", func(t *testing.T) {
		pm, _, _ := newTestManager(t, sampleProject())
		n, err := pm.DeleteCategory("c-design", DeleteOrphan)
		if err != nil {
			t.Fatalf("DeleteCategory: %v", err)
		}
		if n != 2 || len(pm.Tasks()) != 3 {
			t.Fatalf("affected=%d tasks=%d, want 2 and 3", n, len(pm.Tasks()))
		}
		for _, id := range []string{"T-1", "T-2"} {
			if task, _ := pm.GetTask(id); task.Category != "" {
				t.Errorf("%s category = %q, want empty", id, task.Category)
			}
		}
	})

	t.Run("cascade", func(t *testing.T) {
		pm, _, _ := newTestManager(t, sampleProject())
		n, err := pm.DeleteCategory("c-design", DeleteCascade)
		if err != nil {
			t.Fatalf("DeleteCategory: %v", err)
		}
		if n != 2 || len(pm.Tasks()) != 1 {
			t.Fatalf("affected=%d tasks=%d, want 2 and 1", n, len(pm.Tasks()))
		}
		if _, err := pm.GetTask("T-3"); err != nil {
			t.Errorf("index not rebuilt after cascade: %v", err)
		}
	})
}

func TestProjectManager_AddAndFindCategory(t *testing.T) {
	pm, _, _ := newTestManager(t, sampleProject())

	c, err := pm.AddCategory("Commissioning")
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if c.ID == "" {
		t.Error("expected generated category id")
	}
	if _, err := pm.AddCategory("Commissioning"); !errors.Is(err, ErrDuplicateCategory) {
		t.Errorf("expected duplicate error, got %v", err)
	}
	byName, err := pm.FindCategory("Commissioning")
	if err != nil || byName.ID != c.ID {
		t.Errorf("FindCategory by name = %+v, %v", byName, err)
	}
	byID, err := pm.FindCategory(c.ID)
	if err != nil || byID.Name != "Commissioning" {
		t.Errorf("FindCategory by id = %+v, %v", byID, err)
	}
}

// --- Project schedule ---

func TestProjectManager_ToggleHoliday(t *testing.T) {
	pm, _, _ := newTestManager(t, sampleProject())

	on, err := pm.ToggleHoliday("2025/1/6")
	if err != nil || !on {
		t.Fatalf("first toggle = %v, %v", on, err)
	}
	if got := pm.Snapshot().Holidays; len(got) != 1 || got[0] != "2025-01-06" {
		t.Errorf("holidays = %v", got)
	}
	on, err = pm.ToggleHoliday("2025-01-06")
	if err != nil || on {
		t.Fatalf("second toggle = %v, %v", on, err)
	}
	if got := pm.Snapshot().Holidays; len(got) != 0 {
		t.Errorf("holidays = %v, want none", got)
	}
	if _, err := pm.ToggleHoliday("someday"); !errors.Is(err, dates.ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func TestProjectManager_SetSchedule(t *testing.T) {
	pm, _, _ := newTestManager(t, sampleProject())

	if err := pm.SetSchedule("", "2025-03-01"); err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}
	if got := pm.Snapshot().EndDate; got != "2025-03-01" {
		t.Errorf("EndDate = %q", got)
	}
	if err := pm.SetSchedule("", "2024-12-01"); err == nil {
		t.Error("expected error for end before start")
	}
}

func TestProjectManager_SaveWritesStore(t *testing.T) {
	pm, store, _ := newTestManager(t, sampleProject())

	if _, err := pm.AddTask("New", ""); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if err := pm.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if store.saves != 1 || len(store.project.Tasks) != 4 || store.project.NextTaskSeq != 4 {
		t.Errorf("store not updated: saves=%d tasks=%d seq=%d", store.saves, len(store.project.Tasks), store.project.NextTaskSeq)
	}
}
