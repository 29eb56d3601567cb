package core

import (
	"testing"

	"github.com/valter-silva-au/wbs-gantt/internal/dates"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
	"pgregory.net/rapid"
)

func newPropertyEngine(t *rapid.T, duration int) (DragEngine, ProjectManager) {
	p := &models.Project{
		ID:        "P1",
		ManagerID: "mgr",
		StartDate: "2025-03-01",
		Tasks: []models.Task{
			{ID: "T-1", StartDate: "2025-03-10", Duration: duration},
		},
		NextTaskSeq: 1,
	}
	pm := NewProjectManager(&memStore{project: p}, NewTaskIDGenerator("T", 0), nil, discardLogger())
	if err := pm.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return NewDragEngine(pm, nil, discardLogger()), pm
}

// Dragging by exactly one column moves one day; one pixel less moves nothing.
func TestDragColumnThresholdProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		width := rapid.IntRange(10, 200).Draw(t, "columnWidth")
		origin := float64(rapid.IntRange(0, 5000).Draw(t, "origin"))
		sign := rapid.SampledFrom([]float64{1, -1}).Draw(t, "direction")

		eng, _ := newPropertyEngine(t, 3)
		s, err := eng.BeginDrag("T-1", origin, admin, width)
		if err != nil {
			t.Fatalf("BeginDrag: %v", err)
		}
		eng.UpdateDrag(s, origin+sign*float64(width-1))
		res, err := eng.EndDrag(s)
		if err != nil {
			t.Fatalf("EndDrag: %v", err)
		}
		if res.DaysDelta != 0 || res.Committed || res.DelayDetected {
			t.Fatalf("width-1 px drag resolved to %+v", res)
		}

		s, err = eng.BeginDrag("T-1", origin, admin, width)
		if err != nil {
			t.Fatalf("BeginDrag: %v", err)
		}
		eng.UpdateDrag(s, origin+sign*float64(width))
		res, err = eng.EndDrag(s)
		if err != nil {
			t.Fatalf("EndDrag: %v", err)
		}
		if res.DaysDelta != int(sign) {
			t.Fatalf("width px drag gave %d days, want %d", res.DaysDelta, int(sign))
		}
	})
}

// Later moves always wait for confirmation; the mirrored earlier move never does.
func TestDragDelayDetectionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		width := rapid.IntRange(10, 200).Draw(t, "columnWidth")
		duration := rapid.IntRange(1, 60).Draw(t, "duration")
		px := rapid.IntRange(width, 40*width).Draw(t, "pixels")

		eng, pm := newPropertyEngine(t, duration)
		before, _ := pm.GetTask("T-1")

		s, _ := eng.BeginDrag("T-1", 1000, admin, width)
		eng.UpdateDrag(s, 1000+float64(px))
		res, err := eng.EndDrag(s)
		if err != nil {
			t.Fatalf("EndDrag: %v", err)
		}
		if !res.DelayDetected || res.Committed {
			t.Fatalf("later move not held for confirmation: %+v", res)
		}
		if after, _ := pm.GetTask("T-1"); after != before {
			t.Fatalf("pending delay mutated task: %+v", after)
		}
		if err := eng.DiscardDelay(res.Candidate); err != nil {
			t.Fatalf("DiscardDelay: %v", err)
		}

		s, _ = eng.BeginDrag("T-1", 1000, admin, width)
		eng.UpdateDrag(s, 1000-float64(px))
		res, err = eng.EndDrag(s)
		if err != nil {
			t.Fatalf("EndDrag: %v", err)
		}
		if res.DelayDetected || !res.Committed {
			t.Fatalf("earlier move was not committed directly: %+v", res)
		}
		wantStart, _ := dates.AddDays(before.StartDate, -(px / width))
		if res.Task.StartDate != wantStart {
			t.Fatalf("start = %s, want %s", res.Task.StartDate, wantStart)
		}
	})
}

// Whitespace-only reasons never modify the task.
func TestConfirmDelayBlankReasonProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reason := rapid.StringOfN(rapid.SampledFrom([]rune{' ', '\t', '\n', '\r'}), 0, 8, -1).Draw(t, "reason")

		eng, pm := newPropertyEngine(t, 2)
		before, _ := pm.GetTask("T-1")
		s, _ := eng.BeginDrag("T-1", 0, admin, 40)
		eng.UpdateDrag(s, 120)
		res, _ := eng.EndDrag(s)

		if _, err := eng.ConfirmDelay(res.Candidate, reason); err == nil {
			t.Fatalf("blank reason %q accepted", reason)
		}
		if after, _ := pm.GetTask("T-1"); after != before {
			t.Fatalf("task modified: %+v", after)
		}
		if eng.State() != DragPendingDelay {
			t.Fatalf("state = %s, want pending", eng.State())
		}
	})
}
