package core

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/valter-silva-au/wbs-gantt/internal/dates"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// DragState is the state of the drag-to-reschedule protocol.
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
	DragPendingDelay
)

func (s DragState) String() string {
	switch s {
	case DragDragging:
		return "dragging"
	case DragPendingDelay:
		return "pending_delay_confirmation"
	default:
		return "idle"
	}
}

// DragSession is the transient state of one pointer gesture. The offset is
// purely visual; nothing is written to the project until EndDrag.
type DragSession struct {
	TaskID        string
	OriginX       float64
	OriginalStart string
	OffsetPx      float64
	ColumnWidth   int
}

// DaysDelta converts the accumulated offset into whole days. Partial columns
// are dropped (truncated toward zero), so a drag commits a shift only once the
// pointer has travelled at least one full column.
func (s *DragSession) DaysDelta() int {
	if s.ColumnWidth <= 0 {
		return 0
	}
	return int(s.OffsetPx / float64(s.ColumnWidth))
}

// DelayCandidate is a reschedule that pushes a task's end date later and is
// waiting for a justification.
type DelayCandidate struct {
	Original  models.Task
	Candidate models.Task
	NewStart  string
	DaysDelta int
}

// DragResult describes how a drag resolved.
type DragResult struct {
	Committed     bool
	DelayDetected bool
	DaysDelta     int
	Task          models.Task
	Candidate     *DelayCandidate
}

// DragEngine runs the Idle -> Dragging -> (PendingDelayConfirmation) -> Idle
// protocol. At most one session or pending confirmation exists at a time.
type DragEngine interface {
	State() DragState
	Pending() *DelayCandidate
	BeginDrag(taskID string, pointerX float64, who models.Identity, columnWidth int) (*DragSession, error)
	UpdateDrag(s *DragSession, pointerX float64) float64
	EndDrag(s *DragSession) (DragResult, error)
	ConfirmDelay(c *DelayCandidate, reason string) (models.Task, error)
	DiscardDelay(c *DelayCandidate) error
	AbortDrag(s *DragSession)
	Replan(taskID string, start *string, duration *int, who models.Identity, reason string) (DragResult, error)
}

type dragEngine struct {
	mu      sync.Mutex
	pm      ProjectManager
	events  EventLogger
	logger  *slog.Logger
	state   DragState
	session *DragSession
	pending *DelayCandidate
}

// NewDragEngine creates a DragEngine that commits through pm.
func NewDragEngine(pm ProjectManager, events EventLogger, logger *slog.Logger) DragEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &dragEngine{pm: pm, events: events, logger: logger}
}

func (e *dragEngine) State() DragState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *dragEngine) Pending() *DelayCandidate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// BeginDrag starts a session for taskID. Callers without edit rights get
// ErrUnauthorizedDrag and no session; hosts should ignore that error.
func (e *dragEngine) BeginDrag(taskID string, pointerX float64, who models.Identity, columnWidth int) (*DragSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != DragIdle {
		return nil, fmt.Errorf("beginning drag of %s: %w (state %s)", taskID, ErrDragInProgress, e.state)
	}
	if !who.CanEdit(e.pm.Snapshot()) {
		e.logger.Debug("ignoring drag from read-only caller", "task_id", taskID, "user", who.UserID)
		return nil, ErrUnauthorizedDrag
	}
	if columnWidth <= 0 {
		return nil, fmt.Errorf("beginning drag of %s: column width must be positive", taskID)
	}
	task, err := e.pm.GetTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("beginning drag: %w", err)
	}

	e.session = &DragSession{
		TaskID:        task.ID,
		OriginX:       pointerX,
		OriginalStart: task.StartDate,
		ColumnWidth:   columnWidth,
	}
	e.state = DragDragging
	return e.session, nil
}

// UpdateDrag records the pointer position and returns the visual offset.
func (e *dragEngine) UpdateDrag(s *DragSession, pointerX float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s == nil || s != e.session {
		return 0
	}
	s.OffsetPx = pointerX - s.OriginX
	return s.OffsetPx
}

// EndDrag resolves the gesture. A zero-day move is discarded, a move that
// pushes the end date later becomes a pending delay, anything else commits.
func (e *dragEngine) EndDrag(s *DragSession) (DragResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s == nil || s != e.session || e.state != DragDragging {
		return DragResult{}, ErrNoActiveDrag
	}
	e.session = nil
	e.state = DragIdle

	task, err := e.pm.GetTask(s.TaskID)
	if err != nil {
		return DragResult{}, fmt.Errorf("ending drag: %w", err)
	}

	delta := s.DaysDelta()
	if delta == 0 {
		return DragResult{Task: task}, nil
	}

	origStart := dates.Resolve(s.OriginalStart, e.logger)
	newStart := dates.Add(origStart, delta)
	origEnd := dates.Add(origStart, task.Duration)
	newEnd := dates.Add(newStart, task.Duration)

	if newEnd.After(origEnd) {
		candidate := task
		candidate.StartDate = dates.Format(newStart)
		e.pending = &DelayCandidate{
			Original:  task,
			Candidate: candidate,
			NewStart:  candidate.StartDate,
			DaysDelta: delta,
		}
		e.state = DragPendingDelay
		return DragResult{
			DelayDetected: true,
			DaysDelta:     delta,
			Task:          task,
			Candidate:     e.pending,
		}, nil
	}

	committed, err := e.pm.Reschedule(task.ID, dates.Format(newStart), "")
	if err != nil {
		return DragResult{}, fmt.Errorf("ending drag: %w", err)
	}
	logEvent(e.events, EventTaskRescheduled, map[string]any{
		"task_id": task.ID,
		"from":    task.StartDate,
		"to":      committed.StartDate,
		"days":    delta,
	})
	return DragResult{Committed: true, DaysDelta: delta, Task: committed}, nil
}

// ConfirmDelay commits a pending delay with its justification. A blank
// reason is rejected and the candidate stays pending.
func (e *dragEngine) ConfirmDelay(c *DelayCandidate, reason string) (models.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c == nil || c != e.pending {
		return models.Task{}, ErrNoPendingDelay
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.Task{}, ErrEmptyDelayReason
	}

	committed, err := e.pm.Reschedule(c.Original.ID, c.NewStart, reason)
	if err != nil {
		return models.Task{}, fmt.Errorf("confirming delay: %w", err)
	}
	e.pending = nil
	e.state = DragIdle

	logEvent(e.events, EventDelayConfirmed, map[string]any{
		"task_id": c.Original.ID,
		"from":    c.Original.StartDate,
		"to":      c.NewStart,
		"days":    c.DaysDelta,
		"reason":  reason,
	})
	return committed, nil
}

// DiscardDelay drops a pending delay. The task was never mutated, so it keeps
// its pre-drag value.
func (e *dragEngine) DiscardDelay(c *DelayCandidate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c == nil || c != e.pending {
		return ErrNoPendingDelay
	}
	e.pending = nil
	e.state = DragIdle

	logEvent(e.events, EventDelayDiscarded, map[string]any{
		"task_id": c.Original.ID,
		"from":    c.Original.StartDate,
		"to":      c.NewStart,
		"days":    c.DaysDelta,
	})
	return nil
}

// AbortDrag cancels an in-flight session, e.g. after the host lost the
// pointer-up event. Aborting a stale session is a no-op.
func (e *dragEngine) AbortDrag(s *DragSession) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s == nil || s != e.session {
		return
	}
	e.session = nil
	e.state = DragIdle
	logEvent(e.events, EventDragAborted, map[string]any{
		"task_id":   s.TaskID,
		"offset_px": s.OffsetPx,
	})
}

// Replan changes a task's start date and/or duration outside a pointer
// gesture. It is held to the same rules as a drag: the caller needs edit
// rights, and an edit that moves the end date later needs a reason, which is
// recorded on the task. Nothing is mutated when either check fails.
func (e *dragEngine) Replan(taskID string, start *string, duration *int, who models.Identity, reason string) (DragResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != DragIdle {
		return DragResult{}, fmt.Errorf("replanning %s: %w (state %s)", taskID, ErrDragInProgress, e.state)
	}
	if !who.CanEdit(e.pm.Snapshot()) {
		return DragResult{}, ErrUnauthorizedDrag
	}
	task, err := e.pm.GetTask(taskID)
	if err != nil {
		return DragResult{}, fmt.Errorf("replanning: %w", err)
	}

	newStart := task.StartDate
	if start != nil {
		if _, err := dates.ParseLocal(*start); err != nil {
			return DragResult{}, fmt.Errorf("replanning %s: %w", taskID, err)
		}
		newStart = *start
	}
	newDuration := task.Duration
	if duration != nil {
		if *duration < 1 {
			return DragResult{}, fmt.Errorf("replanning %s: %w (got %d)", taskID, ErrInvalidDuration, *duration)
		}
		newDuration = *duration
	}
	if newStart == task.StartDate && newDuration == task.Duration {
		return DragResult{Task: task}, nil
	}

	origEnd := dates.Add(dates.Resolve(task.StartDate, e.logger), task.Duration)
	newEnd := dates.Add(dates.Resolve(newStart, e.logger), newDuration)
	slip := dates.DayDiff(origEnd, newEnd)
	delayed := slip > 0
	reason = strings.TrimSpace(reason)
	if delayed && reason == "" {
		return DragResult{DelayDetected: true, DaysDelta: slip, Task: task}, fmt.Errorf("replanning %s: %w", taskID, ErrEmptyDelayReason)
	}
	if !delayed {
		reason = ""
	}

	if newDuration != task.Duration {
		if _, err := e.pm.UpdateTask(taskID, TaskUpdate{Duration: &newDuration}); err != nil {
			return DragResult{}, fmt.Errorf("replanning: %w", err)
		}
	}
	committed, err := e.pm.Reschedule(taskID, newStart, reason)
	if err != nil {
		return DragResult{}, fmt.Errorf("replanning: %w", err)
	}

	data := map[string]any{
		"task_id":  taskID,
		"from":     task.StartDate,
		"to":       committed.StartDate,
		"duration": committed.Duration,
		"days":     slip,
	}
	if delayed {
		data["reason"] = reason
		logEvent(e.events, EventDelayConfirmed, data)
	} else {
		logEvent(e.events, EventTaskRescheduled, data)
	}
	return DragResult{Committed: true, DelayDetected: delayed, DaysDelta: slip, Task: committed}, nil
}
