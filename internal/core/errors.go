package core

import "errors"

var (
	// ErrTaskNotFound is returned when no task has the requested id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrCategoryNotFound is returned when no WBS category matches.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrDuplicateCategory is returned when a category name is already taken.
	ErrDuplicateCategory = errors.New("category name already in use")

	// ErrInvalidDuration is returned for durations below one day.
	ErrInvalidDuration = errors.New("duration must be at least 1 day")

	// ErrInvalidProgress is returned for progress outside 0..100.
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")

	// ErrUnauthorizedDrag is returned when the caller may not edit the
	// schedule. Hosts should treat it as a silent no-op.
	ErrUnauthorizedDrag = errors.New("caller is not allowed to reschedule tasks")

	// ErrDragInProgress is returned when a drag session or a pending delay
	// confirmation is already outstanding.
	ErrDragInProgress = errors.New("another drag is in progress")

	// ErrNoActiveDrag is returned when a session is not the engine's active one.
	ErrNoActiveDrag = errors.New("no active drag session")

	// ErrNoPendingDelay is returned when a candidate is not awaiting confirmation.
	ErrNoPendingDelay = errors.New("no delay awaiting confirmation")

	// ErrEmptyDelayReason is returned when a delay is confirmed without a
	// justification. The candidate stays pending.
	ErrEmptyDelayReason = errors.New("a delay reason is required")
)
