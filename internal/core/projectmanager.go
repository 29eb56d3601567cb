package core

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/valter-silva-au/wbs-gantt/internal/dates"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// ProjectStore is the subset of storage.ProjectFileManager that the project
// manager needs. Defining it here keeps core independent of the storage package.
type ProjectStore interface {
	Load() (*models.Project, error)
	Save(p *models.Project) error
}

// DeletePolicy decides what happens to tasks that reference a deleted category.
type DeletePolicy string

const (
	// DeleteOrphan keeps the tasks and clears their category.
	DeleteOrphan DeletePolicy = "orphan"
	// DeleteCascade removes the tasks along with the category.
	DeleteCascade DeletePolicy = "cascade"
)

// TaskUpdate carries optional field changes; nil fields are left untouched.
// DelayReason is deliberately absent: it is only written by Reschedule.
type TaskUpdate struct {
	Title     *string
	Category  *string
	Assignee  *string
	StartDate *string
	Duration  *int
	Progress  *int
}

// ProjectManager owns one project's categories and tasks as an indexed
// collection. All reads return copies; callers never share the manager's
// slices.
type ProjectManager interface {
	Load() error
	Save() error
	Snapshot() *models.Project

	Tasks() []models.Task
	GetTask(taskID string) (models.Task, error)
	AddTask(title, category string) (models.Task, error)
	UpdateTask(taskID string, upd TaskUpdate) (models.Task, error)
	Reschedule(taskID, newStart, delayReason string) (models.Task, error)
	RemoveTask(taskID string) error

	Categories() []models.WBSCategory
	AddCategory(name string) (models.WBSCategory, error)
	RenameCategory(categoryID, newName string) (int, error)
	DeleteCategory(categoryID string, policy DeletePolicy) (int, error)
	SetCollapsed(categoryID string, collapsed bool) error
	FindCategory(idOrName string) (models.WBSCategory, error)

	ToggleHoliday(date string) (bool, error)
	SetSchedule(startDate, endDate string) error
	SetInfo(id, name, managerID string)
}

type projectManager struct {
	store   ProjectStore
	idGen   TaskIDGenerator
	events  EventLogger
	logger  *slog.Logger
	project *models.Project
	index   map[string]int
}

// NewProjectManager creates a ProjectManager backed by store. events may be
// nil when observability is disabled.
func NewProjectManager(store ProjectStore, idGen TaskIDGenerator, events EventLogger, logger *slog.Logger) ProjectManager {
	if logger == nil {
		logger = slog.Default()
	}
	pm := &projectManager{
		store:  store,
		idGen:  idGen,
		events: events,
		logger: logger,
	}
	pm.reset(&models.Project{StartDate: dates.Format(dates.Today())})
	return pm
}

func (pm *projectManager) reset(p *models.Project) {
	pm.project = p
	pm.reindex()
}

func (pm *projectManager) reindex() {
	pm.index = make(map[string]int, len(pm.project.Tasks))
	for i, t := range pm.project.Tasks {
		pm.index[t.ID] = i
	}
}

func (pm *projectManager) Load() error {
	p, err := pm.store.Load()
	if err != nil {
		return fmt.Errorf("loading project: %w", err)
	}
	if p.StartDate == "" {
		p.StartDate = dates.Format(dates.Today())
	}
	for i := range p.Tasks {
		t := &p.Tasks[i]
		if t.Duration < 1 {
			pm.logger.Warn("clamping task duration to 1 day", "task_id", t.ID, "duration", t.Duration)
			t.Duration = 1
		}
		if t.Progress < 0 || t.Progress > 100 {
			clamped := min(max(t.Progress, 0), 100)
			pm.logger.Warn("clamping task progress", "task_id", t.ID, "progress", t.Progress, "clamped", clamped)
			t.Progress = clamped
		}
		if t.StartDate != "" && !dates.Valid(t.StartDate) {
			sub := dates.Format(dates.Resolve(t.StartDate, pm.logger))
			logEvent(pm.events, EventDateSubstituted, map[string]any{
				"task_id":    t.ID,
				"input":      t.StartDate,
				"substitute": sub,
			})
			t.StartDate = sub
		}
	}
	pm.reset(p)
	return nil
}

func (pm *projectManager) Save() error {
	if err := pm.store.Save(pm.project); err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	return nil
}

func (pm *projectManager) Snapshot() *models.Project {
	return pm.project.Clone()
}

func (pm *projectManager) Tasks() []models.Task {
	return append([]models.Task(nil), pm.project.Tasks...)
}

func (pm *projectManager) GetTask(taskID string) (models.Task, error) {
	i, ok := pm.index[taskID]
	if !ok {
		return models.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return pm.project.Tasks[i], nil
}

// AddTask appends a task starting on the project start date with a one-day
// duration and no progress.
func (pm *projectManager) AddTask(title, category string) (models.Task, error) {
	if category != "" {
		if _, err := pm.categoryByName(category); err != nil {
			return models.Task{}, fmt.Errorf("adding task: %w", err)
		}
	}
	t := models.Task{
		ID:        pm.idGen.NextTaskID(pm.project),
		Title:     strings.TrimSpace(title),
		Category:  category,
		StartDate: pm.project.StartDate,
		Duration:  1,
		Progress:  0,
	}
	pm.project.Tasks = append(pm.project.Tasks, t)
	pm.index[t.ID] = len(pm.project.Tasks) - 1

	logEvent(pm.events, EventTaskCreated, map[string]any{
		"task_id":    t.ID,
		"project_id": pm.project.ID,
		"category":   t.Category,
	})
	return t, nil
}

func (pm *projectManager) UpdateTask(taskID string, upd TaskUpdate) (models.Task, error) {
	i, ok := pm.index[taskID]
	if !ok {
		return models.Task{}, fmt.Errorf("updating task: %w: %s", ErrTaskNotFound, taskID)
	}
	t := pm.project.Tasks[i]

	if upd.Title != nil {
		t.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Category != nil {
		if *upd.Category != "" {
			if _, err := pm.categoryByName(*upd.Category); err != nil {
				return models.Task{}, fmt.Errorf("updating task: %w", err)
			}
		}
		t.Category = *upd.Category
	}
	if upd.Assignee != nil {
		t.Assignee = strings.TrimSpace(*upd.Assignee)
	}
	if upd.StartDate != nil {
		if _, err := dates.ParseLocal(*upd.StartDate); err != nil {
			return models.Task{}, fmt.Errorf("updating task: %w", err)
		}
		t.StartDate = *upd.StartDate
	}
	if upd.Duration != nil {
		if *upd.Duration < 1 {
			return models.Task{}, fmt.Errorf("updating task: %w (got %d)", ErrInvalidDuration, *upd.Duration)
		}
		t.Duration = *upd.Duration
	}
	if upd.Progress != nil {
		if *upd.Progress < 0 || *upd.Progress > 100 {
			return models.Task{}, fmt.Errorf("updating task: %w (got %d)", ErrInvalidProgress, *upd.Progress)
		}
		t.Progress = *upd.Progress
	}

	pm.project.Tasks[i] = t
	logEvent(pm.events, EventTaskUpdated, map[string]any{
		"task_id":    t.ID,
		"project_id": pm.project.ID,
	})
	return t, nil
}

// Reschedule moves a task to newStart. A non-empty delayReason is recorded
// on the task; an empty one leaves any earlier reason in place.
func (pm *projectManager) Reschedule(taskID, newStart, delayReason string) (models.Task, error) {
	i, ok := pm.index[taskID]
	if !ok {
		return models.Task{}, fmt.Errorf("rescheduling task: %w: %s", ErrTaskNotFound, taskID)
	}
	if _, err := dates.ParseLocal(newStart); err != nil {
		return models.Task{}, fmt.Errorf("rescheduling task: %w", err)
	}
	t := pm.project.Tasks[i]
	t.StartDate = newStart
	if delayReason != "" {
		t.DelayReason = delayReason
	}
	pm.project.Tasks[i] = t
	return t, nil
}

func (pm *projectManager) RemoveTask(taskID string) error {
	i, ok := pm.index[taskID]
	if !ok {
		return fmt.Errorf("removing task: %w: %s", ErrTaskNotFound, taskID)
	}
	pm.project.Tasks = append(pm.project.Tasks[:i], pm.project.Tasks[i+1:]...)
	pm.reindex()
	logEvent(pm.events, EventTaskRemoved, map[string]any{
		"task_id":    taskID,
		"project_id": pm.project.ID,
	})
	return nil
}

func (pm *projectManager) Categories() []models.WBSCategory {
	return append([]models.WBSCategory(nil), pm.project.Categories...)
}

func (pm *projectManager) AddCategory(name string) (models.WBSCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.WBSCategory{}, fmt.Errorf("adding category: name must not be empty")
	}
	if _, err := pm.categoryByName(name); err == nil {
		return models.WBSCategory{}, fmt.Errorf("adding category: %w: %s", ErrDuplicateCategory, name)
	}
	c := models.WBSCategory{ID: uuid.NewString(), Name: name}
	pm.project.Categories = append(pm.project.Categories, c)
	return c, nil
}

// RenameCategory renames a category and rewrites the category field of every
// task that referenced the old name. It returns the number of tasks updated.
func (pm *projectManager) RenameCategory(categoryID, newName string) (int, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return 0, fmt.Errorf("renaming category: name must not be empty")
	}
	ci := pm.categoryIndex(categoryID)
	if ci < 0 {
		return 0, fmt.Errorf("renaming category: %w: %s", ErrCategoryNotFound, categoryID)
	}
	oldName := pm.project.Categories[ci].Name
	if oldName == newName {
		return 0, nil
	}
	if _, err := pm.categoryByName(newName); err == nil {
		return 0, fmt.Errorf("renaming category: %w: %s", ErrDuplicateCategory, newName)
	}

	pm.project.Categories[ci].Name = newName
	updated := 0
	for i := range pm.project.Tasks {
		if pm.project.Tasks[i].Category == oldName {
			pm.project.Tasks[i].Category = newName
			updated++
		}
	}

	logEvent(pm.events, EventCategoryRenamed, map[string]any{
		"category_id":   categoryID,
		"old_name":      oldName,
		"new_name":      newName,
		"tasks_updated": updated,
	})
	return updated, nil
}

// DeleteCategory removes a category. Under DeleteOrphan the referencing
// tasks are kept with an empty category; under DeleteCascade they are
// removed. It returns the number of tasks affected.
func (pm *projectManager) DeleteCategory(categoryID string, policy DeletePolicy) (int, error) {
	ci := pm.categoryIndex(categoryID)
	if ci < 0 {
		return 0, fmt.Errorf("deleting category: %w: %s", ErrCategoryNotFound, categoryID)
	}
	if policy == "" {
		policy = DeleteOrphan
	}
	if policy != DeleteOrphan && policy != DeleteCascade {
		return 0, fmt.Errorf("deleting category: unknown policy %q", policy)
	}

	name := pm.project.Categories[ci].Name
	pm.project.Categories = append(pm.project.Categories[:ci], pm.project.Categories[ci+1:]...)

	affected := 0
	kept := pm.project.Tasks[:0]
	for _, t := range pm.project.Tasks {
		if t.Category != name {
			kept = append(kept, t)
			continue
		}
		affected++
		if policy == DeleteOrphan {
			t.Category = ""
			kept = append(kept, t)
		}
	}
	pm.project.Tasks = kept
	pm.reindex()

	logEvent(pm.events, EventCategoryDeleted, map[string]any{
		"category_id":    categoryID,
		"name":           name,
		"policy":         string(policy),
		"tasks_affected": affected,
	})
	return affected, nil
}

func (pm *projectManager) SetCollapsed(categoryID string, collapsed bool) error {
	ci := pm.categoryIndex(categoryID)
	if ci < 0 {
		return fmt.Errorf("collapsing category: %w: %s", ErrCategoryNotFound, categoryID)
	}
	pm.project.Categories[ci].Collapsed = collapsed
	logEvent(pm.events, EventCategoryCollapsed, map[string]any{
		"category_id": categoryID,
		"collapsed":   collapsed,
	})
	return nil
}

// FindCategory looks a category up by id first, then by exact name.
func (pm *projectManager) FindCategory(idOrName string) (models.WBSCategory, error) {
	if ci := pm.categoryIndex(idOrName); ci >= 0 {
		return pm.project.Categories[ci], nil
	}
	return pm.categoryByName(idOrName)
}

// ToggleHoliday flips the holiday flag of date and reports the new state.
func (pm *projectManager) ToggleHoliday(date string) (bool, error) {
	d, ok := dates.Normalize(date)
	if !ok {
		return false, fmt.Errorf("toggling holiday: %w", &dates.InvalidDateError{Input: date})
	}
	for i, h := range pm.project.Holidays {
		if n, _ := dates.Normalize(h); n == d {
			pm.project.Holidays = append(pm.project.Holidays[:i], pm.project.Holidays[i+1:]...)
			logEvent(pm.events, EventHolidayToggled, map[string]any{"date": d, "holiday": false})
			return false, nil
		}
	}
	pm.project.Holidays = append(pm.project.Holidays, d)
	sort.Strings(pm.project.Holidays)
	logEvent(pm.events, EventHolidayToggled, map[string]any{"date": d, "holiday": true})
	return true, nil
}

// SetSchedule sets the project start date and optional end date. An empty
// startDate leaves the start unchanged; an empty endDate clears the end.
func (pm *projectManager) SetSchedule(startDate, endDate string) error {
	if startDate != "" {
		if _, err := dates.ParseLocal(startDate); err != nil {
			return fmt.Errorf("setting project start: %w", err)
		}
		pm.project.StartDate = startDate
	}
	if endDate != "" {
		end, err := dates.ParseLocal(endDate)
		if err != nil {
			return fmt.Errorf("setting project end: %w", err)
		}
		start, _ := dates.ParseLocal(pm.project.StartDate)
		if end.Before(start) {
			return fmt.Errorf("setting project end: %s is before start %s", endDate, pm.project.StartDate)
		}
	}
	pm.project.EndDate = endDate
	return nil
}

// SetInfo updates the project identity. Empty arguments leave the
// corresponding field unchanged.
func (pm *projectManager) SetInfo(id, name, managerID string) {
	if id = strings.TrimSpace(id); id != "" {
		pm.project.ID = id
	}
	if name = strings.TrimSpace(name); name != "" {
		pm.project.Name = name
	}
	if managerID = strings.TrimSpace(managerID); managerID != "" {
		pm.project.ManagerID = managerID
	}
}

func (pm *projectManager) categoryIndex(id string) int {
	for i, c := range pm.project.Categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (pm *projectManager) categoryByName(name string) (models.WBSCategory, error) {
	for _, c := range pm.project.Categories {
		if c.Name == name {
			return c, nil
		}
	}
	return models.WBSCategory{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
}
