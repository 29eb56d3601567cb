package models

// Task is a single bar on the Gantt timeline. StartDate is a calendar date in
// YYYY-MM-DD form; the effective end date is StartDate + Duration days.
type Task struct {
	ID          string `yaml:"id" json:"id" cbor:"id"`
	Title       string `yaml:"title" json:"title" cbor:"title"`
	Category    string `yaml:"category" json:"category" cbor:"category"`
	Assignee    string `yaml:"assignee,omitempty" json:"assignee,omitempty" cbor:"assignee,omitempty"`
	StartDate   string `yaml:"start_date" json:"start_date" cbor:"start_date"`
	Duration    int    `yaml:"duration" json:"duration" cbor:"duration"`
	Progress    int    `yaml:"progress" json:"progress" cbor:"progress"`
	DelayReason string `yaml:"delay_reason,omitempty" json:"delay_reason,omitempty" cbor:"delay_reason,omitempty"`
}

// WBSCategory is a named grouping of tasks. Tasks reference categories by
// name, so renaming a category must be cascaded to every task.
type WBSCategory struct {
	ID        string `yaml:"id" json:"id" cbor:"id"`
	Name      string `yaml:"name" json:"name" cbor:"name"`
	Collapsed bool   `yaml:"collapsed,omitempty" json:"collapsed,omitempty" cbor:"collapsed,omitempty"`
}

// LogEntry is one labor record from the time-entry subsystem. ProjectID is
// free text and may hold the project id, its name, or both.
type LogEntry struct {
	Date      string  `yaml:"date" json:"date"`
	Engineer  string  `yaml:"engineer" json:"engineer"`
	ProjectID string  `yaml:"project_id" json:"project_id"`
	TaskID    string  `yaml:"task_id,omitempty" json:"task_id,omitempty"`
	Hours     float64 `yaml:"hours" json:"hours"`
}
