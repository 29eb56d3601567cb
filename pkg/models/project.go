package models

// Project owns the WBS categories and tasks rendered on one timeline.
// Holidays only affect presentation; durations always count calendar days.
type Project struct {
	ID          string        `yaml:"id" json:"id" cbor:"id"`
	Name        string        `yaml:"name" json:"name" cbor:"name"`
	ManagerID   string        `yaml:"manager_id,omitempty" json:"manager_id,omitempty" cbor:"manager_id,omitempty"`
	StartDate   string        `yaml:"start_date" json:"start_date" cbor:"start_date"`
	EndDate     string        `yaml:"end_date,omitempty" json:"end_date,omitempty" cbor:"end_date,omitempty"`
	Holidays    []string      `yaml:"holidays,omitempty" json:"holidays,omitempty" cbor:"holidays,omitempty"`
	Categories  []WBSCategory `yaml:"categories" json:"categories" cbor:"categories"`
	Tasks       []Task        `yaml:"tasks" json:"tasks" cbor:"tasks"`
	NextTaskSeq int           `yaml:"next_task_seq" json:"next_task_seq" cbor:"next_task_seq"`
}

// Clone returns a deep copy so callers can hand snapshots to geometry and
// rollup code without sharing slices.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	if p.Holidays != nil {
		c.Holidays = append([]string(nil), p.Holidays...)
	}
	if p.Categories != nil {
		c.Categories = append([]WBSCategory(nil), p.Categories...)
	}
	if p.Tasks != nil {
		c.Tasks = append([]Task(nil), p.Tasks...)
	}
	return &c
}

// ProjectRef identifies a project for labor matching.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Ref returns the identity used to join labor logs against this project.
func (p *Project) Ref() ProjectRef {
	return ProjectRef{ID: p.ID, Name: p.Name}
}

// Role is the caller's authorization role as supplied by the host.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Identity is the caller on whose behalf an interactive edit is made.
type Identity struct {
	UserID string `yaml:"user" mapstructure:"user"`
	Role   Role   `yaml:"role" mapstructure:"role"`
}

// CanEdit reports whether the identity may reschedule tasks in p.
func (id Identity) CanEdit(p *Project) bool {
	if id.Role == RoleAdmin {
		return true
	}
	return p != nil && p.ManagerID != "" && id.UserID == p.ManagerID
}
