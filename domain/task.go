package domain

import (
	"strings"
	"time"
)

// Category classifies a task for filtering and dashboard distribution.
type Category string

const (
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategoryStudy    Category = "Study"
	CategoryHealth   Category = "Health"
	CategoryOther    Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryWork, CategoryPersonal, CategoryStudy, CategoryHealth, CategoryOther}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory maps a stored value onto a known category, falling back to Other.
func ParseCategory(raw string) Category {
	c := Category(strings.TrimSpace(raw))
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// Task represents a user-owned activity item.
type Task struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"user_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Category         Category   `json:"category"`
	Completed        bool       `json:"completed"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	PomodoroSessions int        `json:"pomodoro_sessions"`
	XPAwarded        bool       `json:"xp_awarded"`
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}

// TaskDraft carries the user supplied fields of a new task.
type TaskDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
}

// Normalize trims the draft and validates it. An empty category defaults to Work.
func (d TaskDraft) Normalize() (TaskDraft, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if d.Title == "" {
		return d, ErrTitleRequired
	}
	if d.Category == "" {
		d.Category = CategoryWork
	}
	if !d.Category.Valid() {
		return d, ErrInvalidCategory
	}
	return d, nil
}

// TaskPatch holds optional edits. Completion state is not editable through a patch.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *Category `json:"category,omitempty"`
}

// Validate rejects patches that would leave a task without a title or with an unknown category.
func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrTitleRequired
	}
	if p.Category != nil && !p.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// Apply merges the patch into t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
}

// TaskStatus selects tasks by completion state.
type TaskStatus string

const (
	StatusAll       TaskStatus = "all"
	StatusActive    TaskStatus = "active"
	StatusCompleted TaskStatus = "completed"
)

// TaskFilter narrows a task listing.
type TaskFilter struct {
	Status   TaskStatus
	Category Category
}

// Match reports whether t passes the filter.
func (f TaskFilter) Match(t Task) bool {
	switch f.Status {
	case StatusActive:
		if t.Completed {
			return false
		}
	case StatusCompleted:
		if !t.Completed {
			return false
		}
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	return true
}
