package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Project groups references to bookmarks with its own notes and tasks.
//
// A project never owns the bookmarks it lists: Bookmarks holds ids only,
// and deleting a project leaves the referenced bookmarks alone.
type Project struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	ID string `json:"id"`

	// ─────────────────────────────
	// Description
	// ─────────────────────────────

	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color"`

	// ─────────────────────────────
	// Aggregates
	// ─────────────────────────────

	// Bookmarks is a set of bookmark ids (weak references).
	Bookmarks []string `json:"bookmarks"`
	Notes     []Note   `json:"notes"`
	Tasks     []Task   `json:"tasks"`

	// ─────────────────────────────
	// Lifecycle
	// ─────────────────────────────

	// Archived and ArchivedAt are both absent on an active project.
	Archived   bool       `json:"archived,omitempty"`
	ArchivedAt *time.Time `json:"archivedAt,omitempty"`

	// ImportedAt is set on projects created from an import file.
	ImportedAt *time.Time `json:"importedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Note is a free-text entry owned by exactly one project.
type Note struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Task is a checklist item owned by exactly one project.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy of p.
func (p Project) Clone() Project {
	p.Bookmarks = slices.Clone(p.Bookmarks)
	p.Notes = slices.Clone(p.Notes)
	p.Tasks = slices.Clone(p.Tasks)
	return p
}

// HasBookmark reports whether p references bookmarkID.
func (p Project) HasBookmark(bookmarkID string) bool {
	return slices.Contains(p.Bookmarks, bookmarkID)
}

// Normalize replaces nil collections with empty ones so the JSON form
// always carries arrays.
func (p *Project) Normalize() {
	if p.Bookmarks == nil {
		p.Bookmarks = []string{}
	}
	if p.Notes == nil {
		p.Notes = []Note{}
	}
	if p.Tasks == nil {
		p.Tasks = []Task{}
	}
}

// ProjectInput carries the caller-provided fields of a new project.
type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// DefaultProjectColor is used when a project is created without a color.
const DefaultProjectColor = "#0ea5e9"

// Validate checks the structural invariants of a new project.
func (in ProjectInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: project name is required", ErrValidation)
	}
	return nil
}

// NewProject builds an empty project from in.
func NewProject(id string, in ProjectInput, now time.Time) Project {
	color := in.Color
	if color == "" {
		color = DefaultProjectColor
	}
	return Project{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Color:       color,
		Bookmarks:   []string{},
		Notes:       []Note{},
		Tasks:       []Task{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ProjectPatch is a partial update of the descriptive fields of a project.
// Nested collections have their own operations.
type ProjectPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

// Validate rejects patches that would break record invariants.
func (p ProjectPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: project name cannot be empty", ErrValidation)
	}
	return nil
}

// Apply merges the set fields of p into pr.
func (p ProjectPatch) Apply(pr *Project) {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
	if p.Color != nil {
		pr.Color = *p.Color
	}
}

// TaskPatch is a partial update of a task.
type TaskPatch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Validate rejects patches that would blank the title.
func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: task title cannot be empty", ErrValidation)
	}
	return nil
}

// Apply merges the set fields of p into t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}
