// Package task defines the work item tracked by mission control.
package task

import (
	"slices"
	"time"

	mcerrors "missionctl/internal/errors"
)

// Status represents the current state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"
)

const (
	// MinPriority and MaxPriority bound the caller-assigned priority.
	// Higher means more important.
	MinPriority = 1
	MaxPriority = 10

	// DefaultPriority is assigned when the caller doesn't pick one.
	DefaultPriority = 5
)

// Metadata is populated by mission control, never by the caller.
type Metadata struct {
	Branch     string    `json:"branch,omitempty"`
	CommitHash string    `json:"commit_hash,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Task represents a tracked work item. DependsOn holds directed edges from
// this task to its prerequisites. The blocked-by view is derived from
// DependsOn at read time and never stored.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	DependsOn   []string `json:"depends_on,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Priority    int      `json:"priority"`
	Metadata    Metadata `json:"metadata"`
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusBlocked, StatusDone:
		return true
	default:
		return false
	}
}

// IsValidPriority checks if a priority is within the allowed range.
func IsValidPriority(p int) bool {
	return p >= MinPriority && p <= MaxPriority
}

// Validate checks the structural invariants of a single record. Graph-level
// invariants (cycles, dangling references) are checked by the graph engine.
func (t *Task) Validate() error {
	if t.ID == "" {
		return mcerrors.ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if t.Title == "" {
		return mcerrors.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if !IsValidStatus(t.Status) {
		return mcerrors.ValidationError{Field: "status", Reason: "unknown value '" + string(t.Status) + "'"}
	}
	if !IsValidPriority(t.Priority) {
		return mcerrors.ValidationError{Field: "priority", Reason: "must be between 1 and 10"}
	}
	if slices.Contains(t.DependsOn, t.ID) {
		return mcerrors.ValidationError{Field: "depends_on", Reason: "task cannot depend on itself"}
	}
	return nil
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the store's mutable state.
func (t *Task) Clone() *Task {
	c := *t
	c.DependsOn = slices.Clone(t.DependsOn)
	c.Tags = slices.Clone(t.Tags)
	return &c
}

// HasTag reports whether the task carries the given tag.
func (t *Task) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}
