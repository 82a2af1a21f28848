//nolint:revive // Package name intentionally matches stdlib for domain clarity
package errors

import (
	"fmt"
	"strings"
)

// ValidationError indicates malformed input: a missing required field or a
// value outside its allowed range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError indicates the task ID doesn't match any active task.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.ID)
}

// CycleError indicates an operation would introduce a dependency cycle.
// Path holds the ids forming the cycle, first id repeated at the end.
type CycleError struct {
	Path []string
}

func (e CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// DanglingReferenceError indicates depends_on references ids with no task
// record in the active store or the archive.
type DanglingReferenceError struct {
	TaskID  string
	Missing []string
}

func (e DanglingReferenceError) Error() string {
	return fmt.Sprintf("task %s references unknown dependencies: %s", e.TaskID, strings.Join(e.Missing, ", "))
}

// ConflictError indicates the current graph state forbids the operation:
// deleting a task with dependents, or completing a task with unmet
// dependencies.
type ConflictError struct {
	ID       string
	Reason   string
	Blocking []string
}

func (e ConflictError) Error() string {
	if len(e.Blocking) > 0 {
		return fmt.Sprintf("task %s: %s: %s", e.ID, e.Reason, strings.Join(e.Blocking, ", "))
	}
	return fmt.Sprintf("task %s: %s", e.ID, e.Reason)
}

// PersistenceError indicates a load, save, or archive-append failure.
// Line is 1-based and zero when the failure isn't tied to a line.
type PersistenceError struct {
	Op   string
	Path string
	Line int
	Err  error
}

func (e PersistenceError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s %s: line %d: %v", e.Op, e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e PersistenceError) Unwrap() error {
	return e.Err
}

// NotInitializedError indicates the .mission directory doesn't exist yet.
type NotInitializedError struct{}

func (e NotInitializedError) Error() string {
	return "mission control not initialized: run 'mctl init' first"
}

// AlreadyInitializedError indicates the .mission directory already exists.
type AlreadyInitializedError struct{}

func (e AlreadyInitializedError) Error() string {
	return "mission control already initialized"
}

// NotInRepoError indicates the command was run outside a git repository.
type NotInRepoError struct{}

func (e NotInRepoError) Error() string {
	return "not in a git repository (mctl requires a project root)"
}
