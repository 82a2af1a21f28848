package store

import (
	"bytes"
	"encoding/json"
	"errors"

	"missionctl/internal/task"
)

// decodeRecord parses one line of the store file. A persisted blocked status
// is a leftover display label from hand edits; the authoritative blocking
// signal is recomputed from depends_on, so it normalizes to todo.
func decodeRecord(raw []byte) (*task.Task, error) {
	// Copy: raw aliases the scanner's reused buffer.
	line := make([]byte, len(raw))
	copy(line, raw)

	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()

	var t task.Task
	if err := dec.Decode(&t); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing content after task record")
	}

	if t.Status == task.StatusBlocked {
		t.Status = task.StatusTodo
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// encodeRecord renders one task as a single compact JSON line.
func encodeRecord(t *task.Task) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.Status == task.StatusBlocked {
		return nil, errors.New("blocked is a derived status and is never persisted")
	}
	return json.Marshal(t)
}
