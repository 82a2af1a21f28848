// Package store persists the task graph as line-delimited JSON: one
// self-contained record per line so the file diffs cleanly under version
// control. The active file is rewritten whole on save; the archive file is
// append-only.
package store

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	mcerrors "missionctl/internal/errors"
	"missionctl/internal/task"
)

// Scanner buffer cap. A single task record far beyond this means the file
// was corrupted, not hand-edited.
const maxRecordBytes = 1 << 20

// Load reads the active store. Any malformed line fails the whole load: a
// corrupt line means the store's truth is in question, so nothing is
// silently skipped. Duplicate ids resolve last-wins, each reported as a
// warning so hand-edits and merges stay visible.
func Load(path string) ([]*task.Task, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, mcerrors.PersistenceError{Op: "load", Path: path, Err: err}
	}
	defer f.Close()

	byID := make(map[string]*task.Task)
	var order []string
	var warnings []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		t, err := decodeRecord(raw)
		if err != nil {
			return nil, nil, mcerrors.PersistenceError{Op: "load", Path: path, Line: line, Err: err}
		}

		if _, dup := byID[t.ID]; dup {
			warnings = append(warnings, fmt.Sprintf("duplicate id %s at line %d: keeping last occurrence", t.ID, line))
		} else {
			order = append(order, t.ID)
		}
		byID[t.ID] = t
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, mcerrors.PersistenceError{Op: "load", Path: path, Line: line, Err: err}
	}

	tasks := make([]*task.Task, 0, len(order))
	for _, id := range order {
		tasks = append(tasks, byID[id])
	}
	return tasks, warnings, nil
}

// Save rewrites the full active store, one line per task sorted by id for
// stable diffs. The write is atomic: content goes to a temp file in the same
// directory, is fsynced, and renamed over the target, so a crash mid-write
// never leaves a truncated or missing file.
func Save(tasks []*task.Task, path string) error {
	sorted := make([]*task.Task, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var buf bytes.Buffer
	for _, t := range sorted {
		record, err := encodeRecord(t)
		if err != nil {
			return mcerrors.PersistenceError{Op: "save", Path: path, Err: err}
		}
		buf.Write(record)
		buf.WriteByte('\n')
	}

	if err := atomicWrite(path, buf.Bytes()); err != nil {
		return mcerrors.PersistenceError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// AppendArchive appends retired task records to the archive file. Prior
// archive content is never rewritten.
func AppendArchive(tasks []*task.Task, path string) error {
	if len(tasks) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, t := range tasks {
		record, err := encodeRecord(t)
		if err != nil {
			return mcerrors.PersistenceError{Op: "archive", Path: path, Err: err}
		}
		buf.Write(record)
		buf.WriteByte('\n')
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return mcerrors.PersistenceError{Op: "archive", Path: path, Err: err}
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return mcerrors.PersistenceError{Op: "archive", Path: path, Err: err}
	}
	if err := f.Sync(); err != nil {
		return mcerrors.PersistenceError{Op: "archive", Path: path, Err: err}
	}
	return nil
}

// LoadArchive reads the archive into an id-keyed map. The archive is a log:
// a task re-archived after a crashed commit may appear twice, and the last
// record wins without a warning.
func LoadArchive(path string) (map[string]*task.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*task.Task{}, nil
		}
		return nil, mcerrors.PersistenceError{Op: "load", Path: path, Err: err}
	}
	defer f.Close()

	archived := make(map[string]*task.Task)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		t, err := decodeRecord(raw)
		if err != nil {
			return nil, mcerrors.PersistenceError{Op: "load", Path: path, Line: line, Err: err}
		}
		archived[t.ID] = t
	}
	if err := scanner.Err(); err != nil {
		return nil, mcerrors.PersistenceError{Op: "load", Path: path, Line: line, Err: err}
	}
	return archived, nil
}

// atomicWrite writes content to a temp file in path's directory, fsyncs it,
// and renames it over path.
func atomicWrite(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".mctl-tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	defer func() {
		// No-ops after a successful rename.
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
