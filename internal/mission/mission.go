// Package mission implements the mission control facade: the operation
// surface over the in-memory task store. Mutations only ever touch memory;
// Flush and Commit are the explicit durability points.
package mission

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"missionctl/internal/config"
	mcerrors "missionctl/internal/errors"
	"missionctl/internal/gitmeta"
	"missionctl/internal/graph"
	"missionctl/internal/store"
	"missionctl/internal/task"
)

// MissionControl owns the task store for the lifetime of a session. One
// mutex guards every operation; reads take a snapshot under the lock and do
// their formatting work outside it.
type MissionControl struct {
	mu       sync.Mutex
	root     string
	cfg      config.Config
	tasks    map[string]*task.Task
	archived map[string]*task.Task
	warnings []string

	now      func() time.Time
	describe func(root string) gitmeta.Info
}

// CreateInput carries the caller-settable fields of a new task.
type CreateInput struct {
	Title       string
	Description string
	DependsOn   []string
	Tags        []string
	Priority    int // 0 means the configured default
}

// Detail is a task with its resolved dependency chain.
type Detail struct {
	Task  *task.Task
	Chain []graph.ChainEntry
}

// Filter narrows List results. Empty fields match everything; Tags use AND
// semantics.
type Filter struct {
	Statuses []task.Status
	Tags     []string
}

// Report is the result of a consistency sweep.
type Report struct {
	OK       bool
	Cycles   [][]string
	Dangling []graph.Dangling
}

// Summary holds the aggregate counts exposed to callers.
type Summary struct {
	ByStatus        map[task.Status]int
	Ready           int
	ArchiveEligible int
	Active          int
	Archived        int
}

// New creates an empty mission control rooted at the given project root.
func New(root string, cfg config.Config) *MissionControl {
	return &MissionControl{
		root:     root,
		cfg:      cfg,
		tasks:    make(map[string]*task.Task),
		archived: make(map[string]*task.Task),
		now:      func() time.Time { return time.Now().UTC() },
		describe: gitmeta.Describe,
	}
}

// Open loads the active store and the archive from disk.
func Open(root string, cfg config.Config) (*MissionControl, error) {
	m := New(root, cfg)

	tasks, warnings, err := store.Load(cfg.TasksPath(root))
	if err != nil {
		return nil, err
	}
	archived, err := store.LoadArchive(cfg.ArchivePath(root))
	if err != nil {
		return nil, err
	}

	for _, t := range tasks {
		m.tasks[t.ID] = t
	}
	m.archived = archived
	m.warnings = warnings
	return m, nil
}

// Init creates the .mission directory and writes the default config file.
func Init(root string, force bool) (string, error) {
	dir := filepath.Join(root, config.Dir)
	if info, err := os.Stat(dir); err == nil && info.IsDir() && !force {
		return dir, mcerrors.AlreadyInitializedError{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dir, err
	}

	content, err := yaml.Marshal(config.Default())
	if err != nil {
		return dir, err
	}
	path := filepath.Join(dir, config.FileName)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return dir, mcerrors.PersistenceError{Op: "save", Path: path, Err: err}
	}
	return dir, nil
}

// Warnings returns load-time warnings (duplicate ids resolved last-wins).
func (m *MissionControl) Warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.warnings...)
}

// Create validates input, assigns an id and metadata, gates against cycles,
// and inserts the task. On any error the store is unchanged.
func (m *MissionControl) Create(in CreateInput) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if in.Title == "" {
		return nil, mcerrors.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	priority := in.Priority
	if priority == 0 {
		priority = m.cfg.DefaultPriority
	}
	if !task.IsValidPriority(priority) {
		return nil, mcerrors.ValidationError{Field: "priority", Reason: "must be between 1 and 10"}
	}

	dependsOn := dedupe(in.DependsOn)
	var missing []string
	for _, depID := range dependsOn {
		if !m.knownID(depID) {
			missing = append(missing, depID)
		}
	}
	if len(missing) > 0 {
		return nil, mcerrors.DanglingReferenceError{TaskID: in.Title, Missing: missing}
	}

	createdAt := m.now()
	id := task.GenerateID(m.cfg.IDPrefix, in.Title, createdAt, 0, m.knownID)

	info := m.describe(m.root)
	t := &task.Task{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Status:      task.StatusTodo,
		DependsOn:   dependsOn,
		Tags:        dedupe(in.Tags),
		Priority:    priority,
		Metadata: task.Metadata{
			Branch:     info.Branch,
			CommitHash: info.CommitHash,
			CreatedAt:  createdAt,
			UpdatedAt:  createdAt,
		},
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := m.gateCycles(t); err != nil {
		return nil, err
	}

	m.tasks[id] = t
	return m.render(t), nil
}

// UpdateStatus moves a task through todo -> in_progress -> done. The blocked
// label is derived, never a target; done is terminal and is gated on every
// dependency being done.
func (m *MissionControl) UpdateStatus(id string, status task.Status) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.tasks[id]
	if t == nil {
		return nil, mcerrors.NotFoundError{ID: id}
	}
	if !task.IsValidStatus(status) {
		return nil, mcerrors.ValidationError{Field: "status", Reason: "unknown value '" + string(status) + "'"}
	}
	if status == task.StatusBlocked {
		return nil, mcerrors.ValidationError{Field: "status", Reason: "blocked is derived from dependencies and cannot be set"}
	}
	if t.Status == task.StatusDone && status != task.StatusDone {
		return nil, mcerrors.ConflictError{ID: id, Reason: "done is terminal; delete or archive instead"}
	}
	if status == task.StatusDone {
		if blockers := m.graph().BlockedBy(id); len(blockers) > 0 {
			return nil, mcerrors.ConflictError{ID: id, Reason: "cannot complete before dependencies are done", Blocking: blockers}
		}
	}

	t.Status = status
	t.Metadata.UpdatedAt = m.now()
	return m.render(t), nil
}

// AddDependency adds an edge id -> depID. The returned bool is false when
// the edge already existed.
func (m *MissionControl) AddDependency(id, depID string) (*task.Task, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.tasks[id]
	if t == nil {
		return nil, false, mcerrors.NotFoundError{ID: id}
	}
	if !m.knownID(depID) {
		return nil, false, mcerrors.DanglingReferenceError{TaskID: id, Missing: []string{depID}}
	}
	if id == depID {
		return nil, false, mcerrors.ValidationError{Field: "depends_on", Reason: "task cannot depend on itself"}
	}
	for _, existing := range t.DependsOn {
		if existing == depID {
			return m.render(t), false, nil
		}
	}

	g := m.graph()
	if g.WouldCreateCycle(id, depID) {
		return nil, false, mcerrors.CycleError{Path: m.cyclePathFor(t, depID)}
	}

	t.DependsOn = append(t.DependsOn, depID)
	t.Metadata.UpdatedAt = m.now()
	return m.render(t), true, nil
}

// RemoveDependency removes the edge id -> depID. The returned bool is false
// when no such edge existed.
func (m *MissionControl) RemoveDependency(id, depID string) (*task.Task, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.tasks[id]
	if t == nil {
		return nil, false, mcerrors.NotFoundError{ID: id}
	}

	kept := t.DependsOn[:0:0]
	removed := false
	for _, existing := range t.DependsOn {
		if existing == depID {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		return m.render(t), false, nil
	}

	t.DependsOn = kept
	t.Metadata.UpdatedAt = m.now()
	return m.render(t), true, nil
}

// ListReady returns unblocked todo tasks ordered by descending priority,
// ties broken by creation time.
func (m *MissionControl) ListReady() []*task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.graph()
	ready := g.Ready()
	out := make([]*task.Task, len(ready))
	for i, t := range ready {
		out[i] = renderWith(g, t)
	}
	return out
}

// List returns tasks matching the filter, ordered by descending priority,
// creation time, then id. Status filtering matches the display status, so
// --status blocked finds tasks with unmet dependencies.
func (m *MissionControl) List(f Filter) []*task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.graph()
	var out []*task.Task
	for _, t := range m.tasks {
		if !f.matches(t, g.DisplayStatus(t)) {
			continue
		}
		out = append(out, renderWith(g, t))
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.Metadata.CreatedAt.Equal(b.Metadata.CreatedAt) {
			return a.Metadata.CreatedAt.Before(b.Metadata.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

// Get returns a task with its full transitive dependency chain, each
// ancestor annotated with its current status.
func (m *MissionControl) Get(id string) (*Detail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.tasks[id]
	if t == nil {
		return nil, mcerrors.NotFoundError{ID: id}
	}
	g := m.graph()
	return &Detail{Task: renderWith(g, t), Chain: g.DependencyChain(id)}, nil
}

// Delete removes a task. Tasks with active dependents cannot be deleted.
func (m *MissionControl) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tasks[id] == nil {
		return mcerrors.NotFoundError{ID: id}
	}
	if dependents := m.graph().Dependents(id); len(dependents) > 0 {
		return mcerrors.ConflictError{ID: id, Reason: "cannot delete: other tasks depend on it", Blocking: dependents}
	}

	delete(m.tasks, id)
	return nil
}

// CheckConsistency runs the full sweep: cycles plus dangling references.
// It never mutates anything, so repeated calls yield identical results. The
// sweep is independent of the mutation-time gates; it exists to catch drift
// introduced by hand edits to the storage file.
func (m *MissionControl) CheckConsistency() Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.graph()
	cycles := g.DetectCycles()
	dangling := g.DetectDangling()
	return Report{
		OK:       len(cycles) == 0 && len(dangling) == 0,
		Cycles:   cycles,
		Dangling: dangling,
	}
}

// TaskSummary returns counts by display status, the ready count, and the
// archive-eligible count.
func (m *MissionControl) TaskSummary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.graph()
	s := Summary{
		ByStatus: make(map[task.Status]int),
		Active:   len(m.tasks),
		Archived: len(m.archived),
	}
	for _, t := range m.tasks {
		s.ByStatus[g.DisplayStatus(t)]++
	}
	s.Ready = len(g.Ready())
	s.ArchiveEligible = len(g.ArchiveCandidates())
	return s
}

// Flush saves the active store without archiving. Commit is the full
// durability point; Flush exists so one-shot CLI invocations persist their
// mutation without triggering an implicit archive sweep.
func (m *MissionControl) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	return withContext(ctx, func() error {
		return store.Save(snapshot, m.cfg.TasksPath(m.root))
	})
}

// Commit durably writes the store: archive candidates are appended to the
// archive file first, then the pruned active store is saved atomically, and
// only then is the in-memory store updated. On any error the in-memory
// store is left intact so the caller can retry. Returns the archived ids.
func (m *MissionControl) Commit(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Sweep to a fixpoint: retiring a task can strip the last incoming edge
	// of its own prerequisite, making it eligible in the same commit.
	remaining := make(map[string]*task.Task, len(m.tasks))
	for id, t := range m.tasks {
		remaining[id] = t
	}
	var candidates []string
	var retiring []*task.Task
	for {
		snapshot := make([]*task.Task, 0, len(remaining))
		for _, t := range remaining {
			snapshot = append(snapshot, t)
		}
		batch := graph.New(snapshot, nil).ArchiveCandidates()
		if len(batch) == 0 {
			break
		}
		for _, id := range batch {
			candidates = append(candidates, id)
			// Clones: the background write in withContext may outlive a
			// canceled commit, so it never sees live store pointers.
			retiring = append(retiring, remaining[id].Clone())
			delete(remaining, id)
		}
	}

	pruned := make([]*task.Task, 0, len(remaining))
	for _, t := range remaining {
		pruned = append(pruned, t.Clone())
	}

	// Archive first: a crash between the two writes leaves a record in both
	// files, which load tolerates, and never loses one.
	err := withContext(ctx, func() error {
		if err := store.AppendArchive(retiring, m.cfg.ArchivePath(m.root)); err != nil {
			return err
		}
		return store.Save(pruned, m.cfg.TasksPath(m.root))
	})
	if err != nil {
		return nil, err
	}

	for _, t := range retiring {
		m.archived[t.ID] = t
		delete(m.tasks, t.ID)
	}
	return candidates, nil
}

// graph builds a snapshot for the engine. Callers hold m.mu.
func (m *MissionControl) graph() *graph.Graph {
	tasks := make([]*task.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	archivedIDs := make(map[string]bool, len(m.archived))
	for id := range m.archived {
		archivedIDs[id] = true
	}
	return graph.New(tasks, archivedIDs)
}

// snapshot deep-copies the active tasks. Callers hold m.mu.
func (m *MissionControl) snapshot() []*task.Task {
	out := make([]*task.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t.Clone())
	}
	return out
}

// render clones a task and applies the derived blocked label for display.
// The stored status is never overwritten. Callers hold m.mu.
func (m *MissionControl) render(t *task.Task) *task.Task {
	return renderWith(m.graph(), t)
}

func renderWith(g *graph.Graph, t *task.Task) *task.Task {
	c := t.Clone()
	c.Status = g.DisplayStatus(t)
	return c
}

// knownID reports whether id resolves in the active store or the archive.
// Archived ids stay reserved forever; ids are never reused.
func (m *MissionControl) knownID(id string) bool {
	if _, ok := m.tasks[id]; ok {
		return true
	}
	_, ok := m.archived[id]
	return ok
}

// gateCycles rejects a mutation whose resulting graph would contain a cycle.
// It runs on the hypothetical store including the candidate task.
func (m *MissionControl) gateCycles(candidate *task.Task) error {
	tasks := make([]*task.Task, 0, len(m.tasks)+1)
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	tasks = append(tasks, candidate)

	archivedIDs := make(map[string]bool, len(m.archived))
	for id := range m.archived {
		archivedIDs[id] = true
	}

	if cycles := graph.New(tasks, archivedIDs).DetectCycles(); len(cycles) > 0 {
		return mcerrors.CycleError{Path: cycles[0]}
	}
	return nil
}

// cyclePathFor reconstructs the cycle path that adding t -> depID would
// form, for error reporting. Callers hold m.mu.
func (m *MissionControl) cyclePathFor(t *task.Task, depID string) []string {
	hypothetical := t.Clone()
	hypothetical.DependsOn = append(hypothetical.DependsOn, depID)

	tasks := make([]*task.Task, 0, len(m.tasks))
	for id, existing := range m.tasks {
		if id == t.ID {
			tasks = append(tasks, hypothetical)
		} else {
			tasks = append(tasks, existing)
		}
	}
	cycles := graph.New(tasks, nil).DetectCycles()
	if len(cycles) == 0 {
		return []string{t.ID, depID, t.ID}
	}
	return cycles[0]
}

func (f Filter) matches(t *task.Task, display task.Status) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, display) {
		return false
	}
	for _, tag := range f.Tags {
		if !t.HasTag(tag) {
			return false
		}
	}
	return true
}

// withContext bounds a blocking file operation by ctx. The write itself may
// still finish in the background after cancellation; the caller's in-memory
// state is only updated on a reported success.
func withContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("commit interrupted: %w", ctx.Err())
	}
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
