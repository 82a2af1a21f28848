// Package graph implements pure, side-effect-free computations over a
// snapshot of the task store: the ready queue, blocked-by derivation, cycle
// and dangling-reference detection, and archive eligibility.
package graph

import (
	"slices"
	"sort"

	"missionctl/internal/task"
)

// Graph holds one snapshot of the active store plus the set of archived ids.
// Archived tasks are done by construction, so for readiness and dangling
// checks an archived id resolves as a completed prerequisite.
type Graph struct {
	tasks    map[string]*task.Task
	archived map[string]bool
}

// Dangling is one unresolvable dependency edge.
type Dangling struct {
	TaskID    string
	MissingID string
}

// ChainEntry is one ancestor in a task's resolved dependency chain.
type ChainEntry struct {
	ID     string
	Title  string
	Status task.Status
	Depth  int
}

// New creates a Graph from the active tasks and the archived id set.
// Archived may be nil when the archive is empty or irrelevant.
func New(tasks []*task.Task, archived map[string]bool) *Graph {
	g := &Graph{
		tasks:    make(map[string]*task.Task, len(tasks)),
		archived: archived,
	}
	for _, t := range tasks {
		g.tasks[t.ID] = t
	}
	return g
}

// Get returns an active task by ID, or nil.
func (g *Graph) Get(id string) *task.Task {
	return g.tasks[id]
}

// resolvesDone reports whether id refers to a completed prerequisite,
// either an active done task or an archived one.
func (g *Graph) resolvesDone(id string) bool {
	if t := g.tasks[id]; t != nil {
		return t.Status == task.StatusDone
	}
	return g.archived[id]
}

// exists reports whether id resolves anywhere, active store or archive.
func (g *Graph) exists(id string) bool {
	if _, ok := g.tasks[id]; ok {
		return true
	}
	return g.archived[id]
}

// BlockedBy returns the subset of the task's depends_on whose target is
// absent or not done. Nil for unknown ids.
func (g *Graph) BlockedBy(id string) []string {
	t := g.tasks[id]
	if t == nil {
		return nil
	}
	var blockers []string
	for _, depID := range t.DependsOn {
		if !g.resolvesDone(depID) {
			blockers = append(blockers, depID)
		}
	}
	return blockers
}

// DisplayStatus returns the status to show callers: blocked when a todo or
// in_progress task has at least one unmet dependency, the stored status
// otherwise. The blocked label is a read-time projection, never stored.
func (g *Graph) DisplayStatus(t *task.Task) task.Status {
	switch t.Status {
	case task.StatusTodo, task.StatusInProgress:
		if len(g.BlockedBy(t.ID)) > 0 {
			return task.StatusBlocked
		}
	}
	return t.Status
}

// Ready returns all tasks that are todo with every dependency done, ordered
// by descending priority, then ascending creation time, then id.
func (g *Graph) Ready() []*task.Task {
	var ready []*task.Task
	for _, t := range g.tasks {
		if t.Status != task.StatusTodo {
			continue
		}
		if len(g.BlockedBy(t.ID)) == 0 {
			ready = append(ready, t)
		}
	}

	sort.Slice(ready, func(i, j int) bool {
		return taskLess(ready[i], ready[j])
	})
	return ready
}

// Dependents returns ids of active tasks that depend on the given task,
// sorted for determinism.
func (g *Graph) Dependents(id string) []string {
	var dependents []string
	for _, t := range g.tasks {
		if slices.Contains(t.DependsOn, id) {
			dependents = append(dependents, t.ID)
		}
	}
	sort.Strings(dependents)
	return dependents
}

// WouldCreateCycle checks if adding a dependency from -> to would create a
// cycle. Uses BFS from 'to' to see if we can reach 'from'.
func (g *Graph) WouldCreateCycle(from, to string) bool {
	visited := make(map[string]bool)
	queue := []string{to}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == from {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		t := g.tasks[current]
		if t == nil {
			continue
		}
		queue = append(queue, t.DependsOn...)
	}
	return false
}

// DetectCycles finds every dependency cycle reachable from any task. Each
// cycle is an ordered id sequence rotated to start at its lowest id, with
// the starting id repeated at the end. Traversal visits ids in sorted order
// so the result is deterministic, and it does not stop at the first hit.
func (g *Graph) DetectCycles() [][]string {
	const (
		white = 0 // unvisited
		gray  = 1 // on the recursion stack
		black = 2 // fully explored
	)

	color := make(map[string]int, len(g.tasks))
	var stack []string
	var cycles [][]string
	seen := make(map[string]bool) // canonical cycle keys, for dedup

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		stack = append(stack, id)

		t := g.tasks[id]
		if t != nil {
			for _, depID := range t.DependsOn {
				if _, ok := g.tasks[depID]; !ok {
					continue // dangling, reported separately
				}
				switch color[depID] {
				case white:
					dfs(depID)
				case gray:
					// Back edge: the cycle is the stack segment from depID.
					start := slices.Index(stack, depID)
					cycle := canonicalCycle(stack[start:])
					key := cycleKey(cycle)
					if !seen[key] {
						seen[key] = true
						cycles = append(cycles, cycle)
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, id := range g.sortedIDs() {
		if color[id] == white {
			dfs(id)
		}
	}
	return cycles
}

// DetectDangling returns every depends_on entry not resolvable in the active
// store or the archive, sorted by task id then missing id.
func (g *Graph) DetectDangling() []Dangling {
	var out []Dangling
	for _, id := range g.sortedIDs() {
		t := g.tasks[id]
		for _, depID := range t.DependsOn {
			if !g.exists(depID) {
				out = append(out, Dangling{TaskID: id, MissingID: depID})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TaskID != out[j].TaskID {
			return out[i].TaskID < out[j].TaskID
		}
		return out[i].MissingID < out[j].MissingID
	})
	return out
}

// ArchiveCandidates returns ids of done tasks with zero incoming edges from
// any active task, sorted.
func (g *Graph) ArchiveCandidates() []string {
	referenced := make(map[string]bool)
	for _, t := range g.tasks {
		for _, depID := range t.DependsOn {
			referenced[depID] = true
		}
	}

	var out []string
	for id, t := range g.tasks {
		if t.Status == task.StatusDone && !referenced[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// DependencyChain returns the transitive closure of a task's dependencies in
// depth-first order, each ancestor annotated with its current display status.
// Archived ancestors are reported as done. Shared ancestors appear once, at
// the depth they were first reached.
func (g *Graph) DependencyChain(id string) []ChainEntry {
	t := g.tasks[id]
	if t == nil {
		return nil
	}

	visited := map[string]bool{id: true}
	var chain []ChainEntry

	var walk func(depIDs []string, depth int)
	walk = func(depIDs []string, depth int) {
		for _, depID := range depIDs {
			if visited[depID] {
				continue
			}
			visited[depID] = true

			dep := g.tasks[depID]
			switch {
			case dep != nil:
				chain = append(chain, ChainEntry{
					ID:     depID,
					Title:  dep.Title,
					Status: g.DisplayStatus(dep),
					Depth:  depth,
				})
				walk(dep.DependsOn, depth+1)
			case g.archived[depID]:
				chain = append(chain, ChainEntry{ID: depID, Status: task.StatusDone, Depth: depth})
			}
		}
	}
	walk(t.DependsOn, 1)
	return chain
}

func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.tasks))
	for id := range g.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// canonicalCycle rotates the cycle to start at its lowest id and closes it
// by repeating the starting id.
func canonicalCycle(segment []string) []string {
	lowest := 0
	for i, id := range segment {
		if id < segment[lowest] {
			lowest = i
		}
	}
	out := make([]string, 0, len(segment)+1)
	out = append(out, segment[lowest:]...)
	out = append(out, segment[:lowest]...)
	out = append(out, segment[lowest])
	return out
}

func cycleKey(cycle []string) string {
	key := ""
	for _, id := range cycle {
		key += id + "\x00"
	}
	return key
}

// taskLess orders by descending priority, then creation time, then id.
func taskLess(a, b *task.Task) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.Metadata.CreatedAt.Equal(b.Metadata.CreatedAt) {
		return a.Metadata.CreatedAt.Before(b.Metadata.CreatedAt)
	}
	return a.ID < b.ID
}
