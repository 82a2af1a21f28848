//nolint:testpackage // Tests require internal access for thorough testing
package graph

import (
	"reflect"
	"testing"
	"time"

	"missionctl/internal/task"
)

func makeTask(id string, status task.Status, deps ...string) *task.Task {
	return &task.Task{
		ID:        id,
		Title:     "Task " + id,
		Status:    status,
		Priority:  task.DefaultPriority,
		DependsOn: deps,
		Metadata:  task.Metadata{CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}
}

func TestBlockedBy(t *testing.T) {
	g := New([]*task.Task{
		makeTask("a", task.StatusTodo),
		makeTask("b", task.StatusTodo, "a"),       // blocked: a not done
		makeTask("c", task.StatusDone),
		makeTask("d", task.StatusTodo, "c"),       // clear: c done
		makeTask("e", task.StatusTodo, "x"),       // blocked: x missing everywhere
		makeTask("f", task.StatusTodo, "old"),     // clear: old is archived
		makeTask("g", task.StatusTodo, "a", "c"),  // blocked by a only
	}, map[string]bool{"old": true})

	tests := []struct {
		id   string
		want []string
	}{
		{"a", nil},
		{"b", []string{"a"}},
		{"d", nil},
		{"e", []string{"x"}},
		{"f", nil},
		{"g", []string{"a"}},
		{"unknown", nil},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := g.BlockedBy(tt.id); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BlockedBy(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestDisplayStatus(t *testing.T) {
	g := New([]*task.Task{
		makeTask("a", task.StatusTodo),
		makeTask("b", task.StatusTodo, "a"),
		makeTask("c", task.StatusInProgress, "a"),
		makeTask("d", task.StatusDone),
	}, nil)

	tests := []struct {
		id   string
		want task.Status
	}{
		{"a", task.StatusTodo},
		{"b", task.StatusBlocked},
		{"c", task.StatusBlocked},
		{"d", task.StatusDone},
	}

	for _, tt := range tests {
		if got := g.DisplayStatus(g.Get(tt.id)); got != tt.want {
			t.Errorf("DisplayStatus(%s) = %s, want %s", tt.id, got, tt.want)
		}
	}
}

func TestReadyExcludesBlockedAndNonTodo(t *testing.T) {
	g := New([]*task.Task{
		makeTask("a", task.StatusTodo),            // ready
		makeTask("b", task.StatusTodo, "a"),       // blocked
		makeTask("c", task.StatusDone),
		makeTask("d", task.StatusTodo, "c"),       // ready, dep done
		makeTask("e", task.StatusInProgress),      // excluded by status
	}, nil)

	ready := g.Ready()

	ids := map[string]bool{}
	for _, r := range ready {
		ids[r.ID] = true
		// Property: ready never contains a task with a non-done dependency.
		if blockers := g.BlockedBy(r.ID); len(blockers) > 0 {
			t.Errorf("ready task %s has blockers %v", r.ID, blockers)
		}
	}
	if len(ready) != 2 || !ids["a"] || !ids["d"] {
		t.Errorf("Ready = %v, want {a, d}", ids)
	}
}

func TestReadyOrdering(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	mk := func(id string, priority int, createdAt time.Time) *task.Task {
		tk := makeTask(id, task.StatusTodo)
		tk.Priority = priority
		tk.Metadata.CreatedAt = createdAt
		return tk
	}

	g := New([]*task.Task{
		mk("low-old", 2, base),
		mk("high-new", 9, base.Add(2*time.Hour)),
		mk("high-old", 9, base.Add(time.Hour)),
		mk("mid", 5, base),
	}, nil)

	var got []string
	for _, r := range g.Ready() {
		got = append(got, r.ID)
	}

	want := []string{"high-old", "high-new", "mid", "low-old"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Ready order = %v, want %v", got, want)
	}
}

func TestReadyEmptyStore(t *testing.T) {
	if got := New(nil, nil).Ready(); len(got) != 0 {
		t.Errorf("Ready on empty store = %v, want empty", got)
	}
}

func TestWouldCreateCycle(t *testing.T) {
	// a -> b -> c (a depends on b, b depends on c)
	g := New([]*task.Task{
		makeTask("a", task.StatusTodo, "b"),
		makeTask("b", task.StatusTodo, "c"),
		makeTask("c", task.StatusTodo),
	}, nil)

	tests := []struct {
		from, to string
		cycle    bool
	}{
		{"c", "a", true},  // a -> b -> c -> a
		{"c", "b", true},  // b -> c -> b
		{"a", "c", false}, // already reachable, still acyclic
		{"c", "d", false}, // d doesn't exist, no cycle
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			if got := g.WouldCreateCycle(tt.from, tt.to); got != tt.cycle {
				t.Errorf("WouldCreateCycle(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.cycle)
			}
		})
	}
}

func TestDetectCyclesAcyclic(t *testing.T) {
	g := New([]*task.Task{
		makeTask("a", task.StatusTodo, "b", "c"),
		makeTask("b", task.StatusTodo, "c"),
		makeTask("c", task.StatusTodo),
	}, nil)

	if cycles := g.DetectCycles(); len(cycles) != 0 {
		t.Errorf("DetectCycles on DAG = %v, want empty", cycles)
	}
}

func TestDetectCyclesFindsInjectedCycle(t *testing.T) {
	g := New([]*task.Task{
		makeTask("a", task.StatusTodo, "b"),
		makeTask("b", task.StatusTodo, "c"),
		makeTask("c", task.StatusTodo, "a"), // injected back edge
		makeTask("d", task.StatusTodo),
	}, nil)

	cycles := g.DetectCycles()
	if len(cycles) != 1 {
		t.Fatalf("DetectCycles = %v, want exactly one cycle", cycles)
	}

	// Canonical form: rotated to lowest id, closed.
	want := []string{"a", "b", "c", "a"}
	if !reflect.DeepEqual(cycles[0], want) {
		t.Errorf("cycle = %v, want %v", cycles[0], want)
	}
}

func TestDetectCyclesFindsAllComponents(t *testing.T) {
	// Two disjoint cycles plus a self-loop-free chain.
	g := New([]*task.Task{
		makeTask("a", task.StatusTodo, "b"),
		makeTask("b", task.StatusTodo, "a"),
		makeTask("x", task.StatusTodo, "y"),
		makeTask("y", task.StatusTodo, "z"),
		makeTask("z", task.StatusTodo, "x"),
		makeTask("q", task.StatusTodo, "a"), // reaches a cycle but isn't on one
	}, nil)

	cycles := g.DetectCycles()
	if len(cycles) != 2 {
		t.Fatalf("DetectCycles = %v, want 2 cycles", cycles)
	}
	if !reflect.DeepEqual(cycles[0], []string{"a", "b", "a"}) {
		t.Errorf("first cycle = %v", cycles[0])
	}
	if !reflect.DeepEqual(cycles[1], []string{"x", "y", "z", "x"}) {
		t.Errorf("second cycle = %v", cycles[1])
	}
}

func TestDetectCyclesDeterministic(t *testing.T) {
	tasks := []*task.Task{
		makeTask("m", task.StatusTodo, "n"),
		makeTask("n", task.StatusTodo, "m"),
	}
	first := New(tasks, nil).DetectCycles()
	for i := 0; i < 10; i++ {
		if again := New(tasks, nil).DetectCycles(); !reflect.DeepEqual(again, first) {
			t.Fatalf("DetectCycles not deterministic: %v vs %v", again, first)
		}
	}
}

func TestDetectDangling(t *testing.T) {
	g := New([]*task.Task{
		makeTask("a", task.StatusTodo, "missing1", "b"),
		makeTask("b", task.StatusTodo, "archived1"),
		makeTask("c", task.StatusTodo, "missing2"),
	}, map[string]bool{"archived1": true})

	want := []Dangling{
		{TaskID: "a", MissingID: "missing1"},
		{TaskID: "c", MissingID: "missing2"},
	}
	if got := g.DetectDangling(); !reflect.DeepEqual(got, want) {
		t.Errorf("DetectDangling = %v, want %v", got, want)
	}
}

func TestDetectDanglingIdempotent(t *testing.T) {
	g := New([]*task.Task{
		makeTask("a", task.StatusTodo, "missing"),
	}, nil)

	first := g.DetectDangling()
	if again := g.DetectDangling(); !reflect.DeepEqual(again, first) {
		t.Errorf("repeated sweep differs: %v vs %v", again, first)
	}
}

func TestArchiveCandidates(t *testing.T) {
	g := New([]*task.Task{
		makeTask("a", task.StatusDone),       // eligible
		makeTask("b", task.StatusDone),       // not eligible: c depends on it
		makeTask("c", task.StatusTodo, "b"),
		makeTask("d", task.StatusTodo),       // not done
		makeTask("e", task.StatusDone),       // eligible
	}, nil)

	want := []string{"a", "e"}
	if got := g.ArchiveCandidates(); !reflect.DeepEqual(got, want) {
		t.Errorf("ArchiveCandidates = %v, want %v", got, want)
	}
}

func TestDependents(t *testing.T) {
	g := New([]*task.Task{
		makeTask("a", task.StatusTodo),
		makeTask("b", task.StatusTodo, "a"),
		makeTask("c", task.StatusTodo, "a", "b"),
	}, nil)

	if got := g.Dependents("a"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Dependents(a) = %v", got)
	}
	if got := g.Dependents("c"); got != nil {
		t.Errorf("Dependents(c) = %v, want nil", got)
	}
}

func TestDependencyChain(t *testing.T) {
	g := New([]*task.Task{
		makeTask("a", task.StatusTodo, "b", "c"),
		makeTask("b", task.StatusInProgress, "d"),
		makeTask("c", task.StatusDone),
		makeTask("d", task.StatusTodo),
	}, map[string]bool{"old": true})

	chain := g.DependencyChain("a")

	want := []ChainEntry{
		{ID: "b", Title: "Task b", Status: task.StatusBlocked, Depth: 1},
		{ID: "d", Title: "Task d", Status: task.StatusTodo, Depth: 2},
		{ID: "c", Title: "Task c", Status: task.StatusDone, Depth: 1},
	}
	if !reflect.DeepEqual(chain, want) {
		t.Errorf("DependencyChain = %v, want %v", chain, want)
	}
}

func TestDependencyChainArchivedAncestor(t *testing.T) {
	g := New([]*task.Task{
		makeTask("a", task.StatusTodo, "old"),
	}, map[string]bool{"old": true})

	chain := g.DependencyChain("a")
	want := []ChainEntry{{ID: "old", Status: task.StatusDone, Depth: 1}}
	if !reflect.DeepEqual(chain, want) {
		t.Errorf("DependencyChain = %v, want %v", chain, want)
	}
}

func TestDependencyChainSharedAncestorOnce(t *testing.T) {
	g := New([]*task.Task{
		makeTask("a", task.StatusTodo, "b", "c"),
		makeTask("b", task.StatusTodo, "d"),
		makeTask("c", task.StatusTodo, "d"),
		makeTask("d", task.StatusTodo),
	}, nil)

	count := 0
	for _, e := range g.DependencyChain("a") {
		if e.ID == "d" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("shared ancestor d appears %d times, want 1", count)
	}
}
