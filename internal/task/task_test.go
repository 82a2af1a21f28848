//nolint:testpackage // Tests require internal access for thorough testing
package task

import (
	"strings"
	"testing"
	"time"
)

func TestIsValidStatus(t *testing.T) {
	tests := []struct {
		status Status
		valid  bool
	}{
		{StatusTodo, true},
		{StatusInProgress, true},
		{StatusBlocked, true},
		{StatusDone, true},
		{Status("open"), false},
		{Status(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := IsValidStatus(tt.status); got != tt.valid {
				t.Errorf("IsValidStatus(%q) = %v, want %v", tt.status, got, tt.valid)
			}
		})
	}
}

func TestIsValidPriority(t *testing.T) {
	tests := []struct {
		priority int
		valid    bool
	}{
		{1, true},
		{5, true},
		{10, true},
		{0, false},
		{11, false},
		{-3, false},
	}

	for _, tt := range tests {
		if got := IsValidPriority(tt.priority); got != tt.valid {
			t.Errorf("IsValidPriority(%d) = %v, want %v", tt.priority, got, tt.valid)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := Task{
		ID:       "mc-abc123",
		Title:    "Test task",
		Status:   StatusTodo,
		Priority: 5,
	}

	tests := []struct {
		name   string
		mutate func(*Task)
		ok     bool
	}{
		{"valid", func(*Task) {}, true},
		{"empty id", func(x *Task) { x.ID = "" }, false},
		{"empty title", func(x *Task) { x.Title = "" }, false},
		{"bad status", func(x *Task) { x.Status = "open" }, false},
		{"priority too low", func(x *Task) { x.Priority = 0 }, false},
		{"priority too high", func(x *Task) { x.Priority = 11 }, false},
		{"self dependency", func(x *Task) { x.DependsOn = []string{"mc-abc123"} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tsk := valid
			tt.mutate(&tsk)
			err := tsk.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestClone(t *testing.T) {
	orig := &Task{
		ID:        "mc-abc123",
		Title:     "Test task",
		Status:    StatusTodo,
		Priority:  5,
		DependsOn: []string{"mc-def456"},
		Tags:      []string{"infra"},
	}

	c := orig.Clone()
	c.DependsOn[0] = "changed"
	c.Tags[0] = "changed"

	if orig.DependsOn[0] != "mc-def456" {
		t.Error("Clone shares DependsOn backing array")
	}
	if orig.Tags[0] != "infra" {
		t.Error("Clone shares Tags backing array")
	}
}

func TestGenerateID(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	never := func(string) bool { return false }

	id := GenerateID("mc-", "Test task", now, 0, never)
	if !strings.HasPrefix(id, "mc-") {
		t.Errorf("id %q missing namespace prefix", id)
	}
	if len(id) != len("mc-")+6 {
		t.Errorf("id %q: suffix length = %d, want 6", id, len(id)-len("mc-"))
	}

	// Deterministic given identical inputs.
	if again := GenerateID("mc-", "Test task", now, 0, never); again != id {
		t.Errorf("GenerateID not deterministic: %q vs %q", id, again)
	}

	// Different salt, different id.
	if salted := GenerateID("mc-", "Test task", now, 1, never); salted == id {
		t.Errorf("salt change did not change id: %q", salted)
	}
}

func TestGenerateIDCollisionRetry(t *testing.T) {
	now := time.Now()
	first := GenerateID("mc-", "Collide", now, 0, func(string) bool { return false })

	// The first candidate is taken; the generator must retry with a new salt.
	second := GenerateID("mc-", "Collide", now, 0, func(id string) bool { return id == first })
	if second == first {
		t.Fatalf("generator returned taken id %q", second)
	}
	if !strings.HasPrefix(second, "mc-") {
		t.Errorf("retry lost prefix: %q", second)
	}
}

func TestGenerateIDGrowsSuffix(t *testing.T) {
	now := time.Now()

	// All 6-char candidates taken: the suffix must grow.
	id := GenerateID("mc-", "Crowded", now, 0, func(id string) bool {
		return len(id) == len("mc-")+6
	})
	if len(id) <= len("mc-")+6 {
		t.Errorf("suffix did not grow: %q", id)
	}
}

func TestGenerateIDDefaultPrefix(t *testing.T) {
	id := GenerateID("", "No prefix", time.Now(), 0, func(string) bool { return false })
	if !strings.HasPrefix(id, DefaultIDPrefix) {
		t.Errorf("empty prefix should fall back to %q, got %q", DefaultIDPrefix, id)
	}
}
