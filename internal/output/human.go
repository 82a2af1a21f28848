package output

import (
	"fmt"
	"sort"
	"strings"

	"missionctl/internal/mission"
	"missionctl/internal/task"
)

// HumanFormatter formats output for human-readable terminal display.
type HumanFormatter struct{}

// NewHumanFormatter creates a new HumanFormatter.
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// FormatTask formats a single task for display.
func (f *HumanFormatter) FormatTask(t *task.Task) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s\n", t.ID, t.Title))
	sb.WriteString(fmt.Sprintf("  Status:   %s\n", t.Status))
	sb.WriteString(fmt.Sprintf("  Priority: P%d\n", t.Priority))
	sb.WriteString(fmt.Sprintf("  Created:  %s\n", t.Metadata.CreatedAt.Format("2006-01-02 15:04")))
	sb.WriteString(fmt.Sprintf("  Updated:  %s\n", t.Metadata.UpdatedAt.Format("2006-01-02 15:04")))

	if t.Metadata.Branch != "" {
		sb.WriteString(fmt.Sprintf("  Branch:   %s\n", t.Metadata.Branch))
	}
	if t.Metadata.CommitHash != "" {
		sb.WriteString(fmt.Sprintf("  Commit:   %s\n", shortHash(t.Metadata.CommitHash)))
	}
	if len(t.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("  Tags:     %s\n", strings.Join(t.Tags, ", ")))
	}
	if len(t.DependsOn) > 0 {
		sb.WriteString(fmt.Sprintf("  Depends:  %s\n", strings.Join(t.DependsOn, ", ")))
	}
	if t.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(t.Description)
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatDetail formats a task with its resolved dependency chain.
func (f *HumanFormatter) FormatDetail(d *mission.Detail) string {
	var sb strings.Builder
	sb.WriteString(f.FormatTask(d.Task))

	if len(d.Chain) > 0 {
		sb.WriteString("\nDependency chain:\n")
		for _, e := range d.Chain {
			indent := strings.Repeat("  ", e.Depth)
			title := e.Title
			if title == "" {
				title = "(archived)"
			}
			sb.WriteString(fmt.Sprintf("%s%s [%s] %s\n", indent, statusIcon(e.Status), e.ID, title))
		}
	}
	return sb.String()
}

// FormatTaskList formats a list of tasks for display.
func (f *HumanFormatter) FormatTaskList(tasks []*task.Task) string {
	if len(tasks) == 0 {
		return "No tasks found.\n"
	}

	var sb strings.Builder
	for _, t := range tasks {
		sb.WriteString(f.formatTaskLine(t))
	}
	return sb.String()
}

// formatTaskLine formats a single task as a compact one-liner.
func (f *HumanFormatter) formatTaskLine(t *task.Task) string {
	deps := ""
	if len(t.DependsOn) > 0 {
		deps = fmt.Sprintf(" [deps: %s]", strings.Join(t.DependsOn, ", "))
	}
	return fmt.Sprintf("%s P%d [%s] %s%s\n", statusIcon(t.Status), t.Priority, t.ID, t.Title, deps)
}

// FormatSummary formats the aggregate counts.
func (f *HumanFormatter) FormatSummary(s mission.Summary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Tasks: %d active, %d archived\n", s.Active, s.Archived))

	statuses := make([]string, 0, len(s.ByStatus))
	for st := range s.ByStatus {
		statuses = append(statuses, string(st))
	}
	sort.Strings(statuses)
	for _, st := range statuses {
		sb.WriteString(fmt.Sprintf("  %-12s %d\n", st, s.ByStatus[task.Status(st)]))
	}

	sb.WriteString(fmt.Sprintf("Ready: %d\n", s.Ready))
	sb.WriteString(fmt.Sprintf("Archive-eligible: %d\n", s.ArchiveEligible))
	return sb.String()
}

// FormatReport formats a consistency report.
func (f *HumanFormatter) FormatReport(r mission.Report) string {
	if r.OK {
		return "Consistency check passed.\n"
	}

	var sb strings.Builder
	for _, cycle := range r.Cycles {
		sb.WriteString(fmt.Sprintf("cycle: %s\n", strings.Join(cycle, " -> ")))
	}
	for _, d := range r.Dangling {
		sb.WriteString(fmt.Sprintf("dangling: %s depends on missing %s\n", d.TaskID, d.MissingID))
	}
	return sb.String()
}

// FormatError formats an error for display.
func (f *HumanFormatter) FormatError(err error) string {
	return fmt.Sprintf("Error: %s\n", err.Error())
}

// FormatMessage formats a simple message.
func (f *HumanFormatter) FormatMessage(msg string) string {
	return msg + "\n"
}

// FormatWarnings formats load-time warnings.
func (f *HumanFormatter) FormatWarnings(warnings []string) string {
	var sb strings.Builder
	for _, w := range warnings {
		sb.WriteString(fmt.Sprintf("Warning: %s\n", w))
	}
	return sb.String()
}

func statusIcon(s task.Status) string {
	switch s {
	case task.StatusTodo:
		return "[ ]"
	case task.StatusInProgress:
		return "[*]"
	case task.StatusBlocked:
		return "[!]"
	case task.StatusDone:
		return "[X]"
	default:
		return "[?]"
	}
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
