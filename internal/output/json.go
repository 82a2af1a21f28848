package output

import (
	"encoding/json"
	"time"

	"missionctl/internal/mission"
	"missionctl/internal/task"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// marshalJSON marshals a value to indented JSON with a trailing newline.
func marshalJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data) + "\n"
}

// taskJSON is the JSON representation of a task. Timestamps are flattened
// and formatted for callers; the persisted schema lives in internal/store.
type taskJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	DependsOn   []string `json:"depends_on,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Priority    int      `json:"priority"`
	Branch      string   `json:"branch,omitempty"`
	CommitHash  string   `json:"commit_hash,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func toTaskJSON(t *task.Task) taskJSON {
	return taskJSON{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		DependsOn:   t.DependsOn,
		Tags:        t.Tags,
		Priority:    t.Priority,
		Branch:      t.Metadata.Branch,
		CommitHash:  t.Metadata.CommitHash,
		CreatedAt:   t.Metadata.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.Metadata.UpdatedAt.Format(time.RFC3339),
	}
}

// FormatTask formats a single task as JSON.
func (f *JSONFormatter) FormatTask(t *task.Task) string {
	return marshalJSON(toTaskJSON(t))
}

// chainJSON is the JSON representation of one dependency chain entry.
type chainJSON struct {
	ID     string `json:"id"`
	Title  string `json:"title,omitempty"`
	Status string `json:"status"`
	Depth  int    `json:"depth"`
}

// detailJSON is the JSON representation of a task with its chain.
type detailJSON struct {
	taskJSON
	Chain []chainJSON `json:"dependency_chain,omitempty"`
}

// FormatDetail formats a task with its resolved dependency chain as JSON.
func (f *JSONFormatter) FormatDetail(d *mission.Detail) string {
	out := detailJSON{taskJSON: toTaskJSON(d.Task)}
	for _, e := range d.Chain {
		out.Chain = append(out.Chain, chainJSON{
			ID:     e.ID,
			Title:  e.Title,
			Status: string(e.Status),
			Depth:  e.Depth,
		})
	}
	return marshalJSON(out)
}

// FormatTaskList formats a list of tasks as JSON.
func (f *JSONFormatter) FormatTaskList(tasks []*task.Task) string {
	jsonTasks := make([]taskJSON, len(tasks))
	for i, t := range tasks {
		jsonTasks[i] = toTaskJSON(t)
	}
	return marshalJSON(jsonTasks)
}

// summaryJSON is the JSON representation of the task summary.
type summaryJSON struct {
	ByStatus        map[string]int `json:"by_status"`
	Ready           int            `json:"ready"`
	ArchiveEligible int            `json:"archive_eligible"`
	Active          int            `json:"active"`
	Archived        int            `json:"archived"`
}

// FormatSummary formats the aggregate counts as JSON.
func (f *JSONFormatter) FormatSummary(s mission.Summary) string {
	byStatus := make(map[string]int, len(s.ByStatus))
	for st, n := range s.ByStatus {
		byStatus[string(st)] = n
	}
	return marshalJSON(summaryJSON{
		ByStatus:        byStatus,
		Ready:           s.Ready,
		ArchiveEligible: s.ArchiveEligible,
		Active:          s.Active,
		Archived:        s.Archived,
	})
}

// danglingJSON is the JSON representation of one dangling reference.
type danglingJSON struct {
	TaskID    string `json:"task_id"`
	MissingID string `json:"missing_id"`
}

// reportJSON is the JSON representation of a consistency report.
type reportJSON struct {
	OK       bool           `json:"ok"`
	Cycles   [][]string     `json:"cycles,omitempty"`
	Dangling []danglingJSON `json:"dangling,omitempty"`
}

// FormatReport formats a consistency report as JSON.
func (f *JSONFormatter) FormatReport(r mission.Report) string {
	out := reportJSON{OK: r.OK, Cycles: r.Cycles}
	for _, d := range r.Dangling {
		out.Dangling = append(out.Dangling, danglingJSON{TaskID: d.TaskID, MissingID: d.MissingID})
	}
	return marshalJSON(out)
}

// errorJSON is the JSON representation of an error.
type errorJSON struct {
	Error string `json:"error"`
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(err error) string {
	return marshalJSON(errorJSON{Error: err.Error()})
}

// messageJSON is the JSON representation of a message.
type messageJSON struct {
	Message string `json:"message"`
}

// FormatMessage formats a simple message as JSON.
func (f *JSONFormatter) FormatMessage(msg string) string {
	return marshalJSON(messageJSON{Message: msg})
}

// warningsJSON is the JSON representation of load warnings.
type warningsJSON struct {
	Warnings []string `json:"warnings"`
}

// FormatWarnings formats load-time warnings as JSON.
func (f *JSONFormatter) FormatWarnings(warnings []string) string {
	return marshalJSON(warningsJSON{Warnings: warnings})
}
