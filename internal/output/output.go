// Package output renders facade results for the terminal, in human-readable
// or JSON form.
package output

import (
	"missionctl/internal/mission"
	"missionctl/internal/task"
)

// Formatter defines the interface for output formatting.
type Formatter interface {
	FormatTask(t *task.Task) string
	FormatDetail(d *mission.Detail) string
	FormatTaskList(tasks []*task.Task) string
	FormatSummary(s mission.Summary) string
	FormatReport(r mission.Report) string
	FormatError(err error) string
	FormatMessage(msg string) string
	FormatWarnings(warnings []string) string
}
