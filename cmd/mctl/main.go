package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"missionctl/internal/config"
	mcerrors "missionctl/internal/errors"
	"missionctl/internal/gitmeta"
	"missionctl/internal/mission"
	"missionctl/internal/output"
	"missionctl/internal/task"
)

//nolint:gochecknoglobals // CLI flags and formatter are package-level by design
var (
	jsonOutput bool
	formatter  output.Formatter
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mctl",
		Short: "Mission control: a git-friendly task dependency tracker",
		Long: "mctl tracks tasks as a dependency graph, answers which tasks can start\n" +
			"right now, and persists the graph as diff-friendly line-delimited records.",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if jsonOutput {
				formatter = output.NewJSONFormatter()
			} else {
				formatter = output.NewHumanFormatter()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(
		initCmd(),
		createCmd(),
		statusCmd(),
		listCmd(),
		readyCmd(),
		showCmd(),
		depCmd(),
		undepCmd(),
		rmCmd(),
		checkCmd(),
		summaryCmd(),
		commitCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openMission loads the facade for the current project.
func openMission() (*mission.MissionControl, error) {
	root, err := gitmeta.FindProjectRoot()
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(filepath.Join(root, config.Dir)); err != nil || !info.IsDir() {
		return nil, mcerrors.NotInitializedError{}
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	m, err := mission.Open(root, cfg)
	if err != nil {
		return nil, err
	}
	if warnings := m.Warnings(); len(warnings) > 0 {
		os.Stderr.WriteString(formatter.FormatWarnings(warnings)) //nolint:gosec // stderr write errors are unrecoverable
	}
	return m, nil
}

func printOutput(s string) {
	os.Stdout.WriteString(s) //nolint:gosec // stdout write errors are unrecoverable
}

func printError(err error) {
	os.Stdout.WriteString(formatter.FormatError(err)) //nolint:gosec // stdout write errors are unrecoverable
	os.Exit(1)
}

// flush persists the active store after a mutation. The archive sweep only
// ever happens through 'mctl commit'.
func flush(m *mission.MissionControl) {
	if err := m.Flush(context.Background()); err != nil {
		printError(err)
	}
}

// initCmd implements 'mctl init'.
func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the mission control directory",
		Run: func(_ *cobra.Command, _ []string) {
			root, err := gitmeta.FindProjectRoot()
			if err != nil {
				printError(err)
			}
			dir, err := mission.Init(root, force)
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatMessage(fmt.Sprintf("Initialized mission control at %s", dir)))
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Reinitialize even if already exists")
	return cmd
}

// createCmd implements 'mctl create'.
func createCmd() *cobra.Command {
	var description string
	var dependsOn, tags []string
	var priority int
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new task",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			m, err := openMission()
			if err != nil {
				printError(err)
			}

			t, err := m.Create(mission.CreateInput{
				Title:       args[0],
				Description: description,
				DependsOn:   dependsOn,
				Tags:        tags,
				Priority:    priority,
			})
			if err != nil {
				printError(err)
			}
			flush(m)
			printOutput(formatter.FormatTask(t))
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringSliceVar(&dependsOn, "depends-on", nil, "Ids of prerequisite tasks")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Free-form labels")
	cmd.Flags().IntVarP(&priority, "priority", "p", 0, "Priority 1-10 (default from config)")
	return cmd
}

// statusCmd implements 'mctl status'.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <todo|in_progress|done>",
		Short: "Update a task's status",
		Args:  cobra.ExactArgs(2), //nolint:mnd // CLI takes 2 positional args
		Run: func(_ *cobra.Command, args []string) {
			m, err := openMission()
			if err != nil {
				printError(err)
			}

			t, err := m.UpdateStatus(args[0], task.Status(args[1]))
			if err != nil {
				printError(err)
			}
			flush(m)
			printOutput(formatter.FormatTask(t))
		},
	}
}

// listCmd implements 'mctl list'.
func listCmd() *cobra.Command {
	var statuses, tags []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Run: func(_ *cobra.Command, _ []string) {
			m, err := openMission()
			if err != nil {
				printError(err)
			}

			filter := mission.Filter{Tags: tags}
			for _, s := range statuses {
				st := task.Status(s)
				if !task.IsValidStatus(st) {
					printError(mcerrors.ValidationError{Field: "status", Reason: "unknown value '" + s + "'"})
				}
				filter.Statuses = append(filter.Statuses, st)
			}

			printOutput(formatter.FormatTaskList(m.List(filter)))
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (todo, in_progress, blocked, done)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Filter by tag (all must match)")
	return cmd
}

// readyCmd implements 'mctl ready'.
func readyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "List tasks that can start right now",
		Run: func(_ *cobra.Command, _ []string) {
			m, err := openMission()
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatTaskList(m.ListReady()))
		},
	}
}

// showCmd implements 'mctl show'.
func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task and its dependency chain",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			m, err := openMission()
			if err != nil {
				printError(err)
			}

			d, err := m.Get(args[0])
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatDetail(d))
		},
	}
}

// depCmd implements 'mctl dep'.
func depCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dep <id> <depends-on-id>",
		Short: "Add a dependency",
		Args:  cobra.ExactArgs(2), //nolint:mnd // CLI takes 2 positional args
		Run: func(_ *cobra.Command, args []string) {
			m, err := openMission()
			if err != nil {
				printError(err)
			}

			t, added, err := m.AddDependency(args[0], args[1])
			if err != nil {
				printError(err)
			}
			if !added {
				printOutput(formatter.FormatMessage("Dependency already exists"))
				return
			}
			flush(m)
			printOutput(formatter.FormatTask(t))
		},
	}
}

// undepCmd implements 'mctl undep'.
func undepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undep <id> <depends-on-id>",
		Short: "Remove a dependency",
		Args:  cobra.ExactArgs(2), //nolint:mnd // CLI takes 2 positional args
		Run: func(_ *cobra.Command, args []string) {
			m, err := openMission()
			if err != nil {
				printError(err)
			}

			t, removed, err := m.RemoveDependency(args[0], args[1])
			if err != nil {
				printError(err)
			}
			if !removed {
				printOutput(formatter.FormatMessage("Dependency not found"))
				return
			}
			flush(m)
			printOutput(formatter.FormatTask(t))
		},
	}
}

// rmCmd implements 'mctl rm'.
func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task (fails while other tasks depend on it)",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			m, err := openMission()
			if err != nil {
				printError(err)
			}

			if err := m.Delete(args[0]); err != nil {
				printError(err)
			}
			flush(m)
			printOutput(formatter.FormatMessage(fmt.Sprintf("Deleted task %s", args[0])))
		},
	}
}

// checkCmd implements 'mctl check'.
func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run the consistency sweep (cycles, dangling references)",
		Run: func(_ *cobra.Command, _ []string) {
			m, err := openMission()
			if err != nil {
				printError(err)
			}

			report := m.CheckConsistency()
			printOutput(formatter.FormatReport(report))
			if !report.OK {
				os.Exit(1)
			}
		},
	}
}

// summaryCmd implements 'mctl summary'.
func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show counts by status, ready count, and archive eligibility",
		Run: func(_ *cobra.Command, _ []string) {
			m, err := openMission()
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatSummary(m.TaskSummary()))
		},
	}
}

// commitCmd implements 'mctl commit'.
func commitCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Durably save the store and archive retired tasks",
		Run: func(_ *cobra.Command, _ []string) {
			m, err := openMission()
			if err != nil {
				printError(err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			archived, err := m.Commit(ctx)
			if err != nil {
				printError(err)
			}
			if len(archived) == 0 {
				printOutput(formatter.FormatMessage("Committed; nothing to archive"))
				return
			}
			printOutput(formatter.FormatMessage(fmt.Sprintf("Committed; archived %d task(s): %s",
				len(archived), strings.Join(archived, ", "))))
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Bound on commit I/O")
	return cmd
}
