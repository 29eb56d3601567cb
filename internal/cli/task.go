package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/wbs-gantt/internal/core"
	"github.com/valter-silva-au/wbs-gantt/internal/dates"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage scheduled tasks (add, list, set, move, rm)",
	Long: `Task management commands.

Tasks are bars on the timeline. Each has a start date, a duration in calendar
days, a progress percentage and an optional WBS category.`,
}

var (
	taskCategory string
	taskAssignee string
	taskTitle    string
	taskStart    string
	taskDuration int
	taskProgress int
	taskReason   string
	taskJSON     bool
)

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Long: `Add a task to the project.

New tasks start on the project start date with a one-day duration unless --start and
--duration say otherwise. Task ids are assigned sequentially and never reused.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		if taskCategory != "" {
			c, err := ProjectMgr.FindCategory(taskCategory)
			if err != nil {
				return fmt.Errorf("adding task: %w", err)
			}
			taskCategory = c.Name
		}

		upd, err := taskUpdateFromFlags(cmd)
		if err != nil {
			return err
		}
		upd.Category = nil

		task, err := ProjectMgr.AddTask(args[0], taskCategory)
		if err != nil {
			return fmt.Errorf("adding task: %w", err)
		}
		if upd != (core.TaskUpdate{}) {
			updated, err := ProjectMgr.UpdateTask(task.ID, upd)
			if err != nil {
				_ = ProjectMgr.RemoveTask(task.ID)
				return fmt.Errorf("adding task: %w", err)
			}
			task = updated
		}
		if err := ProjectMgr.Save(); err != nil {
			return fmt.Errorf("saving project: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Added task %s\n", task.ID)
		printTask(out, task)
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}

		var tasks []models.Task
		for _, t := range ProjectMgr.Tasks() {
			if taskCategory == "" || t.Category == taskCategory {
				tasks = append(tasks, t)
			}
		}

		out := cmd.OutOrStdout()
		if taskJSON {
			if tasks == nil {
				tasks = []models.Task{}
			}
			data, err := json.MarshalIndent(tasks, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting tasks as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks.")
			return nil
		}
		fmt.Fprintf(out, "%-8s %-28s %-14s %-10s %-10s %5s %5s  %s\n",
			"ID", "TITLE", "CATEGORY", "START", "END", "DAYS", "DONE", "DELAY")
		for _, t := range tasks {
			fmt.Fprintf(out, "%-8s %-28s %-14s %-10s %-10s %5d %4d%%  %s\n",
				t.ID, truncate(t.Title, 28), truncate(t.Category, 14), t.StartDate, endDate(t), t.Duration, t.Progress, t.DelayReason)
		}
		return nil
	},
}

var taskSetCmd = &cobra.Command{
	Use:   "set <task-id>",
	Short: "Update task fields",
	Long: `Update one or more fields of a task. Only the flags given are changed.

--start and --duration change the schedule and follow the same rules as
'gantt task move': only an admin or the project manager may use them, and an
edit that makes the task finish later needs --reason.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		upd, err := taskUpdateFromFlags(cmd)
		if err != nil {
			return err
		}
		if upd == (core.TaskUpdate{}) {
			return fmt.Errorf("nothing to update: pass at least one of --title, --category, --assignee, --start, --duration, --progress")
		}
		if upd.Category != nil && *upd.Category != "" {
			c, err := ProjectMgr.FindCategory(*upd.Category)
			if err != nil {
				return fmt.Errorf("updating task %s: %w", args[0], err)
			}
			upd.Category = &c.Name
		}

		out := cmd.OutOrStdout()
		if upd.StartDate != nil || upd.Duration != nil {
			if DragEngine == nil {
				return fmt.Errorf("drag engine not initialized")
			}
			res, err := DragEngine.Replan(args[0], upd.StartDate, upd.Duration, Identity, taskReason)
			switch {
			case errors.Is(err, core.ErrUnauthorizedDrag):
				return fmt.Errorf("user %q may not reschedule tasks in this project: %w", Identity.UserID, err)
			case errors.Is(err, core.ErrEmptyDelayReason):
				return fmt.Errorf("task %s would finish %d day(s) later than planned: pass --reason to confirm the delay", args[0], res.DaysDelta)
			case err != nil:
				return fmt.Errorf("updating task %s: %w", args[0], err)
			}
			if res.DelayDetected {
				fmt.Fprintf(out, "Delayed task %s by %d day(s): %s\n", args[0], res.DaysDelta, res.Task.DelayReason)
			}
			upd.StartDate, upd.Duration = nil, nil
		}

		var task models.Task
		if upd != (core.TaskUpdate{}) {
			task, err = ProjectMgr.UpdateTask(args[0], upd)
		} else {
			task, err = ProjectMgr.GetTask(args[0])
		}
		if err != nil {
			return fmt.Errorf("updating task %s: %w", args[0], err)
		}
		if err := ProjectMgr.Save(); err != nil {
			return fmt.Errorf("saving project: %w", err)
		}

		fmt.Fprintf(out, "Updated task %s\n", task.ID)
		printTask(out, task)
		return nil
	},
}

var taskMoveCmd = &cobra.Command{
	Use:   "move <task-id> <days>",
	Short: "Reschedule a task by whole days",
	Long: `Shift a task's start date by a number of days (negative moves earlier).

Only an admin or the project manager may reschedule. A move that pushes the
task's end date later is a delay and requires --reason; without it the move
is discarded and the task is left unchanged.

Negative counts must follow "--", e.g. gantt task move T-3 -- -2.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		if DragEngine == nil {
			return fmt.Errorf("drag engine not initialized")
		}
		days, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid day count %q: %w", args[1], err)
		}

		// One pixel per day: the pointer offset is the day count.
		session, err := DragEngine.BeginDrag(args[0], 0, Identity, 1)
		if errors.Is(err, core.ErrUnauthorizedDrag) {
			return fmt.Errorf("user %q may not reschedule tasks in this project: %w", Identity.UserID, err)
		}
		if err != nil {
			return fmt.Errorf("moving task %s: %w", args[0], err)
		}
		DragEngine.UpdateDrag(session, float64(days))
		res, err := DragEngine.EndDrag(session)
		if err != nil {
			return fmt.Errorf("moving task %s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		task := res.Task
		switch {
		case res.DelayDetected:
			task, err = DragEngine.ConfirmDelay(res.Candidate, taskReason)
			if err != nil {
				_ = DragEngine.DiscardDelay(res.Candidate)
				if errors.Is(err, core.ErrEmptyDelayReason) {
					return fmt.Errorf("task %s would finish %d day(s) later than planned: pass --reason to confirm the delay", args[0], res.DaysDelta)
				}
				return fmt.Errorf("confirming delay for %s: %w", args[0], err)
			}
			fmt.Fprintf(out, "Delayed task %s by %d day(s): %s\n", task.ID, res.DaysDelta, task.DelayReason)
		case res.Committed:
			fmt.Fprintf(out, "Moved task %s by %d day(s)\n", task.ID, res.DaysDelta)
		default:
			fmt.Fprintln(out, "No change.")
			return nil
		}

		if err := ProjectMgr.Save(); err != nil {
			return fmt.Errorf("saving project: %w", err)
		}
		printTask(out, task)
		return nil
	},
}

var taskRmCmd = &cobra.Command{
	Use:     "rm <task-id>",
	Aliases: []string{"remove"},
	Short:   "Remove a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		if err := ProjectMgr.RemoveTask(args[0]); err != nil {
			return fmt.Errorf("removing task: %w", err)
		}
		if err := ProjectMgr.Save(); err != nil {
			return fmt.Errorf("saving project: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed task %s\n", args[0])
		return nil
	},
}

// taskUpdateFromFlags collects the flags the user actually passed.
func taskUpdateFromFlags(cmd *cobra.Command) (core.TaskUpdate, error) {
	var upd core.TaskUpdate
	flags := cmd.Flags()
	if flags.Changed("title") {
		upd.Title = &taskTitle
	}
	if flags.Changed("category") {
		upd.Category = &taskCategory
	}
	if flags.Changed("assignee") {
		upd.Assignee = &taskAssignee
	}
	if flags.Changed("start") {
		start, ok := dates.Normalize(taskStart)
		if !ok {
			return upd, fmt.Errorf("invalid --start %q: %w", taskStart, dates.ErrInvalidDate)
		}
		upd.StartDate = &start
	}
	if flags.Changed("duration") {
		upd.Duration = &taskDuration
	}
	if flags.Changed("progress") {
		upd.Progress = &taskProgress
	}
	return upd, nil
}

func endDate(t models.Task) string {
	end, err := dates.AddDays(t.StartDate, t.Duration)
	if err != nil {
		return "?"
	}
	return end
}

func printTask(w io.Writer, t models.Task) {
	fmt.Fprintf(w, "  Title:    %s\n", t.Title)
	if t.Category != "" {
		fmt.Fprintf(w, "  Category: %s\n", t.Category)
	}
	if t.Assignee != "" {
		fmt.Fprintf(w, "  Assignee: %s\n", t.Assignee)
	}
	fmt.Fprintf(w, "  Schedule: %s .. %s (%d days)\n", t.StartDate, endDate(t), t.Duration)
	fmt.Fprintf(w, "  Progress: %d%%\n", t.Progress)
	if t.DelayReason != "" {
		fmt.Fprintf(w, "  Delay:    %s\n", t.DelayReason)
	}
}

func init() {
	taskAddCmd.Flags().StringVar(&taskCategory, "category", "", "WBS category (name or id)")
	taskAddCmd.Flags().StringVar(&taskAssignee, "assignee", "", "Assignee")
	taskAddCmd.Flags().StringVar(&taskStart, "start", "", "Start date (YYYY-MM-DD)")
	taskAddCmd.Flags().IntVar(&taskDuration, "duration", 1, "Duration in days")
	taskAddCmd.Flags().IntVar(&taskProgress, "progress", 0, "Progress percentage (0-100)")

	taskListCmd.Flags().StringVar(&taskCategory, "category", "", "Only list tasks in this category")
	taskListCmd.Flags().BoolVar(&taskJSON, "json", false, "Output tasks as JSON")

	taskSetCmd.Flags().StringVar(&taskTitle, "title", "", "New title")
	taskSetCmd.Flags().StringVar(&taskCategory, "category", "", "WBS category (name or id; empty clears)")
	taskSetCmd.Flags().StringVar(&taskAssignee, "assignee", "", "Assignee")
	taskSetCmd.Flags().StringVar(&taskStart, "start", "", "Start date (YYYY-MM-DD)")
	taskSetCmd.Flags().IntVar(&taskDuration, "duration", 1, "Duration in days")
	taskSetCmd.Flags().IntVar(&taskProgress, "progress", 0, "Progress percentage (0-100)")

	for _, cmd := range []*cobra.Command{taskAddCmd, taskListCmd, taskSetCmd} {
		_ = cmd.RegisterFlagCompletionFunc("category", completeCategories)
	}
	for _, cmd := range []*cobra.Command{taskSetCmd, taskMoveCmd, taskRmCmd} {
		cmd.ValidArgsFunction = completeTaskIDs
	}

	taskSetCmd.Flags().StringVar(&taskReason, "reason", "", "Delay reason, required when the end date moves later")
	taskMoveCmd.Flags().StringVar(&taskReason, "reason", "", "Delay reason, required when the end date moves later")

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskSetCmd, taskMoveCmd, taskRmCmd)
	rootCmd.AddCommand(taskCmd)
}
