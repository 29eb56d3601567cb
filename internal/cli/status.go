package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/wbs-gantt/internal/dates"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// scheduleStatus is the derived state of a task relative to today.
type scheduleStatus string

const (
	statusDelayed    scheduleStatus = "delayed"
	statusOverdue    scheduleStatus = "overdue"
	statusInProgress scheduleStatus = "in_progress"
	statusNotStarted scheduleStatus = "not_started"
	statusDone       scheduleStatus = "done"
)

// statusOrder is the display order; attention-worthy groups come first.
var statusOrder = []scheduleStatus{statusDelayed, statusOverdue, statusInProgress, statusNotStarted, statusDone}

// statusToday is swapped in tests.
var statusToday = dates.Today

var statusFilter string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display tasks grouped by schedule status",
	Long: `Display all tasks grouped by where they stand against today.

Each task falls into the first group that matches:
  done         progress is 100%
  delayed      a delay reason has been recorded
  overdue      the end date has passed
  in_progress  some progress has been reported
  not_started  everything else

Optionally show a single group using --filter (e.g. --filter overdue).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		if statusFilter != "" && !validStatus(scheduleStatus(statusFilter)) {
			return fmt.Errorf("unknown status %q (use %s)", statusFilter, joinStatuses())
		}

		tasks := ProjectMgr.Tasks()
		out := cmd.OutOrStdout()
		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks found.")
			return nil
		}

		today := dates.Format(statusToday())
		grouped := make(map[scheduleStatus][]models.Task)
		for _, t := range tasks {
			s := classify(t, today)
			grouped[s] = append(grouped[s], t)
		}

		if statusFilter != "" {
			printStatusGroup(out, scheduleStatus(statusFilter), grouped[scheduleStatus(statusFilter)])
			return nil
		}
		for _, s := range statusOrder {
			if group := grouped[s]; len(group) > 0 {
				printStatusGroup(out, s, group)
				fmt.Fprintln(out)
			}
		}
		return nil
	},
}

// classify places t in a status group as of today (YYYY-MM-DD).
func classify(t models.Task, today string) scheduleStatus {
	switch {
	case t.Progress >= 100:
		return statusDone
	case t.DelayReason != "":
		return statusDelayed
	case endDate(t) != "?" && endDate(t) < today:
		return statusOverdue
	case t.Progress > 0:
		return statusInProgress
	default:
		return statusNotStarted
	}
}

func validStatus(s scheduleStatus) bool {
	for _, v := range statusOrder {
		if v == s {
			return true
		}
	}
	return false
}

func joinStatuses() string {
	names := make([]string, len(statusOrder))
	for i, s := range statusOrder {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// printStatusGroup prints a table of tasks under a status heading.
func printStatusGroup(w io.Writer, status scheduleStatus, tasks []models.Task) {
	fmt.Fprintf(w, "== %s (%d) ==\n", strings.ToUpper(string(status)), len(tasks))
	fmt.Fprintf(w, "  %-8s %-12s %-10s %-10s %5s  %s\n", "ID", "CATEGORY", "START", "END", "DONE", "TITLE")
	fmt.Fprintf(w, "  %-8s %-12s %-10s %-10s %5s  %s\n", "--", "--------", "-----", "---", "----", "-----")
	for _, t := range tasks {
		fmt.Fprintf(w, "  %-8s %-12s %-10s %-10s %4d%%  %s\n",
			t.ID, truncate(t.Category, 12), t.StartDate, endDate(t), t.Progress, t.Title)
	}
}

func init() {
	statusCmd.Flags().StringVar(&statusFilter, "filter", "", "Show one group ("+joinStatuses()+")")
	_ = statusCmd.RegisterFlagCompletionFunc("filter", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, len(statusOrder))
		for i, s := range statusOrder {
			names[i] = string(s)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	rootCmd.AddCommand(statusCmd)
}
