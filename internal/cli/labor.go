package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/wbs-gantt/internal/core"
	"github.com/valter-silva-au/wbs-gantt/internal/dates"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

var (
	laborWeek  string
	laborJSON  bool
	laborPlain bool

	laborDate     string
	laborEngineer string
	laborProject  string
	laborTask     string
	laborHours    float64
)

var laborCmd = &cobra.Command{
	Use:   "labor",
	Short: "Weekly labor grid for this project",
	Long: `Aggregate logged hours per engineer and day for the Monday-start week
containing --week (default today).

Log entries are matched to the project by id or name, case-insensitively.
Entries whose project field holds several words or a comma-separated list
match when any word equals the project id or any word of its name.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		if LogStore == nil {
			return fmt.Errorf("labor log store not initialized")
		}

		ref := dates.Today()
		if laborWeek != "" {
			d, ok := dates.Normalize(laborWeek)
			if !ok {
				return fmt.Errorf("invalid --week %q: %w", laborWeek, dates.ErrInvalidDate)
			}
			ref, _ = dates.ParseLocal(d)
		}

		logs, err := LogStore.ReadAll()
		if err != nil {
			return fmt.Errorf("reading labor logs: %w", err)
		}
		rep := core.WeeklyLabor(logs, ProjectMgr.Snapshot().Ref(), ref)

		out := cmd.OutOrStdout()
		if laborJSON {
			data, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting labor report as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}
		fmt.Fprint(out, renderLabor(rep, laborPlain))
		return nil
	},
}

var laborLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Append a labor entry",
	Long: `Append one labor entry to the log store. --project defaults to this
project's id.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if LogStore == nil {
			return fmt.Errorf("labor log store not initialized")
		}
		date := dates.Format(dates.Today())
		if laborDate != "" {
			d, ok := dates.Normalize(laborDate)
			if !ok {
				return fmt.Errorf("invalid --date %q: %w", laborDate, dates.ErrInvalidDate)
			}
			date = d
		}
		if strings.TrimSpace(laborEngineer) == "" {
			return fmt.Errorf("--engineer is required")
		}
		if laborHours <= 0 {
			return fmt.Errorf("--hours must be positive (got %v)", laborHours)
		}
		project := laborProject
		if project == "" {
			if ProjectMgr == nil {
				return fmt.Errorf("--project is required when no project is loaded")
			}
			project = ProjectMgr.Snapshot().ID
		}

		entry := models.LogEntry{
			Date:      date,
			Engineer:  strings.TrimSpace(laborEngineer),
			ProjectID: project,
			TaskID:    laborTask,
			Hours:     laborHours,
		}
		if err := LogStore.Append(entry); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged %.1fh for %s on %s (%s)\n", entry.Hours, entry.Engineer, entry.Date, entry.ProjectID)
		return nil
	},
}

func init() {
	laborCmd.Flags().StringVar(&laborWeek, "week", "", "Any date in the week to report (YYYY-MM-DD)")
	laborCmd.Flags().BoolVar(&laborJSON, "json", false, "Output the report as JSON")
	laborCmd.Flags().BoolVar(&laborPlain, "plain", false, "Disable colors")

	laborLogCmd.Flags().StringVar(&laborDate, "date", "", "Date worked (default today)")
	laborLogCmd.Flags().StringVar(&laborEngineer, "engineer", "", "Engineer name")
	laborLogCmd.Flags().StringVar(&laborProject, "project", "", "Project id or name")
	laborLogCmd.Flags().StringVar(&laborTask, "task", "", "Task id")
	laborLogCmd.Flags().Float64Var(&laborHours, "hours", 0, "Hours worked")

	laborCmd.AddCommand(laborLogCmd)
	rootCmd.AddCommand(laborCmd)
}
