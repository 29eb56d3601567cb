package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/wbs-gantt/internal/core"
)

var rollupJSON bool

var rollupCmd = &cobra.Command{
	Use:   "rollup [category]",
	Short: "Summarise categories: span and weighted progress",
	Long: `Compute the rollup of one category, or of every category when none is
given. The rollup spans from the earliest task start to the latest task end;
progress is weighted by task duration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}

		var names []string
		if len(args) == 1 {
			c, err := ProjectMgr.FindCategory(args[0])
			if err != nil {
				return fmt.Errorf("rolling up: %w", err)
			}
			names = []string{c.Name}
		} else {
			for _, c := range ProjectMgr.Categories() {
				names = append(names, c.Name)
			}
		}

		tasks := ProjectMgr.Tasks()
		summaries := make([]*core.RollupSummary, 0, len(names))
		for _, name := range names {
			if s := core.Rollup(tasks, name, logger()); s != nil {
				summaries = append(summaries, s)
			}
		}

		out := cmd.OutOrStdout()
		if rollupJSON {
			data, err := json.MarshalIndent(summaries, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting rollups as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(summaries) == 0 {
			fmt.Fprintln(out, "Nothing to roll up.")
			return nil
		}
		fmt.Fprintf(out, "%-24s %-10s %-10s %5s %5s %5s\n", "CATEGORY", "START", "END", "DAYS", "TASKS", "DONE")
		for _, s := range summaries {
			fmt.Fprintf(out, "%-24s %-10s %-10s %5d %5d %4d%%\n",
				truncate(s.Category, 24), s.Start, s.End, s.Duration, s.TaskCount, s.Progress)
		}
		return nil
	},
}

func init() {
	rollupCmd.Flags().BoolVar(&rollupJSON, "json", false, "Output rollups as JSON")
	rollupCmd.ValidArgsFunction = completeCategoryArg
	rootCmd.AddCommand(rollupCmd)
}
