package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var holidayCmd = &cobra.Command{
	Use:   "holiday",
	Short: "Manage project holidays",
	Long: `Holidays are shaded on the timeline. They do not change task durations,
which always count calendar days.`,
}

var holidayToggleCmd = &cobra.Command{
	Use:   "toggle <date>",
	Short: "Mark or unmark a date as a holiday",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		on, err := ProjectMgr.ToggleHoliday(args[0])
		if err != nil {
			return err
		}
		if err := ProjectMgr.Save(); err != nil {
			return fmt.Errorf("saving project: %w", err)
		}
		if on {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now a holiday\n", args[0])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is no longer a holiday\n", args[0])
		}
		return nil
	},
}

var holidayListCmd = &cobra.Command{
	Use:   "list",
	Short: "List holidays",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		holidays := ProjectMgr.Snapshot().Holidays
		if len(holidays) == 0 {
			fmt.Fprintln(out, "No holidays.")
			return nil
		}
		for _, h := range holidays {
			fmt.Fprintln(out, h)
		}
		return nil
	},
}

func init() {
	holidayToggleCmd.ValidArgsFunction = completeHolidays
	holidayCmd.AddCommand(holidayToggleCmd, holidayListCmd)
	rootCmd.AddCommand(holidayCmd)
}
