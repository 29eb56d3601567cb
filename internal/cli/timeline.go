package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/wbs-gantt/internal/dates"
	"github.com/valter-silva-au/wbs-gantt/internal/timeline"
)

var (
	timelineView  string
	timelinePlain bool
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Render the project as a Gantt chart",
	Long: `Render the project's WBS categories and tasks on a terminal timeline.

The render window starts a few days before the project start and extends past
the latest task end. Weekends, holidays and today's column are shaded.
Collapsed categories show a single rollup bar with weighted progress.

The --view flag selects the zoom: day, week, month, or a column width in
pixels (e.g. --view 24).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		mode, err := resolveView(timelineView)
		if err != nil {
			return err
		}

		p := ProjectMgr.Snapshot()
		g := timeline.Compute(p, mode, timelineOptions())

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s  %s .. %s  [%s, %dpx/day]\n\n",
			p.ID, p.Name, dates.Format(g.RenderStart), dates.Format(g.RenderEnd()), g.Mode, g.ColumnWidth)
		fmt.Fprint(out, renderTimeline(p, g, renderOptions{Plain: timelinePlain, Logger: logger()}))
		return nil
	},
}

func init() {
	timelineCmd.Flags().StringVar(&timelineView, "view", "", "Zoom level: day, week, month, or a column width")
	timelineCmd.Flags().BoolVar(&timelinePlain, "plain", false, "Disable colors")
	registerViewCompletion(timelineCmd)
	rootCmd.AddCommand(timelineCmd)
}
