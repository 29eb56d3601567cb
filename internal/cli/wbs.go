package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/wbs-gantt/internal/core"
)

var wbsCmd = &cobra.Command{
	Use:   "wbs",
	Short: "Manage WBS categories (add, rename, rm, collapse, list)",
	Long: `Work breakdown structure commands.

Categories group tasks on the timeline. Tasks reference a category by name,
so renaming a category rewrites every task that uses it. A collapsed category
is drawn as a single rollup bar.`,
}

var (
	wbsCascade bool
	wbsExpand  bool
)

var wbsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		c, err := ProjectMgr.AddCategory(args[0])
		if err != nil {
			return err
		}
		if err := ProjectMgr.Save(); err != nil {
			return fmt.Errorf("saving project: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added category %q (%s)\n", c.Name, c.ID)
		return nil
	},
}

var wbsRenameCmd = &cobra.Command{
	Use:   "rename <category> <new-name>",
	Short: "Rename a category and every task that references it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		c, err := ProjectMgr.FindCategory(args[0])
		if err != nil {
			return fmt.Errorf("renaming category: %w", err)
		}
		n, err := ProjectMgr.RenameCategory(c.ID, args[1])
		if err != nil {
			return err
		}
		if err := ProjectMgr.Save(); err != nil {
			return fmt.Errorf("saving project: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q (%d task(s) updated)\n", c.Name, args[1], n)
		return nil
	},
}

var wbsRmCmd = &cobra.Command{
	Use:     "rm <category>",
	Aliases: []string{"remove"},
	Short:   "Delete a category",
	Long: `Delete a category.

By default the category's tasks are kept and become uncategorized. With
--cascade they are deleted along with the category.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		c, err := ProjectMgr.FindCategory(args[0])
		if err != nil {
			return fmt.Errorf("deleting category: %w", err)
		}
		policy := core.DeleteOrphan
		if wbsCascade {
			policy = core.DeleteCascade
		}
		n, err := ProjectMgr.DeleteCategory(c.ID, policy)
		if err != nil {
			return err
		}
		if err := ProjectMgr.Save(); err != nil {
			return fmt.Errorf("saving project: %w", err)
		}

		out := cmd.OutOrStdout()
		if policy == core.DeleteCascade {
			fmt.Fprintf(out, "Deleted category %q and %d task(s)\n", c.Name, n)
		} else {
			fmt.Fprintf(out, "Deleted category %q (%d task(s) now uncategorized)\n", c.Name, n)
		}
		return nil
	},
}

var wbsCollapseCmd = &cobra.Command{
	Use:   "collapse <category>",
	Short: "Collapse a category into a rollup bar (--expand to undo)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		c, err := ProjectMgr.FindCategory(args[0])
		if err != nil {
			return fmt.Errorf("collapsing category: %w", err)
		}
		if err := ProjectMgr.SetCollapsed(c.ID, !wbsExpand); err != nil {
			return err
		}
		if err := ProjectMgr.Save(); err != nil {
			return fmt.Errorf("saving project: %w", err)
		}
		state := "Collapsed"
		if wbsExpand {
			state = "Expanded"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s category %q\n", state, c.Name)
		return nil
	},
}

var wbsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories with task counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		cats := ProjectMgr.Categories()
		if len(cats) == 0 {
			fmt.Fprintln(out, "No categories.")
			return nil
		}

		counts := make(map[string]int)
		for _, t := range ProjectMgr.Tasks() {
			counts[t.Category]++
		}
		fmt.Fprintf(out, "%-36s %-24s %5s  %s\n", "ID", "NAME", "TASKS", "STATE")
		for _, c := range cats {
			state := "expanded"
			if c.Collapsed {
				state = "collapsed"
			}
			fmt.Fprintf(out, "%-36s %-24s %5d  %s\n", c.ID, truncate(c.Name, 24), counts[c.Name], state)
		}
		if n := counts[""]; n > 0 {
			fmt.Fprintf(out, "\n%d uncategorized task(s)\n", n)
		}
		return nil
	},
}

func init() {
	wbsRmCmd.Flags().BoolVar(&wbsCascade, "cascade", false, "Also delete the category's tasks")
	wbsCollapseCmd.Flags().BoolVar(&wbsExpand, "expand", false, "Expand instead of collapse")

	for _, cmd := range []*cobra.Command{wbsRenameCmd, wbsRmCmd, wbsCollapseCmd} {
		cmd.ValidArgsFunction = completeCategoryArg
	}

	wbsCmd.AddCommand(wbsAddCmd, wbsRenameCmd, wbsRmCmd, wbsCollapseCmd, wbsListCmd)
	rootCmd.AddCommand(wbsCmd)
}
