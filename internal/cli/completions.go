package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/wbs-gantt/internal/dates"
)

// completeTaskIDs lists task ids for the first positional argument, with the
// title and start date as the description.
func completeTaskIDs(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if ProjectMgr == nil || len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var ids []string
	for _, t := range ProjectMgr.Tasks() {
		if toComplete == "" || strings.HasPrefix(t.ID, toComplete) {
			ids = append(ids, t.ID+"\t"+t.Title+" ("+t.StartDate+")")
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completeCategories lists WBS category names. Names are matched
// case-insensitively so "des" completes to "Design".
func completeCategories(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if ProjectMgr == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	prefix := strings.ToLower(toComplete)
	var names []string
	for _, c := range ProjectMgr.Categories() {
		if strings.HasPrefix(strings.ToLower(c.Name), prefix) {
			names = append(names, c.Name+"\t"+c.ID)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeCategoryArg completes only the first positional argument.
func completeCategoryArg(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return completeCategories(cmd, args, toComplete)
}

// completeViews returns the zoom presets accepted by --view.
func completeViews(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	cfg := TimelineCfg
	return []string{
		fmt.Sprintf("day\t%dpx per day", cfg.DayWidth),
		fmt.Sprintf("week\t%dpx per day", cfg.WeekWidth),
		fmt.Sprintf("month\t%dpx per day", cfg.MonthWidth),
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeHolidays suggests the project's existing holidays, which toggle
// off, and today, which toggles on.
func completeHolidays(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if ProjectMgr == nil || len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	out := []string{dates.Format(dates.Today()) + "\ttoday"}
	for _, h := range ProjectMgr.Snapshot().Holidays {
		out = append(out, h+"\tholiday")
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// registerViewCompletion attaches preset completion to a command's --view flag.
func registerViewCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("view", completeViews)
}
