package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/wbs-gantt/internal/core"
	"github.com/valter-silva-au/wbs-gantt/internal/observability"
)

var (
	historySince string
	historyType  string
	historyLevel string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history [task-id]",
	Short: "Show the schedule event log",
	Long: `Show recorded schedule events, oldest first.

With a task id only events for that task are shown. Use --type to pick one
event type (e.g. task.delay_confirmed) and --level WARN to list only warnings
such as substituted dates. --limit keeps the newest N events.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeTaskIDs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized (observability may be disabled)")
		}
		since, err := parseSinceDuration(historySince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		filter := observability.EventFilter{
			Since: &since,
			Type:  historyType,
			Level: strings.ToUpper(historyLevel),
		}
		if len(args) == 1 {
			filter.TaskID = args[0]
		}
		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading events: %w", err)
		}
		if historyLimit > 0 && len(events) > historyLimit {
			events = events[len(events)-historyLimit:]
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No events found.")
			return nil
		}
		for _, e := range events {
			printEvent(out, e)
		}
		return nil
	},
}

// printEvent writes one event as a line with its data as sorted key=value
// pairs.
func printEvent(w io.Writer, e observability.Event) {
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%v", k, e.Data[k])
	}
	fmt.Fprintf(w, "%s %-5s %-22s %s\n",
		e.Time.UTC().Format(time.RFC3339), e.Level, e.Type, strings.Join(pairs, " "))
}

func init() {
	historyCmd.Flags().StringVar(&historySince, "since", "30d", "Time window (e.g. 7d, 30d, 24h)")
	historyCmd.Flags().StringVar(&historyType, "type", "", "Only show events of this type")
	historyCmd.Flags().StringVar(&historyLevel, "level", "", "Only show events at this level (INFO, WARN, ERROR)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Keep only the newest N events (0 for all)")
	_ = historyCmd.RegisterFlagCompletionFunc("type", cobra.FixedCompletions([]string{
		core.EventTaskCreated, core.EventTaskUpdated, core.EventTaskRemoved,
		core.EventTaskRescheduled, core.EventDelayConfirmed, core.EventDelayDiscarded,
		core.EventDragAborted, core.EventCategoryRenamed, core.EventCategoryDeleted,
		core.EventCategoryCollapsed, core.EventHolidayToggled, core.EventDateSubstituted,
	}, cobra.ShellCompDirectiveNoFileComp))
	_ = historyCmd.RegisterFlagCompletionFunc("level", cobra.FixedCompletions(
		[]string{observability.LevelInfo, observability.LevelWarn, observability.LevelError}, cobra.ShellCompDirectiveNoFileComp))
	rootCmd.AddCommand(historyCmd)
}
