package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/wbs-gantt/internal/observability"
)

var (
	alertsNotify      bool
	alertsMinSeverity string
)

var severityRank = map[observability.AlertSeverity]int{
	observability.SeverityLow:    0,
	observability.SeverityMedium: 1,
	observability.SeverityHigh:   2,
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show schedule-slip alerts",
	Long: `Evaluate alert conditions against the event log and display any triggered alerts.

Alerts fire for tasks delayed repeatedly within the window, for too many
confirmed delays across the project, and for stored dates that could not be
parsed. --min-severity hides anything below the given level. With --notify
the remaining alerts are also posted to the configured Slack webhook.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized (observability may be disabled)")
		}
		floor, ok := severityRank[observability.AlertSeverity(strings.ToLower(alertsMinSeverity))]
		if !ok {
			return fmt.Errorf("unknown severity %q (use low, medium, high)", alertsMinSeverity)
		}

		all, err := AlertEngine.Evaluate()
		if err != nil {
			return fmt.Errorf("evaluating alerts: %w", err)
		}
		var alerts []observability.Alert
		for _, a := range all {
			if severityRank[a.Severity] >= floor {
				alerts = append(alerts, a)
			}
		}

		out := cmd.OutOrStdout()
		if len(alerts) == 0 {
			fmt.Fprintln(out, "No active alerts.")
			return nil
		}
		printAlerts(out, alerts)

		if !alertsNotify {
			return nil
		}
		if Notifier == nil {
			return fmt.Errorf("notifier not configured (set notifications.enabled and notifications.slack.webhook_url)")
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := Notifier.Notify(ctx, alertDigest(alerts)); err != nil {
			return fmt.Errorf("sending notification: %w", err)
		}
		logger().Info("alerts posted", "count", len(alerts))
		fmt.Fprintln(out, "Notification sent.")
		return nil
	},
}

func printAlerts(w io.Writer, alerts []observability.Alert) {
	fmt.Fprintf(w, "%d active alert(s):\n\n", len(alerts))
	for _, a := range alerts {
		fmt.Fprintf(w, "  [%s] %s\n", strings.ToUpper(string(a.Severity)), a.Message)
		fmt.Fprintf(w, "         triggered at %s\n\n", a.TriggeredAt.UTC().Format("2006-01-02 15:04 UTC"))
	}
}

// alertDigest labels alerts with the loaded project, if any.
func alertDigest(alerts []observability.Alert) observability.Digest {
	d := observability.Digest{Alerts: alerts}
	if ProjectMgr != nil {
		if p := ProjectMgr.Snapshot(); p != nil {
			d.ProjectID, d.ProjectName = p.ID, p.Name
		}
	}
	return d
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsNotify, "notify", false, "Post alerts to the configured Slack webhook")
	alertsCmd.Flags().StringVar(&alertsMinSeverity, "min-severity", "low", "Hide alerts below this severity (low, medium, high)")
	_ = alertsCmd.RegisterFlagCompletionFunc("min-severity", cobra.FixedCompletions(
		[]string{"low", "medium", "high"}, cobra.ShellCompDirectiveNoFileComp))
	rootCmd.AddCommand(alertsCmd)
}
