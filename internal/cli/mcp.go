package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	ganttmcp "github.com/valter-silva-au/wbs-gantt/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the gantt MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gantt MCP server on stdio",
	Long: `Start the gantt MCP server on stdio transport.

The server exposes the schedule as MCP tools that AI assistants can call:
list_tasks, get_geometry, rollup_category, weekly_labor, reschedule_task,
get_metrics, get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		if DragEngine == nil {
			return fmt.Errorf("drag engine not initialized")
		}

		deps := ganttmcp.Deps{
			Projects:    ProjectMgr,
			Drag:        DragEngine,
			MetricsCalc: MetricsCalc,
			AlertEngine: AlertEngine,
			Identity:    Identity,
			Timeline:    timelineOptions(),
			Logger:      logger(),
		}
		if LogStore != nil {
			deps.Logs = LogStore
		}
		srv := ganttmcp.NewServer(deps, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
