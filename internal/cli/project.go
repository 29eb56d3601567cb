package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/wbs-gantt/internal/storage"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Show or edit project settings (show, set, export, convert)",
}

var (
	projectID      string
	projectName    string
	projectManager string
	projectStart   string
	projectEnd     string
)

var projectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show project details",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		p := ProjectMgr.Snapshot()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Project:    %s %s\n", p.ID, p.Name)
		if p.ManagerID != "" {
			fmt.Fprintf(out, "Manager:    %s\n", p.ManagerID)
		}
		fmt.Fprintf(out, "Start:      %s\n", p.StartDate)
		if p.EndDate != "" {
			fmt.Fprintf(out, "End:        %s\n", p.EndDate)
		}
		fmt.Fprintf(out, "Categories: %d\n", len(p.Categories))
		fmt.Fprintf(out, "Tasks:      %d\n", len(p.Tasks))
		fmt.Fprintf(out, "Holidays:   %d\n", len(p.Holidays))
		if ProjectFile != nil {
			fmt.Fprintf(out, "File:       %s (%s)\n", ProjectFile.Path(), ProjectFile.Format())
		}
		editable := "no"
		if Identity.CanEdit(p) {
			editable = "yes"
		}
		fmt.Fprintf(out, "You:        %s (%s), can reschedule: %s\n", Identity.UserID, Identity.Role, editable)
		return nil
	},
}

var projectSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update project id, name, manager or schedule",
	Long: `Update project settings. Only the flags given are changed.

--end "" clears the project end date.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		flags := cmd.Flags()
		if !flags.Changed("id") && !flags.Changed("name") && !flags.Changed("manager") &&
			!flags.Changed("start") && !flags.Changed("end") {
			return fmt.Errorf("nothing to update: pass at least one of --id, --name, --manager, --start, --end")
		}

		if flags.Changed("start") || flags.Changed("end") {
			end := ProjectMgr.Snapshot().EndDate
			if flags.Changed("end") {
				end = projectEnd
			}
			start := ""
			if flags.Changed("start") {
				start = projectStart
			}
			if err := ProjectMgr.SetSchedule(start, end); err != nil {
				return err
			}
		}
		ProjectMgr.SetInfo(projectID, projectName, projectManager)

		if err := ProjectMgr.Save(); err != nil {
			return fmt.Errorf("saving project: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Project updated.")
		return nil
	},
}

var projectExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Write the project to another file (.yaml or .cbor)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		dst := storage.NewProjectFileManager(args[0])
		if err := dst.Save(ProjectMgr.Snapshot()); err != nil {
			return fmt.Errorf("exporting project: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported project to %s (%s)\n", dst.Path(), dst.Format())
		return nil
	},
}

var projectConvertCmd = &cobra.Command{
	Use:   "convert <src> <dst>",
	Short: "Convert a project file between YAML and CBOR",
	Long: `Convert a project file. The format of each side is chosen by its
extension: .cbor is CBOR, anything else is YAML.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := storage.ConvertProjectFile(args[0], args[1]); err != nil {
			return fmt.Errorf("converting project file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Converted %s -> %s (%s)\n",
			filepath.Base(args[0]), filepath.Base(args[1]), storage.FormatFor(args[1]))
		return nil
	},
}

func init() {
	projectSetCmd.Flags().StringVar(&projectID, "id", "", "Project id")
	projectSetCmd.Flags().StringVar(&projectName, "name", "", "Project name")
	projectSetCmd.Flags().StringVar(&projectManager, "manager", "", "User id of the project manager")
	projectSetCmd.Flags().StringVar(&projectStart, "start", "", "Project start date (YYYY-MM-DD)")
	projectSetCmd.Flags().StringVar(&projectEnd, "end", "", "Project end date (YYYY-MM-DD)")

	projectCmd.AddCommand(projectShowCmd, projectSetCmd, projectExportCmd, projectConvertCmd)
	rootCmd.AddCommand(projectCmd)
}
