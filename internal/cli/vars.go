package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/valter-silva-au/wbs-gantt/internal/core"
	"github.com/valter-silva-au/wbs-gantt/internal/observability"
	"github.com/valter-silva-au/wbs-gantt/internal/storage"
	"github.com/valter-silva-au/wbs-gantt/internal/timeline"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// Schedule service instances, set during app initialization in app.go.
var (
	BasePath    string
	ProjectMgr  core.ProjectManager
	DragEngine  core.DragEngine
	ProjectFile storage.ProjectFileManager
	LogStore    storage.LogStore
	Identity    models.Identity
	TimelineCfg = models.DefaultTimelineConfig()
	Logger      *slog.Logger
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)

func requireProject() error {
	if ProjectMgr == nil {
		return fmt.Errorf("project manager not initialized")
	}
	return nil
}

func logger() *slog.Logger {
	if Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return Logger
}

func timelineOptions() timeline.Options {
	opts := timeline.OptionsFromConfig(TimelineCfg)
	opts.Logger = logger()
	return opts
}

// resolveView parses flag, falling back to the configured default view.
func resolveView(flag string) (timeline.ViewMode, error) {
	if flag == "" {
		flag = TimelineCfg.DefaultView
	}
	return timeline.ParseViewMode(flag)
}
