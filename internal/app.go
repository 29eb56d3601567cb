// Package internal provides the App struct that wires all components of the
// WBS Gantt engine together and initializes the CLI layer.
package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/wbs-gantt/internal/cli"
	"github.com/valter-silva-au/wbs-gantt/internal/core"
	"github.com/valter-silva-au/wbs-gantt/internal/observability"
	"github.com/valter-silva-au/wbs-gantt/internal/storage"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// EventLogFileName is the schedule event log kept next to .ganttconfig.
const EventLogFileName = ".gantt_events.jsonl"

// App holds all service dependencies for the schedule engine.
type App struct {
	BasePath string
	Config   *models.GlobalConfig
	Logger   *slog.Logger

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Storage layer
	ProjectFile storage.ProjectFileManager
	LogStore    storage.LogStore

	// Core services
	IDGen      core.TaskIDGenerator
	ProjectMgr core.ProjectManager
	DragEngine core.DragEngine

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components. basePath is the directory holding
// .ganttconfig; relative storage paths resolve against it.
func NewApp(basePath string, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{BasePath: basePath, Logger: logger}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	globalCfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		logger.Warn("using default configuration", "error", err)
		globalCfg = core.DefaultGlobalConfig()
	}
	if err := app.ConfigMgr.ValidateConfig(globalCfg); err != nil {
		return nil, err
	}
	app.Config = globalCfg

	// --- Storage layer ---
	app.ProjectFile = storage.NewProjectFileManager(resolvePath(basePath, globalCfg.Storage.ProjectFile))
	if globalCfg.Storage.LogsFile != "" {
		app.LogStore = storage.NewLogStore(resolvePath(basePath, globalCfg.Storage.LogsFile))
	}

	// --- Observability ---
	app.EventLog, err = observability.NewJSONLEventLog(filepath.Join(basePath, EventLogFileName))
	if err != nil {
		// Non-fatal: disable observability if log can't be created.
		logger.Warn("event log disabled", "error", err)
		app.EventLog = nil
	}
	if app.EventLog != nil {
		thresholds := observability.DefaultAlertThresholds()
		alerts := globalCfg.Notifications.Alerts
		if alerts.RepeatedDelayCount > 0 {
			thresholds.RepeatedDelayCount = alerts.RepeatedDelayCount
		}
		if alerts.WindowDays > 0 {
			thresholds.WindowDays = alerts.WindowDays
		}
		if alerts.MaxDelaysInWindow > 0 {
			thresholds.MaxDelaysInWindow = alerts.MaxDelaysInWindow
		}
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, thresholds)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if globalCfg.Notifications.Enabled && globalCfg.Notifications.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(globalCfg.Notifications.Slack.WebhookURL)
	}

	// --- Core services ---
	var events core.EventLogger
	if app.EventLog != nil {
		events = &eventLogAdapter{log: app.EventLog}
	}
	app.IDGen = core.NewTaskIDGenerator("T", 0)
	app.ProjectMgr = core.NewProjectManager(app.ProjectFile, app.IDGen, events, logger)
	if err := app.ProjectMgr.Load(); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("loading project: %w", err)
	}
	app.DragEngine = core.NewDragEngine(app.ProjectMgr, events, logger)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.ProjectMgr = app.ProjectMgr
	cli.DragEngine = app.DragEngine
	cli.ProjectFile = app.ProjectFile
	cli.LogStore = app.LogStore
	cli.Identity = globalCfg.Identity
	cli.TimelineCfg = globalCfg.Timeline
	cli.Logger = logger

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the directory holding .ganttconfig. It checks
// the GANTT_HOME env var, then walks up from the current directory, then
// falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("GANTT_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

func resolvePath(basePath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	level := "INFO"
	if eventType == core.EventDateSubstituted {
		level = "WARN"
	}
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   level,
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}
