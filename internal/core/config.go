// Package core contains the scheduling logic of the WBS Gantt engine:
// the project manager, the drag-to-reschedule state machine, category
// rollups, weekly labor aggregation, and configuration loading.
package core

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/wbs-gantt/internal/timeline"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// ConfigFileName is the name of the global configuration file (YAML, no
// extension) looked up in the base path.
const ConfigFileName = ".ganttconfig"

// ConfigurationManager loads and validates .ganttconfig.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .ganttconfig from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		Identity: models.Identity{Role: models.RoleMember},
		Timeline: models.DefaultTimelineConfig(),
		Storage: models.StorageConfig{
			ProjectFile: "project.yaml",
			LogsFile:    "labor.jsonl",
		},
		Notifications: models.NotificationConfig{
			Alerts: models.AlertConfig{
				RepeatedDelayCount: 2,
				WindowDays:         7,
				MaxDelaysInWindow:  5,
			},
		},
	}
}

// LoadGlobalConfig reads .ganttconfig from the base path. A missing file
// yields the defaults. Any key can also be overridden through a GANTT_
// environment variable, e.g. GANTT_IDENTITY_USER.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("GANTT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("identity.user", cfg.Identity.UserID)
	v.SetDefault("identity.role", string(cfg.Identity.Role))
	v.SetDefault("timeline.lead_days", cfg.Timeline.LeadDays)
	v.SetDefault("timeline.tail_days", cfg.Timeline.TailDays)
	v.SetDefault("timeline.min_days", cfg.Timeline.MinDays)
	v.SetDefault("timeline.max_days", cfg.Timeline.MaxDays)
	v.SetDefault("timeline.sidebar_width", cfg.Timeline.SidebarWidth)
	v.SetDefault("timeline.default_view", cfg.Timeline.DefaultView)
	v.SetDefault("timeline.day_width", cfg.Timeline.DayWidth)
	v.SetDefault("timeline.week_width", cfg.Timeline.WeekWidth)
	v.SetDefault("timeline.month_width", cfg.Timeline.MonthWidth)
	v.SetDefault("timeline.min_width", cfg.Timeline.MinWidth)
	v.SetDefault("timeline.max_width", cfg.Timeline.MaxWidth)
	v.SetDefault("storage.project_file", cfg.Storage.ProjectFile)
	v.SetDefault("storage.logs_file", cfg.Storage.LogsFile)
	v.SetDefault("notifications.enabled", cfg.Notifications.Enabled)
	v.SetDefault("notifications.slack.webhook_url", "")
	v.SetDefault("notifications.alerts.repeated_delay_count", cfg.Notifications.Alerts.RepeatedDelayCount)
	v.SetDefault("notifications.alerts.window_days", cfg.Notifications.Alerts.WindowDays)
	v.SetDefault("notifications.alerts.max_delays_in_window", cfg.Notifications.Alerts.MaxDelaysInWindow)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ConfigFileName, err)
	}
	return cfg, nil
}

// ValidateConfig checks the configuration and reports every problem found.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	switch cfg.Identity.Role {
	case "", models.RoleAdmin, models.RoleMember:
	default:
		errs = append(errs, fmt.Sprintf("identity.role %q is invalid, must be one of: admin, member", cfg.Identity.Role))
	}

	tl := cfg.Timeline
	if tl.LeadDays < 0 {
		errs = append(errs, fmt.Sprintf("timeline.lead_days must be non-negative, got %d", tl.LeadDays))
	}
	if tl.TailDays < 0 {
		errs = append(errs, fmt.Sprintf("timeline.tail_days must be non-negative, got %d", tl.TailDays))
	}
	if tl.MinDays < 1 || tl.MaxDays < tl.MinDays {
		errs = append(errs, fmt.Sprintf("timeline.min_days/max_days must satisfy 1 <= min <= max, got %d/%d", tl.MinDays, tl.MaxDays))
	}
	if tl.SidebarWidth < 0 {
		errs = append(errs, fmt.Sprintf("timeline.sidebar_width must be non-negative, got %d", tl.SidebarWidth))
	}
	if tl.MinWidth < 1 || tl.MaxWidth < tl.MinWidth {
		errs = append(errs, fmt.Sprintf("timeline.min_width/max_width must satisfy 1 <= min <= max, got %d/%d", tl.MinWidth, tl.MaxWidth))
	}
	if _, err := timeline.ParseViewMode(tl.DefaultView); err != nil {
		errs = append(errs, fmt.Sprintf("timeline.default_view: %v", err))
	}

	if cfg.Storage.ProjectFile == "" {
		errs = append(errs, "storage.project_file must not be empty")
	}

	alerts := cfg.Notifications.Alerts
	if alerts.RepeatedDelayCount < 1 {
		errs = append(errs, fmt.Sprintf("notifications.alerts.repeated_delay_count must be at least 1, got %d", alerts.RepeatedDelayCount))
	}
	if alerts.WindowDays < 1 {
		errs = append(errs, fmt.Sprintf("notifications.alerts.window_days must be at least 1, got %d", alerts.WindowDays))
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL == "" {
		errs = append(errs, "notifications.slack.webhook_url is required when notifications are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
