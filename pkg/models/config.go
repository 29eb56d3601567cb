package models

// TimelineConfig controls the render window and zoom of the timeline.
type TimelineConfig struct {
	LeadDays     int    `yaml:"lead_days" mapstructure:"lead_days"`
	TailDays     int    `yaml:"tail_days" mapstructure:"tail_days"`
	MinDays      int    `yaml:"min_days" mapstructure:"min_days"`
	MaxDays      int    `yaml:"max_days" mapstructure:"max_days"`
	SidebarWidth int    `yaml:"sidebar_width" mapstructure:"sidebar_width"`
	DefaultView  string `yaml:"default_view" mapstructure:"default_view"`
	DayWidth     int    `yaml:"day_width" mapstructure:"day_width"`
	WeekWidth    int    `yaml:"week_width" mapstructure:"week_width"`
	MonthWidth   int    `yaml:"month_width" mapstructure:"month_width"`
	MinWidth     int    `yaml:"min_width" mapstructure:"min_width"`
	MaxWidth     int    `yaml:"max_width" mapstructure:"max_width"`
}

// DefaultTimelineConfig returns the standard render window and zoom presets.
func DefaultTimelineConfig() TimelineConfig {
	return TimelineConfig{
		LeadDays:     15,
		TailDays:     30,
		MinDays:      30,
		MaxDays:      3650,
		SidebarWidth: 240,
		DefaultView:  "day",
		DayWidth:     40,
		WeekWidth:    16,
		MonthWidth:   10,
		MinWidth:     10,
		MaxWidth:     200,
	}
}

// StorageConfig locates the project file and the labor log corpus. Relative
// paths are resolved against the base path.
type StorageConfig struct {
	ProjectFile string `yaml:"project_file" mapstructure:"project_file"`
	LogsFile    string `yaml:"logs_file" mapstructure:"logs_file"`
}

// AlertConfig holds thresholds for schedule-slip alerts.
type AlertConfig struct {
	RepeatedDelayCount int `yaml:"repeated_delay_count" mapstructure:"repeated_delay_count"`
	WindowDays         int `yaml:"window_days" mapstructure:"window_days"`
	MaxDelaysInWindow  int `yaml:"max_delays_in_window" mapstructure:"max_delays_in_window"`
}

// SlackConfig holds Slack webhook settings.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// NotificationConfig controls outbound alert notifications.
type NotificationConfig struct {
	Enabled bool        `yaml:"enabled" mapstructure:"enabled"`
	Slack   SlackConfig `yaml:"slack" mapstructure:"slack"`
	Alerts  AlertConfig `yaml:"alerts" mapstructure:"alerts"`
}

// GlobalConfig holds settings read from .ganttconfig via Viper.
type GlobalConfig struct {
	Identity      Identity           `yaml:"identity" mapstructure:"identity"`
	Timeline      TimelineConfig     `yaml:"timeline" mapstructure:"timeline"`
	Storage       StorageConfig      `yaml:"storage" mapstructure:"storage"`
	Notifications NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
}
