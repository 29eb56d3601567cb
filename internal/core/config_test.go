package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadGlobalConfig_Defaults_WhenNoFile(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())

	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Timeline != models.DefaultTimelineConfig() {
		t.Errorf("Timeline = %+v, want defaults", cfg.Timeline)
	}
	if cfg.Storage.ProjectFile != "project.yaml" {
		t.Errorf("ProjectFile = %q", cfg.Storage.ProjectFile)
	}
	if cfg.Identity.Role != models.RoleMember {
		t.Errorf("Role = %q, want member", cfg.Identity.Role)
	}
	if err := cm.ValidateConfig(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadGlobalConfig_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
identity:
  user: mgr
  role: admin
timeline:
  lead_days: 7
  sidebar_width: 320
  default_view: week
  week_width: 20
storage:
  project_file: plan.cbor
notifications:
  enabled: true
  slack:
    webhook_url: https://hooks.example.com/x
  alerts:
    repeated_delay_count: 3
`)

	cm := NewConfigurationManager(dir)
	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Identity.UserID != "mgr" || cfg.Identity.Role != models.RoleAdmin {
		t.Errorf("Identity = %+v", cfg.Identity)
	}
	if cfg.Timeline.LeadDays != 7 || cfg.Timeline.SidebarWidth != 320 || cfg.Timeline.WeekWidth != 20 {
		t.Errorf("Timeline = %+v", cfg.Timeline)
	}
	if cfg.Timeline.TailDays != 30 {
		t.Errorf("unset key lost its default: TailDays = %d", cfg.Timeline.TailDays)
	}
	if cfg.Storage.ProjectFile != "plan.cbor" || cfg.Storage.LogsFile != "labor.jsonl" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if !cfg.Notifications.Enabled || cfg.Notifications.Slack.WebhookURL == "" {
		t.Errorf("Notifications = %+v", cfg.Notifications)
	}
	if cfg.Notifications.Alerts.RepeatedDelayCount != 3 || cfg.Notifications.Alerts.WindowDays != 7 {
		t.Errorf("Alerts = %+v", cfg.Notifications.Alerts)
	}
}

func TestLoadGlobalConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "identity:\n  user: alice\n")
	t.Setenv("GANTT_IDENTITY_USER", "bob")

	cfg, err := NewConfigurationManager(dir).LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Identity.UserID != "bob" {
		t.Errorf("UserID = %q, want env override", cfg.Identity.UserID)
	}
}

func TestLoadGlobalConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "timeline: [unclosed")

	if _, err := NewConfigurationManager(dir).LoadGlobalConfig(); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestValidateConfig_ReportsEveryProblem(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	cfg := DefaultGlobalConfig()
	cfg.Identity.Role = "owner"
	cfg.Timeline.MinWidth = 300
	cfg.Timeline.DefaultView = "fortnight"
	cfg.Storage.ProjectFile = ""
	cfg.Notifications.Enabled = true

	err := cm.ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"identity.role",
		"timeline.min_width",
		"timeline.default_view",
		"storage.project_file",
		"notifications.slack.webhook_url",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %s:\n%v", want, err)
		}
	}
}

func TestValidateConfig_Nil(t *testing.T) {
	if err := NewConfigurationManager("").ValidateConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}
