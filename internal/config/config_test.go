package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonesrussell/intent-engine/internal/config"
	"github.com/jonesrussell/intent-engine/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, "service:\n  name: intent-engine\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.Port != 8085 {
		t.Errorf("expected default port 8085, got %d", cfg.Service.Port)
	}
	if cfg.Service.Concurrency != 8 {
		t.Errorf("expected default concurrency 8, got %d", cfg.Service.Concurrency)
	}
	if cfg.Service.TopSignalsLimit != 10 {
		t.Errorf("expected default top signals limit 10, got %d", cfg.Service.TopSignalsLimit)
	}
	if cfg.Scoring.NewsConfidence != 0.9 || cfg.Scoring.SocialConfidence != 0.7 || cfg.Scoring.JobConfidence != 0.6 {
		t.Errorf("unexpected confidence priors: %+v", cfg.Scoring)
	}
	if cfg.Scoring.EngagementThreshold != 20 {
		t.Errorf("expected engagement threshold 20, got %v", cfg.Scoring.EngagementThreshold)
	}
	if len(cfg.Scoring.BuyingIntentKeywords) == 0 {
		t.Error("expected default buying-intent keywords")
	}
	if len(cfg.Rules) != 4 {
		t.Errorf("expected 4 default rules, got %d", len(cfg.Rules))
	}
	last := cfg.Rules[len(cfg.Rules)-1]
	if !last.Fallback() || last.Action != domain.ActionMonitorOnly {
		t.Error("default rule set must end with the unconditional monitor rule")
	}
}

func TestLoadConfig_RulesFromYAML(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, `
rules:
  - name: custom_high
    priority_rank: 90
    action: add_to_priority_queue
    enabled: true
    conditions:
      - field: signal_strength
        comparator: ">="
        threshold: 5
  - name: catchall
    priority_rank: 0
    action: monitor_only
    enabled: true
    conditions: []
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Rules) != 2 {
		t.Fatalf("expected 2 configured rules, got %d", len(cfg.Rules))
	}
	rule := cfg.Rules[0]
	if rule.Name != "custom_high" || rule.Action != domain.ActionPriorityQueue {
		t.Errorf("unexpected rule: %+v", rule)
	}
	if len(rule.Conditions) != 1 || rule.Conditions[0].Comparator != domain.OpGTE {
		t.Errorf("unexpected conditions: %+v", rule.Conditions)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ENGINE_PORT", "9999")
	t.Setenv("ENGINE_DB_PATH", "/tmp/override.db")

	cfg, err := config.LoadConfig(writeConfig(t, "service:\n  port: 8085\ndatabase:\n  path: engine.db\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.Port != 9999 {
		t.Errorf("expected env override port 9999, got %d", cfg.Service.Port)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("expected env override path, got %q", cfg.Database.Path)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	if got := config.GetConfigPath("config.yml"); got != "config.yml" {
		t.Errorf("expected default path, got %q", got)
	}

	t.Setenv("CONFIG_PATH", "/etc/engine/config.yml")
	if got := config.GetConfigPath("config.yml"); got != "/etc/engine/config.yml" {
		t.Errorf("expected env path, got %q", got)
	}
}
