package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.LookbackMinutes != 70 {
		t.Errorf("lookback = %d, want 70", cfg.Pipeline.LookbackMinutes)
	}
	if len(cfg.Pipeline.Hubs) != 3 {
		t.Errorf("hubs = %d, want 3", len(cfg.Pipeline.Hubs))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  lookback_minutes: 30
  hubs:
    - node: TH_SP15_GEN-APND
      label: SP15
output:
  dir: /tmp/out
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.LookbackMinutes != 30 {
		t.Errorf("lookback = %d, want 30", cfg.Pipeline.LookbackMinutes)
	}
	if len(cfg.Pipeline.Hubs) != 1 {
		t.Errorf("hubs = %d, want 1", len(cfg.Pipeline.Hubs))
	}
	if cfg.Output.Dir != "/tmp/out" {
		t.Errorf("output dir = %q", cfg.Output.Dir)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"negative lookback", "pipeline:\n  lookback_minutes: -5\n"},
		{"hub without node", "pipeline:\n  lookback_minutes: 70\n  hubs:\n    - label: SP15\n"},
	}
	for _, tc := range cases {
		if _, err := Load(writeConfig(t, tc.content)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestNodesAndHubLabels(t *testing.T) {
	cfg := Default()
	nodes := cfg.Nodes()
	if len(nodes) != 3 || nodes[0] != "TH_SP15_GEN-APND" {
		t.Errorf("Nodes = %v", nodes)
	}
	labels := cfg.HubLabels()
	if labels["TH_ZP26_GEN-APND"] != "ZP26" {
		t.Errorf("labels = %v", labels)
	}
}
