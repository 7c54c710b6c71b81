package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultPluginSwitches(t *testing.T) {
	d := Default().Plugin
	if d.Enabled {
		t.Error("plugin must be disabled by default")
	}
	if !d.Notify {
		t.Error("notify must default to true")
	}
	if d.YearClass || d.ScoreClass || d.SeriesClass {
		t.Error("classification axes must default to off")
	}
	if d.AnyRuleEnabled() {
		t.Error("AnyRuleEnabled should be false by default")
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MULTICLASS_TARGET", filepath.Join(dir, "library"))
	path := filepath.Join(dir, "config.yaml")
	content := `
plugin:
  enabled: true
  year_class: true
  score_class: true
library:
  source_dirs: ["` + filepath.Join(dir, "incoming") + `"]
  target_dir: ${MULTICLASS_TARGET}
  extensions: ["MKV", ".Mp4"]
  transfer_mode: Copy
logging:
  format: JSON
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if !cfg.Plugin.Enabled || !cfg.Plugin.YearClass || !cfg.Plugin.ScoreClass || cfg.Plugin.SeriesClass {
		t.Errorf("unexpected plugin switches: %+v", cfg.Plugin)
	}
	if !cfg.Plugin.Notify {
		t.Error("notify should keep its default when absent from the file")
	}
	if cfg.Library.TargetDir != filepath.Join(dir, "library") {
		t.Errorf("env var not expanded in target_dir: %q", cfg.Library.TargetDir)
	}
	if cfg.Library.TransferMode != "copy" {
		t.Errorf("transfer mode not normalized: %q", cfg.Library.TransferMode)
	}
	if got := strings.Join(cfg.Library.Extensions, ","); got != ".mkv,.mp4" {
		t.Errorf("extensions not normalized: %q", got)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("logging format not normalized: %q", cfg.Logging.Format)
	}
	if cfg.Library.Workers != 4 {
		t.Errorf("workers default lost: %d", cfg.Library.Workers)
	}

	rules := cfg.Plugin.Rules()
	if !rules.YearClass || !rules.ScoreClass || rules.SeriesClass {
		t.Errorf("Rules() = %+v", rules)
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "multiclass.toml")
	content := `
[plugin]
enabled = true
notify = false
series_class = true

[library]
target_dir = "/srv/movies"
workers = 2

[notifications]
ntfy_topic = " https://ntfy.example/topic "
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.Plugin.Enabled || cfg.Plugin.Notify || !cfg.Plugin.SeriesClass {
		t.Errorf("unexpected plugin switches: %+v", cfg.Plugin)
	}
	if cfg.Library.Workers != 2 {
		t.Errorf("workers = %d, want 2", cfg.Library.Workers)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/topic" {
		t.Errorf("ntfy topic not trimmed: %q", cfg.Notifications.NtfyTopic)
	}
}

func TestLoadExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "config.yaml")
	if err := os.WriteFile(path, []byte("journal:\n  path: ~/state/journal.db\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load("~/config.yaml")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Journal.Path != filepath.Join(home, "state", "journal.db") {
		t.Errorf("journal path = %q", cfg.Journal.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"transfer mode", func(c *Config) { c.Library.TransferMode = "teleport" }},
		{"workers", func(c *Config) { c.Library.Workers = 0 }},
		{"request timeout", func(c *Config) { c.Notifications.RequestTimeout = 0 }},
		{"max attempts", func(c *Config) { c.Notifications.MaxAttempts = -1 }},
		{"debounce", func(c *Config) { c.Watch.DebounceSeconds = -5 }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"journal path", func(c *Config) { c.Journal.Path = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("error %v does not wrap ErrInvalid", err)
			}
		})
	}

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if err := cfg.ValidateLibrary(); err == nil {
		t.Fatal("expected library validation to require source and target dirs")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if cfg.Plugin.Enabled {
		t.Error("sample config should ship with the plugin disabled")
	}
	if err := CreateSample(path); err == nil {
		t.Error("CreateSample should refuse to overwrite")
	}
}

func TestSchemaMatchesDefaults(t *testing.T) {
	schema := Schema()
	want := map[string]bool{"enabled": false, "notify": true, "year_class": false, "score_class": false, "series_class": false}
	if len(schema.Fields) != len(want) {
		t.Fatalf("schema has %d fields, want %d", len(schema.Fields), len(want))
	}
	for _, f := range schema.Fields {
		def, ok := want[f.Model]
		if !ok {
			t.Errorf("unexpected field %q", f.Model)
			continue
		}
		if f.Default != def {
			t.Errorf("field %q default = %v, want %v", f.Model, f.Default, def)
		}
	}

	out, err := yaml.Marshal(schema)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	if !strings.Contains(string(out), "按照系列分类") {
		t.Errorf("schema yaml missing series label:\n%s", out)
	}
}
