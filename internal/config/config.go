package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the application configuration
type Config struct {
	Plugin        Plugin        `yaml:"plugin" toml:"plugin"`
	Library       Library       `yaml:"library" toml:"library"`
	Notifications Notifications `yaml:"notifications" toml:"notifications"`
	Journal       Journal       `yaml:"journal" toml:"journal"`
	Watch         Watch         `yaml:"watch" toml:"watch"`
	Logging       Logging       `yaml:"logging" toml:"logging"`
}

// Plugin holds the operator-facing classification switches
type Plugin struct {
	Enabled     bool `yaml:"enabled" toml:"enabled"`
	Notify      bool `yaml:"notify" toml:"notify"`
	YearClass   bool `yaml:"year_class" toml:"year_class"`
	ScoreClass  bool `yaml:"score_class" toml:"score_class"`
	SeriesClass bool `yaml:"series_class" toml:"series_class"`
}

// Library holds source and destination settings for organize and watch
type Library struct {
	SourceDirs   []string `yaml:"source_dirs" toml:"source_dirs"`
	TargetDir    string   `yaml:"target_dir" toml:"target_dir"`
	Extensions   []string `yaml:"extensions" toml:"extensions"`
	ExcludeDirs  []string `yaml:"exclude_dirs" toml:"exclude_dirs"`
	TransferMode string   `yaml:"transfer_mode" toml:"transfer_mode"`
	Workers      int      `yaml:"workers" toml:"workers"`
	UseNFO       bool     `yaml:"use_nfo" toml:"use_nfo"`
}

// Notifications holds ntfy delivery settings
type Notifications struct {
	NtfyTopic      string `yaml:"ntfy_topic" toml:"ntfy_topic"`
	RequestTimeout int    `yaml:"request_timeout" toml:"request_timeout"`
	MaxAttempts    int    `yaml:"max_attempts" toml:"max_attempts"`
}

// Journal holds transfer history settings
type Journal struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// Watch holds file watcher settings
type Watch struct {
	DebounceSeconds int  `yaml:"debounce_seconds" toml:"debounce_seconds"`
	Recursive       bool `yaml:"recursive" toml:"recursive"`
}

// Logging holds log output settings
type Logging struct {
	Format string `yaml:"format" toml:"format"`
	Level  string `yaml:"level" toml:"level"`
}

var transferModes = []string{"move", "copy", "link", "symlink"}

// Default returns the configuration used when no file overrides a value.
func Default() Config {
	return Config{
		Plugin: Plugin{
			Enabled: false,
			Notify:  true,
		},
		Library: Library{
			Extensions:   []string{".mkv", ".mp4", ".avi", ".m4v", ".mov", ".ts", ".iso"},
			TransferMode: "move",
			Workers:      4,
			UseNFO:       true,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			MaxAttempts:    3,
		},
		Journal: Journal{
			Enabled: true,
			Path:    "~/.local/share/multiclass/journal.db",
		},
		Watch: Watch{
			DebounceSeconds: 5,
			Recursive:       true,
		},
		Logging: Logging{
			Format: "text",
			Level:  "info",
		},
	}
}

// Load reads and parses the configuration file. YAML and TOML are both
// accepted; the extension decides which. Values absent from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	// Read the config file
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data, formatFor(expanded))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration content in the given format ("yaml" or
// "toml"), then normalizes and validates it.
func Parse(data []byte, format string) (*Config, error) {
	// Expand environment variables in the content
	expanded := []byte(os.ExpandEnv(string(data)))

	cfg := Default()
	switch format {
	case "toml":
		if err := toml.NewDecoder(bytes.NewReader(expanded)).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if !contains(transferModes, c.Library.TransferMode) {
		return fmt.Errorf("%w: library.transfer_mode %q must be one of %s", ErrInvalid, c.Library.TransferMode, strings.Join(transferModes, ", "))
	}
	if c.Library.Workers <= 0 {
		return fmt.Errorf("%w: library.workers must be positive", ErrInvalid)
	}
	if c.Notifications.RequestTimeout <= 0 {
		return fmt.Errorf("%w: notifications.request_timeout must be positive", ErrInvalid)
	}
	if c.Notifications.MaxAttempts <= 0 {
		return fmt.Errorf("%w: notifications.max_attempts must be positive", ErrInvalid)
	}
	if c.Watch.DebounceSeconds < 0 {
		return fmt.Errorf("%w: watch.debounce_seconds cannot be negative", ErrInvalid)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q must be text or json", ErrInvalid, c.Logging.Format)
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("%w: journal.path is required when the journal is enabled", ErrInvalid)
	}
	return nil
}

// ValidateLibrary checks the settings organize and watch need on top of
// Validate.
func (c *Config) ValidateLibrary() error {
	if len(c.Library.SourceDirs) == 0 {
		return fmt.Errorf("%w: at least one library.source_dirs entry is required", ErrInvalid)
	}
	if c.Library.TargetDir == "" {
		return fmt.Errorf("%w: library.target_dir is required", ErrInvalid)
	}
	return nil
}

func (c *Config) normalize() error {
	c.Library.TransferMode = strings.ToLower(strings.TrimSpace(c.Library.TransferMode))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)

	for i, ext := range c.Library.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Library.Extensions[i] = ext
	}

	var err error
	for i, dir := range c.Library.SourceDirs {
		if c.Library.SourceDirs[i], err = ExpandPath(dir); err != nil {
			return err
		}
	}
	if c.Library.TargetDir, err = ExpandPath(c.Library.TargetDir); err != nil {
		return err
	}
	if c.Journal.Path, err = ExpandPath(c.Journal.Path); err != nil {
		return err
	}
	return nil
}

// ExpandPath expands a leading ~ to the home directory and cleans the path.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	// Expand ~ to home directory if present
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Clean(path), nil
}

// DefaultPath is where the CLI looks when --config is not given.
func DefaultPath() string {
	return "~/.config/multiclass/config.yaml"
}

func formatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
