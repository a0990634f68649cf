package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the engine home and workspace.
const FileName = "codenav.yaml"

// Config holds all configuration for the navigation engine.
type Config struct {
	Languages        []string            `yaml:"languages"`
	IncludePaths     []string            `yaml:"include_paths"`
	TransparentKinds map[string][]string `yaml:"transparent_kinds"` // language -> extra unexposed kinds
	Preload          PreloadConfig       `yaml:"preload"`
	Session          SessionConfig       `yaml:"session"`
	Logging          LoggingConfig       `yaml:"logging"`
}

// PreloadConfig selects workspace files parsed into the unit cache up front,
// so that cross-unit lookups have something to search.
type PreloadConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Includes  []string `yaml:"includes"`
	Excludes  []string `yaml:"excludes"`
	Gitignore bool     `yaml:"gitignore"` // also skip files matched by .gitignore
	MaxFiles  int      `yaml:"max_files"`
}

// SessionConfig controls the sqlite session store.
type SessionConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Path         string `yaml:"path"`    // relative paths are resolved against the engine home
	Restore      bool   `yaml:"restore"` // re-load remembered units on startup
	HistoryLimit int    `yaml:"history_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Debug    bool `yaml:"debug"`
	Warnings bool `yaml:"warnings"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Languages:        []string{"c", "cpp", "go", "python", "javascript", "typescript", "lua"},
		IncludePaths:     []string{},
		TransparentKinds: map[string][]string{},
		Preload: PreloadConfig{
			Enabled:   false,
			Includes:  []string{"**/*.c", "**/*.cc", "**/*.cpp", "**/*.cxx", "**/*.go", "**/*.py", "**/*.js", "**/*.ts", "**/*.lua"},
			Excludes:  []string{"**/node_modules/**", "**/vendor/**", "**/.git/**", "**/build/**", "**/dist/**", "**/__pycache__/**"},
			Gitignore: true,
			MaxFiles:  2000,
		},
		Session: SessionConfig{
			Enabled:      true,
			Path:         "session.db",
			Restore:      false,
			HistoryLimit: 200,
		},
		Logging: LoggingConfig{
			Debug:    false,
			Warnings: true,
		},
	}
}

// Load loads configuration from a YAML file on top of the defaults. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads codenav.yaml from dir, falling back to .codenav/config.yaml
// and then to the defaults.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".codenav", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SessionPath returns the session database path for an engine rooted at home.
func (c *Config) SessionPath(home string) string {
	if c.Session.Path == "" || c.Session.Path == ":memory:" {
		return c.Session.Path
	}
	if filepath.IsAbs(c.Session.Path) {
		return c.Session.Path
	}
	return filepath.Join(home, c.Session.Path)
}
