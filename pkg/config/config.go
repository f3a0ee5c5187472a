package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "schedule"
	configFile = "config.yaml"

	DefaultCalendar      = "Tasks"
	DefaultLogLevel      = "info"
	DefaultMaxGroupTasks = 5
)

type Config struct {
	DBPath   string `yaml:"db_path"`
	Calendar string `yaml:"calendar"`
	LogLevel string `yaml:"log_level"`
	// MaxGroupTasks caps the tasks of one group; 0 means unlimited.
	MaxGroupTasks *int `yaml:"max_group_tasks,omitempty"`
}

func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Default returns the configuration used when no file exists.
func Default() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	groupCap := DefaultMaxGroupTasks
	return &Config{
		DBPath:        filepath.Join(dir, "schedule.db"),
		Calendar:      DefaultCalendar,
		LogLevel:      DefaultLogLevel,
		MaxGroupTasks: &groupCap,
	}, nil
}

// Load reads the config file, fills unset fields with defaults and applies
// the SCHEDULE_DB_PATH and SCHEDULE_LOG_LEVEL overrides.
func Load() (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
		cfg.merge(&fileCfg)
	}

	if v := strings.TrimSpace(os.Getenv("SCHEDULE_DB_PATH")); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("SCHEDULE_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	if o.DBPath != "" {
		c.DBPath = expandHome(o.DBPath)
	}
	if o.Calendar != "" {
		c.Calendar = o.Calendar
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.MaxGroupTasks != nil {
		c.MaxGroupTasks = o.MaxGroupTasks
	}
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.MaxGroupTasks != nil && *c.MaxGroupTasks < 0 {
		return fmt.Errorf("max_group_tasks must not be negative, got %d", *c.MaxGroupTasks)
	}
	return nil
}

// GroupCap returns the group capacity, 0 meaning unlimited.
func (c *Config) GroupCap() int {
	if c.MaxGroupTasks == nil {
		return DefaultMaxGroupTasks
	}
	return *c.MaxGroupTasks
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
