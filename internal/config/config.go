package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultWindowFormat is the label template used when none is configured.
const DefaultWindowFormat = "{a}   {t}"

// Config holds the application configuration.
type Config struct {
	// WindowFormat is the per-entry label template. Supported tokens:
	// {t}/{t:n} title, {a}/{c} and {a:n}/{c:n} app id.
	WindowFormat string `yaml:"window-format" mapstructure:"window-format"`

	LogLevel string `yaml:"log-level" mapstructure:"log-level"`

	// IconDirs overrides the XDG data directories for icon lookup.
	IconDirs []string `yaml:"icon-theme-dirs,omitempty" mapstructure:"icon-theme-dirs"`
}

// Manager loads and persists the configuration file.
type Manager struct {
	v    *viper.Viper
	path string
}

// NewManager loads configuration from the given file. An empty path falls
// back to $HOME/.config/wlpick/config.yaml; a missing file yields defaults.
func NewManager(path string) (*Manager, error) {
	v := viper.New()
	v.SetDefault("window-format", DefaultWindowFormat)
	v.SetDefault("log-level", "warn")
	v.SetEnvPrefix("WLPICK")
	v.AutomaticEnv()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate home directory: %w", err)
		}
		path = filepath.Join(home, ".config", "wlpick", "config.yaml")
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	return &Manager{v: v, path: path}, nil
}

// Get returns the current configuration.
func (m *Manager) Get() Config {
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return Config{WindowFormat: DefaultWindowFormat, LogLevel: "warn"}
	}
	if cfg.WindowFormat == "" {
		cfg.WindowFormat = DefaultWindowFormat
	}
	return cfg
}

// Save writes the configuration back to its file.
func (m *Manager) Save(cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", m.path, err)
	}
	return nil
}

// Path returns the config file location.
func (m *Manager) Path() string {
	return m.path
}
