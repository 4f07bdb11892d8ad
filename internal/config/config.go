// SPDX-License-Identifier: MPL-2.0

// Package config loads dockhand configuration from the platform config
// directory, with environment variable overrides. Missing files are fine:
// every field has a default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "dockhand"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "yaml"
	// EnvPrefix is the prefix for environment variable overrides
	// (e.g. DOCKHAND_RUNTIME, DOCKHAND_SESSION_SHUTDOWN_TIMEOUT).
	EnvPrefix = "DOCKHAND"
)

// ErrInvalidConfig is the sentinel error wrapped by config validation failures.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// Config is the full dockhand configuration.
	Config struct {
		// Runtime selects the engine binary: "docker", "podman", or ""
		// for auto-detection.
		Runtime string `mapstructure:"runtime"`
		// Timeout bounds every engine invocation started by the CLI.
		Timeout time.Duration `mapstructure:"timeout"`
		// Session configures lifecycle bookkeeping.
		Session SessionConfig `mapstructure:"session"`
	}

	// SessionConfig mirrors the session lifecycle configuration surface.
	SessionConfig struct {
		EnableShutdownHook bool          `mapstructure:"enable_shutdown_hook"`
		ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
		CleanupOnShutdown  bool          `mapstructure:"cleanup_on_shutdown"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Runtime: "",
		Timeout: 5 * time.Minute,
		Session: SessionConfig{
			EnableShutdownHook: true,
			ShutdownTimeout:    30 * time.Second,
			CleanupOnShutdown:  true,
		},
	}
}

// Validate returns an error if the configuration is self-contradictory.
func (c Config) Validate() error {
	switch c.Runtime {
	case "", "docker", "podman":
	default:
		return fmt.Errorf("%w: unknown runtime %q", ErrInvalidConfig, c.Runtime)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	if c.Session.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// ConfigDir returns the dockhand configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load reads configuration with the precedence: explicit file path, then the
// platform config directory, then environment variables, then defaults.
// A missing config file is not an error.
func Load(configFilePath string) (Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("runtime", defaults.Runtime)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("session.enable_shutdown_hook", defaults.Session.EnableShutdownHook)
	v.SetDefault("session.shutdown_timeout", defaults.Session.ShutdownTimeout)
	v.SetDefault("session.cleanup_on_shutdown", defaults.Session.CleanupOnShutdown)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFilePath != "" {
		v.SetConfigFile(configFilePath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFilePath, err)
		}
	} else {
		cfgDir, err := ConfigDir()
		if err != nil {
			return Config{}, err
		}
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileExt)
		v.AddConfigPath(cfgDir)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
