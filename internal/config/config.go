// Package config provides configuration management for the rv-react
// development server using Viper for flexible loading from files,
// environment variables, and command-line flags.
//
// The configuration system supports YAML files (.rvreact.yml), environment
// variable overrides with the RVREACT_ prefix, and validation of server and
// application settings.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	rverrors "github.com/ignius299792458/rv-react/internal/errors"
)

// Config is the full development-server configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	App         AppConfig         `yaml:"app" mapstructure:"app"`
	Development DevelopmentConfig `yaml:"development" mapstructure:"development"`
	LogLevel    string            `yaml:"log_level" mapstructure:"log_level"`
	LogFormat   string            `yaml:"log_format" mapstructure:"log_format"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	Host           string   `yaml:"host" mapstructure:"host"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// AppConfig names the root component and its props source.
type AppConfig struct {
	// Root is the registered name of the root component.
	Root string `yaml:"root" mapstructure:"root"`
	// PropsFile is an optional YAML file holding the root props; when
	// hot reload is enabled, editing it re-renders the tree.
	PropsFile string `yaml:"props_file" mapstructure:"props_file"`
}

// DevelopmentConfig holds development-specific options.
type DevelopmentConfig struct {
	HotReload    bool `yaml:"hot_reload" mapstructure:"hot_reload"`
	ErrorOverlay bool `yaml:"error_overlay" mapstructure:"error_overlay"`
}

// Load builds the configuration from viper's current state, applying
// defaults and validating the result.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	ApplyDefaults(&config)

	if err := Validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// ApplyDefaults fills in unset fields.
func ApplyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 8360
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = []string{
			fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port),
		}
	}
	if config.App.Root == "" {
		config.App.Root = "App"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if !viper.IsSet("development.hot_reload") {
		config.Development.HotReload = true
	}
	if !viper.IsSet("development.error_overlay") {
		config.Development.ErrorOverlay = true
	}
}

// Validate rejects configurations the server cannot run with.
func Validate(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return rverrors.NewConfigError(
			fmt.Sprintf("server port %d out of range (1-65535)", config.Server.Port),
		)
	}
	if config.App.Root == "" {
		return rverrors.NewConfigError("app.root must name a registered component")
	}
	switch config.LogFormat {
	case "text", "json":
	default:
		return rverrors.NewConfigError(
			fmt.Sprintf("log_format %q must be \"text\" or \"json\"", config.LogFormat),
		)
	}
	return nil
}
