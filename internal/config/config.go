// Package config loads runtime settings from defaults, an optional config
// file and CGD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable of the importer, the rule store and the server.
type Config struct {
	Rules struct {
		Driver   string        `mapstructure:"driver"` // "json" or "sqlite"
		Path     string        `mapstructure:"path"`
		Debounce time.Duration `mapstructure:"debounce"`
	} `mapstructure:"rules"`
	Layout struct {
		RowTolerance float64 `mapstructure:"row_tolerance"`
	} `mapstructure:"layout"`
	Split struct {
		Ratio float64 `mapstructure:"ratio"`
	} `mapstructure:"split"`
	Categories struct {
		File string `mapstructure:"file"`
	} `mapstructure:"categories"`
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // "console" or "json"
	} `mapstructure:"log"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("rules.driver", "json")
	v.SetDefault("rules.path", "regras.json")
	v.SetDefault("rules.debounce", "500ms")
	v.SetDefault("layout.row_tolerance", 2.5)
	v.SetDefault("split.ratio", 0.6)
	v.SetDefault("categories.file", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads configuration. An empty path searches for cgd.yaml in the
// working directory; a missing file there is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("CGD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cgd")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Rules.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("rules.driver must be json or sqlite, got %q", c.Rules.Driver)
	}
	if c.Split.Ratio < 0 || c.Split.Ratio > 1 {
		return fmt.Errorf("split.ratio must be between 0 and 1, got %v", c.Split.Ratio)
	}
	if c.Layout.RowTolerance <= 0 {
		return fmt.Errorf("layout.row_tolerance must be positive, got %v", c.Layout.RowTolerance)
	}
	if c.Rules.Debounce < 0 {
		return fmt.Errorf("rules.debounce must not be negative")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
