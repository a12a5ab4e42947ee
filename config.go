package mub

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ErrConfig flags an unusable configuration.
var ErrConfig = errors.New("mub: invalid configuration")

// Config is the flat JSON configuration for one run.
type Config struct {
	// Input is the content root whose immediate children become items.
	Input string `mapstructure:"input"`
	// Output is the directory that gets torn down and rebuilt every run.
	Output string `mapstructure:"output"`
	// Templates holds the .html template files.
	Templates string `mapstructure:"templates"`
	// Include, when present, is mirrored under the output root.
	Include string `mapstructure:"include"`
	// Pages lists extra top-level templates rendered once each.
	Pages []string `mapstructure:"pages"`
	// Search toggles search-index generation.
	Search bool `mapstructure:"search"`
	// Strict aborts the whole run on the first item failure.
	Strict bool `mapstructure:"strict"`
	// Workers bounds the pool; zero means available parallelism.
	Workers int `mapstructure:"workers"`
	// Site is arbitrary site-wide metadata exposed to every template.
	Site map[string]any `mapstructure:"site"`

	LogLevel  string `mapstructure:"logLevel"`
	LogFormat string `mapstructure:"logFormat"`
}

// LoadConfig reads the JSON configuration at path, applying defaults for
// anything the file leaves out. MUB_* environment variables override.
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("input", "content")
	v.SetDefault("output", "public")
	v.SetDefault("templates", "templates")
	v.SetDefault("include", "include")
	v.SetDefault("pages", []string{})
	v.SetDefault("search", true)
	v.SetDefault("strict", false)
	v.SetDefault("workers", 0)
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "console")

	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("MUB")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the directory settings before any filesystem work starts.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return fmt.Errorf("%w: input directory is required", ErrConfig)
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("%w: output directory is required", ErrConfig)
	}
	if strings.TrimSpace(c.Templates) == "" {
		return fmt.Errorf("%w: templates directory is required", ErrConfig)
	}
	if filepath.Clean(c.Input) == filepath.Clean(c.Output) {
		return fmt.Errorf("%w: input and output must differ (the output root is deleted every run)", ErrConfig)
	}
	return nil
}
