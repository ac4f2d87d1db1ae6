// Package config loads menuextract settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MENUX"

// Config represents the complete application configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Extract ExtractConfig `yaml:"extract" envconfig:"EXTRACT"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// ExtractConfig selects layouts and bounds sheet parallelism.
type ExtractConfig struct {
	// Layout is a registered layout name or "auto".
	Layout      string `yaml:"layout" envconfig:"LAYOUT" validate:"required"`
	LayoutsDir  string `yaml:"layouts_dir" envconfig:"LAYOUTS_DIR"`
	Concurrency int    `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"min=1,max=64"`
	// PrintAreaOnly ignores cells outside each sheet's print area.
	PrintAreaOnly bool `yaml:"print_area_only" envconfig:"PRINT_AREA_ONLY"`
}

// OutputConfig controls serialization.
type OutputConfig struct {
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json csv"`
	Shape  string `yaml:"shape" envconfig:"SHAPE" validate:"oneof=flat nested"`
	Pretty bool   `yaml:"pretty" envconfig:"PRETTY"`
	// BOM prefixes CSV output with a UTF-8 byte order mark for Excel.
	BOM bool `yaml:"bom" envconfig:"BOM"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "console",
			FilePath: "logs/menuextract.log",
		},
		Extract: ExtractConfig{
			Layout:      "meal-menu",
			Concurrency: 4,
		},
		Output: OutputConfig{
			Format: "json",
			Shape:  "flat",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then MENUX_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file at path onto cfg.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field values.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%s: invalid value %v (%s)", fe.Namespace(), fe.Value(), fe.Tag())
	}
	return err
}
