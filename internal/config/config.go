package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Store      StoreConfig      `yaml:"store" envconfig:"STORE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ProcessingConfig controls the segmentation batch run
type ProcessingConfig struct {
	// TopEvents limits the run to the first N event directories in
	// sorted order; 0 processes every event.
	TopEvents int `yaml:"top_events" envconfig:"TOP_EVENTS" validate:"min=0"`
	// MaxConcurrency bounds the number of markets processed in parallel.
	MaxConcurrency int `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" validate:"min=1"`
	// AmountColumns is the ordered list of candidate column names tried
	// when resolving the trade size column, first match wins.
	AmountColumns []string `yaml:"amount_columns" envconfig:"AMOUNT_COLUMNS" validate:"min=1,dive,required"`
	// TimestampColumn names the Unix-seconds timestamp column.
	TimestampColumn string `yaml:"timestamp_column" envconfig:"TIMESTAMP_COLUMN" validate:"required"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	RawDir     string `yaml:"raw_dir" envconfig:"RAW_DIR" validate:"required"`
	OutputDir  string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// StoreConfig configures the optional SQLite sink
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	Path    string `yaml:"path" envconfig:"PATH"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "both",
			FilePath: "logs/polyseg.log",
		},
		Processing: ProcessingConfig{
			TopEvents:       10,
			MaxConcurrency:  4,
			AmountColumns:   []string{"trade_amount", "amount", "size", "qty", "quantity"},
			TimestampColumn: "timestamp",
		},
		Paths: PathsConfig{
			RawDir:     "raw",
			OutputDir:  "output",
			ReportsDir: "reports",
			LogsDir:    "logs",
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    "data/polyseg.db",
		},
	}
}

// Load builds the configuration in three layers: defaults, then the
// YAML config file (when present), then POLYSEG_* environment
// variables. Later layers win.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process("POLYSEG", cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML file values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file path required for output mode %q", c.Logging.Output)
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store path required when store is enabled")
	}
	return nil
}

// findConfigFile returns the first config file found in common locations
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}
