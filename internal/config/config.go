// =============================================================================
// MC Generator - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and the column mapping
// table used by the reader, the template writer and the orchestrator.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings
//   2. Mapping (mapping.yaml): Source -> template column mapping, header
//      markers, grouping indicator and column types. A default mapping is
//      embedded in the binary (default_mapping.yaml).
//
// =============================================================================

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// SourceSheet is the name of the sheet holding the billing balance.
	// Default: "Balanco Operacional"
	SourceSheet string `yaml:"source_sheet"`

	// TemplateFile is the path of the destination template workbook.
	// Default: "mc.xlsx"
	TemplateFile string `yaml:"template_file"`

	// MappingFile is an optional mapping YAML. When empty the embedded
	// default mapping is used.
	MappingFile string `yaml:"mapping_file"`

	// CSV holds the settings used when the source is a CSV export.
	CSV CSVSettings `yaml:"csv"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is the directory where generated workbooks are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// OutputNameFormat defines the file name of single generations.
	// Placeholders: {client}, {period}, {timestamp}, {date}, {uuid}
	// Default: "MC_{client}_{period}.xlsx"
	OutputNameFormat string `yaml:"output_name_format"`

	// =========================================================================
	// CACHE AND BACKUP SETTINGS
	// =========================================================================

	// CacheDir holds the consolidated Parquet cache.
	// Default: "./data/cache"
	CacheDir string `yaml:"cache_dir"`

	// Backup configures the optional S3 copy of uploaded source files.
	Backup BackupSettings `yaml:"backup"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of batch groups generated at once.
	// Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ListenAddr is the address used by the HTTP server.
	// Default: ":8083"
	ListenAddr string `yaml:"listen_addr"`
}

// CSVSettings contains settings for parsing CSV source exports.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Default: ";"
	Delimiter string `yaml:"delimiter"`

	// Encoding is the character encoding of the file.
	// Valid values: "UTF-8", "ISO-8859-1", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// BackupSettings configures the S3 backup of source uploads.
type BackupSettings struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a MainConfig with every default applied.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.SourceSheet == "" {
		config.SourceSheet = "Balanco Operacional"
	}
	if config.TemplateFile == "" {
		config.TemplateFile = "mc.xlsx"
	}
	if config.CSV.Delimiter == "" {
		config.CSV.Delimiter = ";"
	}
	if config.CSV.Encoding == "" {
		config.CSV.Encoding = "UTF-8"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "MC_{client}_{period}.xlsx"
	}
	if config.CacheDir == "" {
		config.CacheDir = "./data/cache"
	}
	if config.Backup.Prefix == "" {
		config.Backup.Prefix = "bases"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.ListenAddr == "" {
		config.ListenAddr = ":8083"
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if config.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must not be negative, got %d", config.MaxConcurrency)
	}
	switch config.CSV.Delimiter {
	case "\\t", "tab", "TAB", "pipe", "PIPE", "semicolon", "comma":
	default:
		if len([]rune(config.CSV.Delimiter)) != 1 {
			return fmt.Errorf("csv delimiter must be a single character, got %q", config.CSV.Delimiter)
		}
	}
	switch config.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", config.LogLevel)
	}
	if config.Backup.Enabled && config.Backup.Bucket == "" {
		return fmt.Errorf("backup is enabled but no bucket is configured")
	}
	return nil
}

// LoadMapping returns the mapping configured in the main config: the file
// named by MappingFile, or the embedded default.
func (c *MainConfig) LoadMapping() (*Mapping, error) {
	if c.MappingFile == "" {
		return DefaultMapping()
	}
	return LoadMapping(c.MappingFile)
}
