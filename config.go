package estream

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrConfigValidation is returned when configuration validation fails
var ErrConfigValidation = errors.New("configuration validation failed")

// Config represents the estream configuration
type Config struct {
	// Schema is an optional grammar document replacing the built-in one.
	Schema  string        `yaml:"schema"`
	Resolve ResolveConfig `yaml:"resolve"`
	Log     LogConfig     `yaml:"log"`
	Output  OutputConfig  `yaml:"output"`
}

// ResolveConfig represents scope resolution settings
type ResolveConfig struct {
	CheckCollisions bool   `yaml:"check_collisions"`
	NameStyle       string `yaml:"name_style"`
}

// LogConfig represents logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// OutputConfig represents CLI output settings
type OutputConfig struct {
	Color *bool `yaml:"color"` // nil means auto-detect
}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses a YAML configuration document
func ParseConfig(data []byte) (*Config, error) {
	// Keys missing from the document keep their default values
	config := getDefaultConfig()

	// Parse YAML with strict mode to detect unknown fields
	err := yaml.UnmarshalWithOptions(data, config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDefaults(config)
	expandConfigEnvVars(config)

	return config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	validStyles := map[string]bool{
		"numeric":    true,
		"underscore": true,
	}
	if config.Resolve.NameStyle != "" && !validStyles[config.Resolve.NameStyle] {
		return fmt.Errorf("%w: invalid resolve.name_style '%s': must be one of numeric, underscore", ErrConfigValidation, config.Resolve.NameStyle)
	}

	if config.Log.Level != "" {
		if _, err := zapcore.ParseLevel(config.Log.Level); err != nil {
			return fmt.Errorf("%w: invalid log.level '%s'", ErrConfigValidation, config.Log.Level)
		}
	}

	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if config.Log.Format != "" && !validFormats[config.Log.Format] {
		return fmt.Errorf("%w: invalid log.format '%s': must be one of console, json", ErrConfigValidation, config.Log.Format)
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Resolve: ResolveConfig{
			CheckCollisions: true,
			NameStyle:       "numeric",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	return getDefaultConfig()
}

// applyDefaults applies default values to missing configuration fields
func applyDefaults(config *Config) {
	if config.Resolve.NameStyle == "" {
		config.Resolve.NameStyle = "numeric"
	}

	if config.Log.Level == "" {
		config.Log.Level = "warn"
	}

	if config.Log.Format == "" {
		config.Log.Format = "console"
	}
}

// NewLogger builds the zap logger described by the log section
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid log.level '%s'", ErrConfigValidation, c.Log.Level)
	}

	var zc zap.Config
	if c.Log.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}

	return zc.Build()
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	plainEnvVar  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return plainEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

// expandConfigEnvVars expands environment variables in all string fields
func expandConfigEnvVars(config *Config) {
	config.Schema = expandEnvVars(config.Schema)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
