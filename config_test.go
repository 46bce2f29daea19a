package estream

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"go.uber.org/zap/zapcore"
)

func TestLoadConfig_DefaultValues(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NoError(t, err)

	assert.True(t, config.Resolve.CheckCollisions)
	assert.Equal(t, "numeric", config.Resolve.NameStyle)
	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, "console", config.Log.Format)
	assert.Equal(t, "", config.Schema)
	assert.True(t, config.Output.Color == nil)
	assert.Equal(t, DefaultConfig(), config)
}

func TestLoadConfig_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "estream.yaml")

	configContent := `
schema: ./grammar.yaml
resolve:
  check_collisions: false
  name_style: underscore
log:
  level: debug
  format: json
output:
  color: false
`

	err := os.WriteFile(configPath, []byte(configContent), 0o644)
	assert.NoError(t, err)

	config, err := LoadConfig(configPath)
	assert.NoError(t, err)
	assert.Equal(t, "./grammar.yaml", config.Schema)
	assert.False(t, config.Resolve.CheckCollisions)
	assert.Equal(t, "underscore", config.Resolve.NameStyle)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.True(t, config.Output.Color != nil)
	assert.False(t, *config.Output.Color)
}

func TestParseConfig_PartialDocumentKeepsDefaults(t *testing.T) {
	config, err := ParseConfig([]byte("log:\n  level: error\n"))
	assert.NoError(t, err)

	assert.Equal(t, "error", config.Log.Level)
	assert.Equal(t, "console", config.Log.Format)
	assert.True(t, config.Resolve.CheckCollisions)
	assert.Equal(t, "numeric", config.Resolve.NameStyle)
}

func TestParseConfig_EmptyValuesGetDefaults(t *testing.T) {
	config, err := ParseConfig([]byte("resolve:\n  name_style: \"\"\nlog:\n  level: \"\"\n  format: \"\"\n"))
	assert.NoError(t, err)

	assert.Equal(t, "numeric", config.Resolve.NameStyle)
	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, "console", config.Log.Format)
}

func TestLoadConfig_StrictMode_UnknownKeys(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "estream.yaml")

	configContent := `
resolve:
  check_collisions: true
  unknown_resolve_key: "should cause error"
`

	err := os.WriteFile(configPath, []byte(configContent), 0o644)
	assert.NoError(t, err)

	_, err = LoadConfig(configPath)
	assert.Error(t, err, "expected error for unknown keys in strict mode")
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		message string
	}{
		{
			name:    "invalid name style",
			config:  Config{Resolve: ResolveConfig{NameStyle: "roman"}},
			message: "invalid resolve.name_style",
		},
		{
			name:    "invalid log level",
			config:  Config{Log: LogConfig{Level: "loud"}},
			message: "invalid log.level",
		},
		{
			name:    "invalid log format",
			config:  Config{Log: LogConfig{Format: "xml"}},
			message: "invalid log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(&tt.config)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfigValidation))
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	assert.NoError(t, validateConfig(&Config{}))
	assert.NoError(t, validateConfig(DefaultConfig()))
}

func TestParseConfig_InvalidValue(t *testing.T) {
	_, err := ParseConfig([]byte("resolve:\n  name_style: roman\n"))
	assert.True(t, errors.Is(err, ErrConfigValidation))
}

func TestConfig_EnvironmentExpansion(t *testing.T) {
	t.Setenv("ESTREAM_GRAMMAR_DIR", "/opt/grammars")

	config, err := ParseConfig([]byte("schema: ${ESTREAM_GRAMMAR_DIR}/es.yaml\n"))
	assert.NoError(t, err)
	assert.Equal(t, "/opt/grammars/es.yaml", config.Schema)

	assert.Equal(t, "/opt/grammars", expandEnvVars("$ESTREAM_GRAMMAR_DIR"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}

func TestConfig_NewLogger(t *testing.T) {
	config := DefaultConfig()

	logger, err := config.NewLogger()
	assert.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	config.Log.Level = "debug"
	config.Log.Format = "json"

	logger, err = config.NewLogger()
	assert.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	config.Log.Level = "loud"
	_, err = config.NewLogger()
	assert.True(t, errors.Is(err, ErrConfigValidation))
}
