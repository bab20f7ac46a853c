package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvStr(t *testing.T) {
	t.Setenv("WAT_TEST_STR", "custom")
	assert.Equal(t, "custom", GetEnvStr("WAT_TEST_STR", "default"))
	assert.Equal(t, "default", GetEnvStr("WAT_TEST_STR_UNSET", "default"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("WAT_TEST_INT", "7")
	assert.Equal(t, 7, GetEnvInt("WAT_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("WAT_TEST_INT_UNSET", 1))

	t.Setenv("WAT_TEST_INT_BAD", "not-a-number")
	assert.Equal(t, 1, GetEnvInt("WAT_TEST_INT_BAD", 1))
}

func TestGetEnvBool(t *testing.T) {
	for _, value := range []string{"true", "1", "yes", "TRUE", "Yes"} {
		t.Setenv("WAT_TEST_BOOL", value)
		assert.True(t, GetEnvBool("WAT_TEST_BOOL", false), "value %q should parse true", value)
	}

	for _, value := range []string{"false", "0", "no"} {
		t.Setenv("WAT_TEST_BOOL", value)
		assert.False(t, GetEnvBool("WAT_TEST_BOOL", true), "value %q should parse false", value)
	}

	assert.True(t, GetEnvBool("WAT_TEST_BOOL_UNSET", true))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("WAT_TEST_DURATION", "250ms")
	assert.Equal(t, 250*time.Millisecond, GetEnvDuration("WAT_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, GetEnvDuration("WAT_TEST_DURATION_UNSET", time.Second))
}

func TestGetEnvLogLevel(t *testing.T) {
	t.Setenv("WAT_TEST_LEVEL", "warn")
	assert.Equal(t, slog.LevelWarn, GetEnvLogLevel("WAT_TEST_LEVEL", slog.LevelInfo))
	assert.Equal(t, slog.LevelInfo, GetEnvLogLevel("WAT_TEST_LEVEL_UNSET", slog.LevelInfo))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("debug", slog.LevelInfo))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warning", slog.LevelInfo))
	assert.Equal(t, slog.LevelError, ParseLogLevel("ERROR", slog.LevelInfo))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("nonsense", slog.LevelInfo))
}

func TestLoadDiagnostics_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadDiagnostics(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.ProgressLogEnabled)
	assert.Equal(t, "500ms", cfg.ProgressLogInterval)
}

func TestLoadDiagnostics_PartialYAMLOverridesOnlyNamedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	cfg, err := LoadDiagnostics(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.ProgressLogEnabled, "fields the file omits keep their default")
	assert.Equal(t, "500ms", cfg.ProgressLogInterval)
}

func TestLoadDiagnostics_InvalidYAMLReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [unterminated\n"), 0o600))

	cfg, err := LoadDiagnostics(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadDiagnosticsFromEnv_CustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("progress_log_enabled: false\n"), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadDiagnosticsFromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.ProgressLogEnabled)
}
