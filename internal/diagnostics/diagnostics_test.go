package diagnostics

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/correlator-io/wat/internal/config"
)

func TestCorrelationIDIsUnique(t *testing.T) {
	a, b := CorrelationID(), CorrelationID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestNewProgressLimiterDefaultsNonPositiveRate(t *testing.T) {
	p := NewProgressLimiter(0)
	require.NotNil(t, p)
	assert.True(t, p.Allow(), "a freshly built limiter has burst headroom for its first call")
}

func TestProgressLimiterNilAndZeroValueDenyEverything(t *testing.T) {
	var nilLimiter *ProgressLimiter
	assert.False(t, nilLimiter.Allow())

	zeroValue := &ProgressLimiter{}
	assert.False(t, zeroValue.Allow())
}

func TestNewLoggerFromEnv_WAT_LOG_LEVELOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: error\n"), 0o600))
	t.Setenv(config.ConfigPathEnvVar, path)
	t.Setenv("WAT_LOG_LEVEL", "debug")

	logger := NewLoggerFromEnv()
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(nil, slog.LevelDebug), "env var must win over the YAML log_level")
}

func TestNewLoggerFromEnv_FallsBackToYAMLWhenEnvUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: error\n"), 0o600))
	t.Setenv(config.ConfigPathEnvVar, path)
	os.Unsetenv("WAT_LOG_LEVEL")

	logger := NewLoggerFromEnv()
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(nil, slog.LevelWarn), "YAML log_level: error must raise the threshold above warn")
}

func TestNewProgressLimiterFromEnv_DisabledByYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("progress_log_enabled: false\n"), 0o600))
	t.Setenv(config.ConfigPathEnvVar, path)
	os.Unsetenv("WAT_PROGRESS_LOG_ENABLED")

	p := NewProgressLimiterFromEnv()
	require.NotNil(t, p)
	assert.False(t, p.Allow(), "a disabled limiter must deny every call")
}

func TestNewProgressLimiterFromEnv_EnvOverridesYAMLEnable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("progress_log_enabled: false\n"), 0o600))
	t.Setenv(config.ConfigPathEnvVar, path)
	t.Setenv("WAT_PROGRESS_LOG_ENABLED", "true")

	p := NewProgressLimiterFromEnv()
	require.NotNil(t, p)
	assert.True(t, p.Allow(), "WAT_PROGRESS_LOG_ENABLED=true must override a disabling YAML file")
}
