package config

import (
	"errors"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Diagnostics holds the diagnostic settings a caller may override via an
// optional YAML file. There is no feature configuration here: this module
// has no persistence, no transport, and no CLI, so the only knobs worth
// exposing are how loudly it logs while it searches.
type Diagnostics struct {
	LogLevel            string `yaml:"log_level"`
	ProgressLogEnabled  bool   `yaml:"progress_log_enabled"`
	ProgressLogInterval string `yaml:"progress_log_interval"`
}

// DefaultConfigPath is the default location for the wat configuration file.
const DefaultConfigPath = ".wat.yaml"

// ConfigPathEnvVar is the environment variable name for a custom config path.
const ConfigPathEnvVar = "WAT_CONFIG_PATH"

// defaultDiagnostics returns the baked-in diagnostic settings used whenever
// no YAML file (or no field within one) overrides them.
func defaultDiagnostics() *Diagnostics {
	return &Diagnostics{
		LogLevel:            "info",
		ProgressLogEnabled:  true,
		ProgressLogInterval: "500ms",
	}
}

// LoadDiagnostics loads diagnostic settings from a YAML file at path,
// defaulting any field the file doesn't mention.
//
// Behavior:
//   - Returns the defaults (not an error) if the file doesn't exist.
//   - Returns the defaults + logs a warning if the YAML is invalid.
//   - Returns the defaults merged with whatever the file overrides, on success.
//
// This graceful degradation mirrors dataset-pattern loading elsewhere in this
// corpus: diagnostics are optional, so a missing or malformed file never
// prevents the caller from proceeding with defaults.
func LoadDiagnostics(path string) (*Diagnostics, error) {
	cfg := defaultDiagnostics()

	data, err := os.ReadFile(path) //nolint:gosec // path is from trusted config source
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("diagnostics config not found, using defaults", slog.String("path", path))

			return cfg, nil
		}

		slog.Warn("failed to read diagnostics config, using defaults",
			slog.String("path", path), slog.String("error", err.Error()))

		return cfg, nil
	}

	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("failed to parse diagnostics config, using defaults",
			slog.String("path", path), slog.String("error", err.Error()))

		return defaultDiagnostics(), nil
	}

	return cfg, nil
}

// LoadDiagnosticsFromEnv loads diagnostics config from the path named by
// WAT_CONFIG_PATH, falling back to ".wat.yaml" in the current directory.
func LoadDiagnosticsFromEnv() (*Diagnostics, error) {
	path := GetEnvStr(ConfigPathEnvVar, DefaultConfigPath)

	return LoadDiagnostics(path)
}
