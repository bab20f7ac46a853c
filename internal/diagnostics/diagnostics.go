// Package diagnostics provides structured logging, progress rate-limiting,
// and compact log-field fingerprinting for the provenance engines.
//
// None of this affects correctness: it exists purely to make an otherwise
// silent, CPU-bound search observable while it runs.
package diagnostics

import (
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/correlator-io/wat/internal/config"
)

const (
	defaultProgressLogRPS      = 2
	defaultProgressLogInterval = time.Second / defaultProgressLogRPS
)

// NewLogger builds a JSON slog.Logger at the given level, matching the
// handler configuration used throughout this corpus (JSON output, level
// sourced from environment or config, written to stderr so stdout stays
// free for any consumer piping this library's host program's own output).
func NewLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	return slog.New(handler)
}

// NewLoggerFromEnv builds a logger using WAT_LOG_LEVEL, falling back to the
// YAML config's log_level (itself defaulting to "info" if neither is set),
// the env-var-first, YAML-fallback configuration convention used elsewhere
// in this module.
func NewLoggerFromEnv() *slog.Logger {
	diag, err := config.LoadDiagnosticsFromEnv()
	if err != nil {
		diag = &config.Diagnostics{LogLevel: "info"}
	}

	fileLevel := config.ParseLogLevel(diag.LogLevel, slog.LevelInfo)
	level := config.GetEnvLogLevel("WAT_LOG_LEVEL", fileLevel)

	return NewLogger(level)
}

// CorrelationID returns a fresh correlation id to tag one call to Wat or one
// Transition, the same role uuid.New() plays for inbound HTTP requests
// elsewhere in this corpus.
func CorrelationID() string {
	return uuid.NewString()
}

// ProgressLimiter rate-limits progress log lines emitted during the
// black-box engine's subset search, which is exponential by design and
// would otherwise flood the log with one line per candidate subtrace.
//
// This plays the same "don't let a hot loop overwhelm the log" role the
// request-rate limiter plays for inbound HTTP traffic elsewhere in this
// corpus; it is repurposed here from gating requests to gating diagnostic
// output.
type ProgressLimiter struct {
	limiter *rate.Limiter
}

// NewProgressLimiter creates a ProgressLimiter allowing at most ratePerSec
// progress lines per second, with a burst of one (progress lines are
// informational, not bursty by nature, so no headroom is given beyond the
// steady rate).
func NewProgressLimiter(ratePerSec int) *ProgressLimiter {
	if ratePerSec <= 0 {
		ratePerSec = defaultProgressLogRPS
	}

	return &ProgressLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

// Allow reports whether the caller may emit a progress log line now.
func (p *ProgressLimiter) Allow() bool {
	if p == nil || p.limiter == nil {
		return false
	}

	return p.limiter.Allow()
}

// NewProgressLimiterFromEnv builds a ProgressLimiter from the YAML
// diagnostics config (progress_log_enabled, progress_log_interval),
// overridden by WAT_PROGRESS_LOG_ENABLED, WAT_PROGRESS_LOG_INTERVAL, and
// WAT_PROGRESS_LOG_BURST. A disabled limiter is a ProgressLimiter with a nil
// rate.Limiter, which Allow always denies.
func NewProgressLimiterFromEnv() *ProgressLimiter {
	diag, err := config.LoadDiagnosticsFromEnv()
	if err != nil {
		diag = &config.Diagnostics{ProgressLogEnabled: true, ProgressLogInterval: defaultProgressLogInterval.String()}
	}

	if !config.GetEnvBool("WAT_PROGRESS_LOG_ENABLED", diag.ProgressLogEnabled) {
		return &ProgressLimiter{}
	}

	interval, err := time.ParseDuration(diag.ProgressLogInterval)
	if err != nil || interval <= 0 {
		interval = defaultProgressLogInterval
	}

	interval = config.GetEnvDuration("WAT_PROGRESS_LOG_INTERVAL", interval)
	if interval <= 0 {
		interval = defaultProgressLogInterval
	}

	burst := config.GetEnvInt("WAT_PROGRESS_LOG_BURST", 1)

	return &ProgressLimiter{limiter: rate.NewLimiter(rate.Every(interval), burst)}
}
