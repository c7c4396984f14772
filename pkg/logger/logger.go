package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the global sugared logger. Init must be called once at startup;
// the package-level helpers are nil-safe so library code can log before
// initialization without panicking (events are dropped).
var Log *zap.SugaredLogger

// Init initializes the global logger at the given level ("debug", "info",
// "warn", "error"). An empty level falls back to TRIPSYNC_LOG_LEVEL and
// then to info.
func Init(level string) {
	lvl := strings.ToLower(strings.TrimSpace(level))
	if lvl == "" {
		lvl = strings.ToLower(strings.TrimSpace(os.Getenv("TRIPSYNC_LOG_LEVEL")))
	}
	var zl zapcore.Level
	switch lvl {
	case "debug":
		zl = zapcore.DebugLevel
	case "warn", "warning":
		zl = zapcore.WarnLevel
	case "error":
		zl = zapcore.ErrorLevel
	default:
		zl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		// fall back to a no-op logger rather than failing startup
		Log = zap.NewNop().Sugar()
		return
	}
	Log = l.Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

// Debug logs with alternating key/value pairs.
func Debug(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Debugw(msg, args...)
}

// Info logs with alternating key/value pairs.
func Info(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Infow(msg, args...)
}

// Warn logs with alternating key/value pairs.
func Warn(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Warnw(msg, args...)
}

// Error logs with alternating key/value pairs.
func Error(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Errorw(msg, args...)
}
