// Package log provides severity levelled logging on top of log/slog.
//
// Messages are expected to be prefixed with the emitting package, eg.
// "bootstrap: serving stale dns registry".
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/tevino/abool"
)

// Severity describes a log level.
type Severity uint32

// Log Levels.
const (
	TraceLevel    Severity = 1
	DebugLevel    Severity = 2
	InfoLevel     Severity = 3
	WarningLevel  Severity = 4
	ErrorLevel    Severity = 5
	CriticalLevel Severity = 6
)

// slogTraceLevel sits below slog.LevelDebug so that trace messages can be
// filtered independently of debug messages.
const slogTraceLevel = slog.LevelDebug - 4

var (
	logLevelInt = uint32(InfoLevel)
	logLevel    = &logLevelInt

	// slogLevel is shared with the installed handler so that level changes
	// take effect without rebuilding it.
	slogLevel = new(slog.LevelVar)

	started = abool.NewBool(false)
)

func (s Severity) toSLogLevel() slog.Level {
	switch s {
	case TraceLevel:
		return slogTraceLevel
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarningLevel:
		return slog.LevelWarn
	case ErrorLevel, CriticalLevel:
		return slog.LevelError
	}
	// Failed to convert, return default log level
	return slog.LevelWarn
}

// Name returns the name of the log level.
func (s Severity) Name() string {
	switch s {
	case TraceLevel:
		return "trace"
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarningLevel:
		return "warning"
	case ErrorLevel:
		return "error"
	case CriticalLevel:
		return "critical"
	default:
		return "none"
	}
}

// ParseLevel returns the level severity of a log level name.
// Unknown names return 0.
func ParseLevel(level string) Severity {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warning", "warn":
		return WarningLevel
	case "error":
		return ErrorLevel
	case "critical":
		return CriticalLevel
	}
	return 0
}

// GetLogLevel returns the current log level.
func GetLogLevel() Severity {
	return Severity(atomic.LoadUint32(logLevel))
}

// SetLogLevel sets a new log level.
func SetLogLevel(level Severity) {
	atomic.StoreUint32(logLevel, uint32(level))
	slogLevel.Set(level.toSLogLevel())
}

// Start sets up the default slog handler and the initial log level.
// Logs are written to w, or to stderr if w is nil.
// Subsequent calls only change the log level.
func Start(level string, w io.Writer) error {
	initialLogLevel := InfoLevel
	var err error
	if level != "" {
		initialLogLevel = ParseLevel(level)
		if initialLogLevel == 0 {
			err = fmt.Errorf("invalid log level %q, falling back to level info", level)
			initialLogLevel = InfoLevel
		}
	}
	SetLogLevel(initialLogLevel)

	if !started.SetToIf(false, true) {
		return err
	}

	if w == nil {
		w = os.Stderr
	}
	setupSLog(w)

	return err
}

// IsStarted returns whether Start was called.
func IsStarted() bool {
	return started.IsSet()
}
