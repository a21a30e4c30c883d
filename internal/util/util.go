package util

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	constants "github.com/CodeAndHammer/blackbox/internal/constants"
)

var logger atomic.Pointer[zap.SugaredLogger]

func init() {
	logger.Store(zap.NewNop().Sugar())
}

// NewLogger builds the process logger. Production uses JSON output, the
// development config is human readable. An empty level keeps the default.
func NewLogger(production bool, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if production {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build(zap.AddCallerSkip(1))
}

// SetLogger replaces the logger behind the Log helpers.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l.Sugar())
}

func Logger() *zap.SugaredLogger {
	return logger.Load()
}

func LogDebug(format string, v ...any) {
	logger.Load().Debugf(format, v...)
}

func LogInfo(format string, v ...any) {
	logger.Load().Infof(format, v...)
}

func LogWarn(format string, v ...any) {
	logger.Load().Warnf(format, v...)
}

func LogError(format string, v ...any) {
	logger.Load().Errorf(format, v...)
}

// RequestID returns the id stored by the request id middleware.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	reqID, _ := ctx.Value(constants.RequestIDKey).(string)
	return reqID
}

// LogPrefix is the "[request_id=...] " prefix for request scoped log lines.
func LogPrefix(ctx context.Context) string {
	if reqID := RequestID(ctx); reqID != "" {
		return "[request_id=" + reqID + "] "
	}
	return ""
}

// DirExists reports whether path is a directory. Stat failures other than
// a missing path are logged.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err == nil {
		return info.IsDir()
	}
	if !errors.Is(err, fs.ErrNotExist) {
		LogWarn("Cannot stat %s: %v", path, err)
	}
	return false
}

// FormatUptime renders d as "1 hour, 2 minutes, 3 seconds", leaving out
// leading zero units.
func FormatUptime(d time.Duration) string {
	hours, minutes, seconds := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	parts := make([]string, 0, 3)
	if hours > 0 {
		parts = append(parts, countUnit(hours, "hour"))
	}
	if hours > 0 || minutes > 0 {
		parts = append(parts, countUnit(minutes, "minute"))
	}
	parts = append(parts, countUnit(seconds, "second"))
	return strings.Join(parts, ", ")
}

func countUnit(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
