package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Leveled logger shared by the API server and portfolioctl.
// - package-level Debug/Info/Warn/Error/Fatal variants and Init(level)
// - backed by a zap SugaredLogger writing to stdout, optionally teed into a
//   lumberjack-rotated file (see InitFile)

var (
	mu      sync.RWMutex
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	console = zapcore.AddSync(os.Stdout)
	sugar   = newSugar(console)
	rotator *lumberjack.Logger
)

// FileOptions configures rotated file output.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func newSugar(ws zapcore.WriteSyncer) *zap.SugaredLogger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), ws, level)
	return zap.New(core).Sugar()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// SetOutput replaces the console sink. portfolioctl sends logs to stderr.
// An open rotated file keeps receiving entries.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	console = zapcore.AddSync(w)
	sugar = newSugar(sink())
}

// sink is the console tee'd with the rotated file when one is open.
func sink() zapcore.WriteSyncer {
	if rotator == nil {
		return console
	}
	return zapcore.NewMultiWriteSyncer(console, zapcore.AddSync(rotator))
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	s := strings.ToLower(strings.TrimSpace(l))
	switch s {
	case "debug":
		level.SetLevel(zapcore.DebugLevel)
	case "warn", "warning":
		level.SetLevel(zapcore.WarnLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	case "fatal":
		level.SetLevel(zapcore.FatalLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

// InitFile tees log output into a rotated file. An empty path is a no-op.
func InitFile(opts FileOptions) {
	if strings.TrimSpace(opts.Path) == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if rotator != nil {
		_ = rotator.Close()
	}
	rotator = &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	sugar = newSugar(sink())
}

// Sync flushes buffered entries and closes the rotated file, if any.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	_ = sugar.Sync()
	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
		sugar = newSugar(console)
	}
}

func Debugf(format string, v ...interface{}) { current().Debugf(format, v...) }

func Infof(format string, v ...interface{}) { current().Infof(format, v...) }

func Warnf(format string, v ...interface{}) { current().Warnf(format, v...) }

func Errorf(format string, v ...interface{}) { current().Errorf(format, v...) }

// Fatalf logs regardless of level and exits the process.
func Fatalf(format string, v ...interface{}) {
	l := current()
	l.Errorf("FATAL: "+format, v...)
	_ = l.Sync()
	os.Exit(1)
}

// LevelString returns the current level as text.
func LevelString() string {
	return level.Level().String()
}
