package logger

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger so the rest of the codebase has a single logging
// surface to depend on.
type Logger struct {
	*zap.Logger
}

// Component returns a child logger tagged with a component name.
func (l *Logger) Component(component string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("component", component))}
}

// New builds a logger configured from LOG_LEVEL and LOG_FORMAT.
func New() *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	default:
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), levelFromEnv())
	return &Logger{Logger: zap.New(core, zap.AddCaller())}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

func levelFromEnv() zapcore.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Field helpers so callers don't need to import zap directly.

func String(key, val string) zapcore.Field { return zap.String(key, val) }

func Int(key string, val int) zapcore.Field { return zap.Int(key, val) }

func Int64(key string, val int64) zapcore.Field { return zap.Int64(key, val) }

func Duration(key string, val time.Duration) zapcore.Field { return zap.Duration(key, val) }

func Any(key string, val interface{}) zapcore.Field { return zap.Any(key, val) }

func Error(err error) zapcore.Field { return zap.Error(err) }
