// Package logger is the shared logging layer: logrus with a JSON formatter,
// optional lumberjack rotation, and a trace id carried through context.
package logger

import (
	"context"
	"io"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger interface {
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Debug(ctx context.Context, msg string, args ...any)
}

type logrusLogger struct {
	logger *logrus.Logger
}

// callerName resolves the calling function's short name for log prefixes.
func callerName() string {
	pc := make([]uintptr, 10)
	runtime.Callers(4, pc)
	funcName := runtime.FuncForPC(pc[0]).Name()
	parts := strings.Split(funcName, ".")
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return "unknown"
}

func (l *logrusLogger) log(ctx context.Context, level logrus.Level, msg string, args ...any) {
	entry := l.logger.WithContext(ctx)
	if traceID := getTraceID(ctx); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	args = append([]any{callerName()}, args...)
	entry.Logf(level, "[%s] "+msg, args...)
}

func (l *logrusLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, logrus.WarnLevel, msg, args...)
}

func (l *logrusLogger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, logrus.ErrorLevel, msg, args...)
}

func (l *logrusLogger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, logrus.InfoLevel, msg, args...)
}

func (l *logrusLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, logrus.DebugLevel, msg, args...)
}

type Config struct {
	Level      string `json:"level,omitempty" toml:"level,omitempty"`
	File       string `json:"file,omitempty" toml:"file,omitempty"`
	MaxSize    int    `json:"max_size,omitempty" toml:"max_size,omitempty"`       // MB per file, default 100
	MaxBackups int    `json:"max_backups,omitempty" toml:"max_backups,omitempty"` // rotated files kept, default 3
	MaxAge     int    `json:"max_age,omitempty" toml:"max_age,omitempty"`         // days kept, default 7
	Compress   bool   `json:"compress,omitempty" toml:"compress,omitempty"`
}

var defaultLogger Logger = newLogger(&Config{Level: "info"}, nil)

func newLogger(cfg *Config, out io.Writer) Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if out != nil {
		log.SetOutput(out)
	}
	return &logrusLogger{logger: log}
}

// Init reconfigures the package logger. Without a file the logger keeps
// writing to stderr; with one, output rotates via lumberjack.
func Init(cfg *Config) {
	var out io.Writer
	if cfg.File != "" {
		maxSize := cfg.MaxSize
		if maxSize <= 0 {
			maxSize = 100
		}
		maxBackups := cfg.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 3
		}
		maxAge := cfg.MaxAge
		if maxAge <= 0 {
			maxAge = 7
		}
		out = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			MaxAge:     maxAge,
			Compress:   cfg.Compress,
		}
	}
	defaultLogger = newLogger(cfg, out)
}

func Warn(ctx context.Context, msg string, args ...any) {
	defaultLogger.Warn(ctx, msg, args...)
}

func Error(ctx context.Context, msg string, args ...any) {
	defaultLogger.Error(ctx, msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	defaultLogger.Info(ctx, msg, args...)
}

func Debug(ctx context.Context, msg string, args ...any) {
	defaultLogger.Debug(ctx, msg, args...)
}

func Default() Logger {
	return defaultLogger
}

type contextKey string

const traceIDKey contextKey = "trace_id"

// WithTraceID attaches a trace id to the context; every log line made with
// that context carries it.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func getTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}

func GetTraceID(ctx context.Context) string {
	return getTraceID(ctx)
}
