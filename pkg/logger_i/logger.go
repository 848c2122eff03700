package logger_i

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

type Logger struct {
	inner *slog.Logger
}

type Options struct {
	Level   string
	JSON    bool
	LogFile string
}

// Init installs the process wide slog handler. When LogFile is set, records go to
// stdout and to the file. The returned closer releases the file. An unopenable
// file is reported but stdout logging is still installed.
func Init(opts Options) (io.Closer, error) {
	handlerOptions := &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: true,
	}

	var out io.Writer = os.Stdout
	var closer io.Closer = io.NopCloser(nil)
	var fileErr error
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fileErr = err
		} else {
			out = io.MultiWriter(os.Stdout, f)
			closer = f
		}
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(out, handlerOptions)
	} else {
		handler = slog.NewTextHandler(out, handlerOptions)
	}
	slog.SetDefault(slog.New(handler))
	return closer, fileErr
}

func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func NewLogger(section string) *Logger {
	return &Logger{
		inner: slog.Default().With("component", section),
	}
}

func (l *Logger) Info(msg string, args ...any) {
	l.logWithSource(slog.LevelInfo, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.logWithSource(slog.LevelError, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.logWithSource(slog.LevelWarn, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.logWithSource(slog.LevelDebug, msg, args...)
}

func (l *Logger) logWithSource(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	if !l.inner.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	// Skip 3 levels: runtime.Callers, logWithSource, and the level wrapper
	runtime.Callers(3, pcs[:])
	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.Add(args...)
	_ = l.inner.Handler().Handle(ctx, record)
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		inner: l.inner.With(args...),
	}
}

// WithTrace attaches the trace id stored in ctx under key, if any.
func (l *Logger) WithTrace(ctx context.Context, key any) *Logger {
	if ctx == nil {
		return l
	}
	if trace, ok := ctx.Value(key).(string); ok && trace != "" {
		return l.With("traceId", trace)
	}
	return l
}
