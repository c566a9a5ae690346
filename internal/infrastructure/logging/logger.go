package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nerrad567/parkpilot-core/internal/infrastructure/config"
)

// serviceName is attached to every log entry.
const serviceName = "parkpilot"

// Logger is the process-wide structured logger. Every entry carries the
// service name and build version; component loggers add a "component"
// field.
//
// Safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds a logger from the logging block of config.yaml. Unknown
// formats fall back to JSON and unknown levels to info. At debug level
// entries also carry their source location.
func New(cfg config.LoggingConfig, version string) *Logger {
	return &Logger{Logger: slog.New(newHandler(openOutput(cfg), cfg, version))}
}

func newHandler(w io.Writer, cfg config.LoggingConfig, version string) slog.Handler {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return h.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})
}

// openOutput resolves logging.output. "file" writes through lumberjack,
// which rotates by size and prunes by count and age; without a path it
// falls back to stdout.
func openOutput(cfg config.LoggingConfig) io.Writer {
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		return os.Stderr
	case "file":
		if cfg.File.Path == "" {
			return os.Stdout
		}
		return &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge,
			Compress:   cfg.File.Compress,
		}
	default:
		return os.Stdout
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger carrying args on every entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component returns a child logger tagged with component=name, e.g.
// "navigator" or "occupancy".
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Default is the bootstrap logger used until config has been loaded:
// JSON on stdout at info.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}

// Discard drops every entry. Used by tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
