package log

import (
	"context"
	"io"
	"log/slog"
	"os"

	mlerrors "github.com/YuminosukeSato/mlkit/pkg/errors"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// SlogLogger implements Logger on a *slog.Logger.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps an existing slog logger.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: l}
}

func (s *SlogLogger) Debug(msg string, fields ...any) { s.logger.Debug(msg, fields...) }
func (s *SlogLogger) Info(msg string, fields ...any)  { s.logger.Info(msg, fields...) }
func (s *SlogLogger) Warn(msg string, fields ...any)  { s.logger.Warn(msg, fields...) }

// Error attaches a leading error argument under ErrAttrKey so that
// ErrFmtHandler can extract its stack trace.
func (s *SlogLogger) Error(msg string, fields ...any) {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			fields = append([]any{ErrAttr(err)}, fields[1:]...)
		}
	}
	s.logger.Error(msg, fields...)
}

func (s *SlogLogger) With(fields ...any) Logger {
	return &SlogLogger{logger: s.logger.With(fields...)}
}

func (s *SlogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.logger.Enabled(ctx, slog.Level(level))
}

// SlogProvider builds SlogLoggers sharing one handler and level.
type SlogProvider struct {
	level  *slog.LevelVar
	logger *slog.Logger
}

// NewSlogProvider creates a JSON slog provider in Cloud Logging field layout.
func NewSlogProvider(w io.Writer, level Level) *SlogProvider {
	lv := &slog.LevelVar{}
	lv.Set(slog.Level(level))
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     lv,
		// Replace attributes to convert to CloudLogging format.
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{Key: "severity", Value: attr.Value}
			case slog.MessageKey:
				attr = slog.Attr{Key: "message", Value: attr.Value}
			case slog.SourceKey:
				attr = slog.Attr{Key: "logging.googleapis.com/sourceLocation", Value: attr.Value}
			}
			return attr
		},
	}
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(w, &ops))
	return &SlogProvider{level: lv, logger: slog.New(handler)}
}

func (p *SlogProvider) GetLogger() Logger { return &SlogLogger{logger: p.logger} }

func (p *SlogProvider) GetLoggerWithName(name string) Logger {
	return &SlogLogger{logger: p.logger.With(ComponentKey, name)}
}

func (p *SlogProvider) SetLevel(level Level) { p.level.Set(slog.Level(level)) }

// SetupLogger function setup logger.
// backend is "zerolog", "console" or "slog"; level is a ParseLevel name.
func SetupLogger(backend, level string) error {
	lv, ok := ParseLevel(level)
	if !ok {
		return mlerrors.NewValidationError("log.level", "must be debug, info, warn or error", level)
	}
	switch backend {
	case "", "zerolog":
		SetProvider(NewZerologProvider(os.Stderr, lv))
	case "console":
		SetProvider(NewConsoleProvider(os.Stderr, lv))
	case "slog":
		p := NewSlogProvider(os.Stdout, lv)
		slog.SetDefault(p.logger)
		SetProvider(p)
	default:
		return mlerrors.NewValidationError("log.backend", "must be zerolog, console or slog", backend)
	}
	return nil
}
