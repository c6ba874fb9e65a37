package log

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	mlerrors "github.com/YuminosukeSato/mlkit/pkg/errors"
)

// ZerologLogger implements Logger on top of zerolog.
// Level filtering is shared with the provider that created it, so
// SetLevel also affects loggers handed out earlier.
type ZerologLogger struct {
	logger zerolog.Logger
	level  *atomic.Int64
}

// Debug implements Logger.Debug.
func (z *ZerologLogger) Debug(msg string, fields ...any) {
	z.emit(LevelDebug, msg, fields)
}

// Info implements Logger.Info.
func (z *ZerologLogger) Info(msg string, fields ...any) {
	z.emit(LevelInfo, msg, fields)
}

// Warn implements Logger.Warn.
func (z *ZerologLogger) Warn(msg string, fields ...any) {
	z.emit(LevelWarn, msg, fields)
}

// Error implements Logger.Error.
func (z *ZerologLogger) Error(msg string, fields ...any) {
	z.emit(LevelError, msg, fields)
}

// With implements Logger.With.
func (z *ZerologLogger) With(fields ...any) Logger {
	return &ZerologLogger{
		logger: z.logger.With().Fields(pairs(fields)).Logger(),
		level:  z.level,
	}
}

// Enabled implements Logger.Enabled.
func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return level >= Level(z.level.Load())
}

// Zerolog exposes the underlying zerolog.Logger for callers that want
// typed fields or EmbedObject.
func (z *ZerologLogger) Zerolog() *zerolog.Logger {
	return &z.logger
}

func (z *ZerologLogger) emit(level Level, msg string, fields []any) {
	if !z.Enabled(context.Background(), level) {
		return
	}
	var ev *zerolog.Event
	switch level {
	case LevelDebug:
		ev = z.logger.Debug()
	case LevelInfo:
		ev = z.logger.Info()
	case LevelWarn:
		ev = z.logger.Warn()
	default:
		ev = z.logger.Error()
	}
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Err(err)
			if code := ErrorCode(err); code != "" {
				ev = ev.Str(ErrorCodeKey, code)
			}
			fields = fields[1:]
		}
	}
	ev.Fields(pairs(fields)).Msg(msg)
}

// pairs drops a trailing key without a value.
func pairs(fields []any) []any {
	if len(fields)%2 == 1 {
		return fields[:len(fields)-1]
	}
	return fields
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ZerologProvider hands out ZerologLoggers writing JSON lines to one writer.
type ZerologProvider struct {
	base  zerolog.Logger
	level *atomic.Int64
}

// NewZerologProvider creates a provider writing to w at the given minimum level.
func NewZerologProvider(w io.Writer, level Level) *ZerologProvider {
	p := &ZerologProvider{
		base:  zerolog.New(w).With().Timestamp().Logger(),
		level: &atomic.Int64{},
	}
	p.level.Store(int64(level))
	return p
}

// NewConsoleProvider creates a provider with zerolog's human-readable console writer.
func NewConsoleProvider(w io.Writer, level Level) *ZerologProvider {
	return NewZerologProvider(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}, level)
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	return &ZerologLogger{logger: p.base, level: p.level}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return &ZerologLogger{
		logger: p.base.With().Str(ComponentKey, name).Logger(),
		level:  p.level,
	}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.level.Store(int64(level))
}

// warn emits a library warning, embedding its structured fields when it has them.
func (p *ZerologProvider) warn(w error) {
	if Level(p.level.Load()) > LevelWarn {
		return
	}
	ev := p.base.Warn()
	if m, ok := w.(zerolog.LogObjectMarshaler); ok {
		ev = ev.EmbedObject(m)
	}
	ev.Msg(w.Error())
}

var (
	providerMu sync.RWMutex
	provider   LoggerProvider
)

func init() {
	SetProvider(NewZerologProvider(os.Stderr, LevelWarn))
}

// SetProvider replaces the global provider and routes errors.Warn through it.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	provider = p
	providerMu.Unlock()

	if zp, ok := p.(*ZerologProvider); ok {
		mlerrors.SetZerologWarnFunc(zp.warn)
		return
	}
	mlerrors.SetZerologWarnFunc(func(w error) {
		p.GetLogger().Warn(w.Error(), ErrorTypeKey, "warning")
	})
}

// GetProvider returns the global provider.
func GetProvider() LoggerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider
}

// GetLogger returns a logger from the global provider.
func GetLogger() Logger {
	return GetProvider().GetLogger()
}

// GetLoggerWithName returns a named logger from the global provider.
func GetLoggerWithName(name string) Logger {
	return GetProvider().GetLoggerWithName(name)
}

// SetLevel sets the minimum level on the global provider.
func SetLevel(level Level) {
	GetProvider().SetLevel(level)
}

// NewZerologLogger returns a standalone logger writing JSON lines to w.
func NewZerologLogger(w io.Writer, level Level) Logger {
	return NewZerologProvider(w, level).GetLogger()
}
