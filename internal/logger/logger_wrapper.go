package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/leandrodaf/midihex/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements contracts.Logger on top of zap. Output goes to stderr
// by default because stdout carries MIDI data.
type ZapLogger struct {
	mu     sync.RWMutex
	logger *zap.Logger
	level  zap.AtomicLevel
	fields []zap.Field
}

// NewZapLogger creates a logger writing console-encoded entries to stderr.
func NewZapLogger() contracts.Logger {
	return NewZapLoggerTo(os.Stderr)
}

// NewZapLoggerTo creates a logger writing console-encoded entries to w.
func NewZapLoggerTo(w io.Writer) contracts.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return &ZapLogger{
		logger: zap.New(newCore(zapcore.Lock(zapcore.AddSync(w)), level)),
		level:  level,
	}
}

// NewFromZap wraps an existing zap logger, typically one built from an
// observer core in tests. The level starts at the lowest level the wrapped
// core enables and SetLevel can only raise it above the core's own filter.
func NewFromZap(l *zap.Logger) contracts.Logger {
	level := zap.NewAtomicLevelAt(lowestEnabled(l.Core()))
	core, err := zapcore.NewIncreaseLevelCore(l.Core(), level)
	if err != nil {
		// The core enables nothing, as with zap.NewNop.
		return &ZapLogger{logger: l, level: level}
	}
	return &ZapLogger{
		logger: l.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core { return core })),
		level:  level,
	}
}

func lowestEnabled(core zapcore.Core) zapcore.Level {
	for lvl := zapcore.DebugLevel; lvl < zapcore.FatalLevel; lvl++ {
		if core.Enabled(lvl) {
			return lvl
		}
	}
	return zapcore.FatalLevel
}

func newCore(ws zapcore.WriteSyncer, level zap.AtomicLevel) zapcore.Core {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), ws, level)
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.log(zapcore.InfoLevel, msg, fields...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.log(zapcore.ErrorLevel, msg, fields...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.log(zapcore.DebugLevel, msg, fields...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.log(zapcore.WarnLevel, msg, fields...)
}

// Fatal logs a message at the FATAL level and terminates the application
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.log(zapcore.FatalLevel, msg, fields...)
}

// Field returns a builder for typed fields.
func (z *ZapLogger) Field() contracts.Field {
	return zapField{}
}

// With returns a child logger sharing the level and destination.
func (z *ZapLogger) With(fields ...contracts.Field) contracts.Logger {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return &ZapLogger{
		logger: z.logger,
		level:  z.level,
		fields: append(append([]zap.Field(nil), z.fields...), toZap(fields)...),
	}
}

// SetLevel sets the logging level
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.level.SetLevel(toZapLevel(level))
}

// SetDestination switches output between stderr and a file.
func (z *ZapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) error {
	var ws zapcore.WriteSyncer
	switch dest {
	case contracts.ConsoleLog:
		ws = zapcore.Lock(os.Stderr)
	case contracts.FileLog:
		if len(filePath) == 0 || filePath[0] == "" {
			return fmt.Errorf("file log destination requires a path")
		}
		f, err := os.OpenFile(filePath[0], os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		ws = zapcore.Lock(f)
	default:
		return fmt.Errorf("unknown log destination %q", dest)
	}

	z.mu.Lock()
	defer z.mu.Unlock()
	_ = z.logger.Sync()
	z.logger = zap.New(newCore(ws, z.level))
	return nil
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.logger.Sync()
}

func (z *ZapLogger) log(level zapcore.Level, msg string, fields ...contracts.Field) {
	z.mu.RLock()
	l := z.logger
	base := z.fields
	z.mu.RUnlock()

	ce := l.Check(level, msg)
	if ce == nil {
		return
	}
	all := make([]zap.Field, 0, len(base)+len(fields))
	all = append(all, base...)
	all = append(all, toZap(fields)...)
	ce.Write(all...)
}

func toZapLevel(level contracts.LogLevel) zapcore.Level {
	switch level {
	case contracts.DebugLevel:
		return zapcore.DebugLevel
	case contracts.WarnLevel:
		return zapcore.WarnLevel
	case contracts.ErrorLevel:
		return zapcore.ErrorLevel
	case contracts.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZap(fields []contracts.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if f, ok := field.(zapField); ok && f.field.Key != "" {
			out = append(out, f.field)
		}
	}
	return out
}

// zapField implements contracts.Field
type zapField struct {
	field zap.Field
}

func (zapField) Bool(key string, val bool) contracts.Field {
	return zapField{zap.Bool(key, val)}
}

func (zapField) Int(key string, val int) contracts.Field {
	return zapField{zap.Int(key, val)}
}

func (zapField) Float64(key string, val float64) contracts.Field {
	return zapField{zap.Float64(key, val)}
}

func (zapField) String(key string, val string) contracts.Field {
	return zapField{zap.String(key, val)}
}

func (zapField) Time(key string, val time.Time) contracts.Field {
	return zapField{zap.Time(key, val)}
}

func (zapField) Int64(key string, val int64) contracts.Field {
	return zapField{zap.Int64(key, val)}
}

func (zapField) Error(key string, val error) contracts.Field {
	return zapField{zap.NamedError(key, val)}
}

func (zapField) Uint64(key string, val uint64) contracts.Field {
	return zapField{zap.Uint64(key, val)}
}

func (zapField) Uint8(key string, val uint8) contracts.Field {
	return zapField{zap.Uint8(key, val)}
}

func (zapField) Binary(key string, val []byte) contracts.Field {
	return zapField{zap.Binary(key, val)}
}

func (zapField) Stringer(key string, val fmt.Stringer) contracts.Field {
	return zapField{zap.Stringer(key, val)}
}
