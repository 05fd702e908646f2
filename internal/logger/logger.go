// Package logger provides structured, context-aware logging on top of zap.
package logger

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is the minimum severity a logger emits.
type Level int8

// Supported levels.
const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	return l.zap().String()
}

func (l Level) zap() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// LoggerInterface is what business code depends on.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// The c variants skip extra stack frames when resolving the caller.
	Debugc(ctx context.Context, caller int, msg string, args ...any)
	Infoc(ctx context.Context, caller int, msg string, args ...any)
	Warnc(ctx context.Context, caller int, msg string, args ...any)
	Errorc(ctx context.Context, caller int, msg string, args ...any)
}

// FileConfig configures rotated file output.
type FileConfig struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Record is handed to Options.Hook for every emitted entry.
type Record struct {
	Level   Level
	Message string
	Fields  map[string]any
}

// Options tunes a Logger beyond the writer and level.
type Options struct {
	// File adds a JSON core writing to a lumberjack-rotated file.
	File *FileConfig
	// Hook receives every entry at or above the logger level.
	Hook func(Record)
}

// Logger implements LoggerInterface.
type Logger struct {
	z      *zap.Logger
	level  Level
	hook   func(Record)
	closer io.Closer
}

var _ LoggerInterface = (*Logger)(nil)

// New builds a logger writing console-encoded entries to w. A nil or
// io.Discard writer produces no console output.
func New(w io.Writer, minLevel Level, serviceName string, opts *Options) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	level := minLevel.zap()

	var cores []zapcore.Core
	if w != nil && w != io.Discard {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level))
	}

	l := &Logger{level: minLevel}

	if opts != nil {
		l.hook = opts.Hook
		if opts.File != nil && opts.File.Filename != "" {
			rotator := &lumberjack.Logger{
				Filename:   opts.File.Filename,
				MaxSize:    opts.File.MaxSizeMB,
				MaxBackups: opts.File.MaxBackups,
				MaxAge:     opts.File.MaxAgeDays,
				Compress:   opts.File.Compress,
			}
			l.closer = rotator
			cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotator), level))
		}
	}

	core := zapcore.NewNopCore()
	if len(cores) > 0 {
		core = zapcore.NewTee(cores...)
	}

	l.z = zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(2),
		zap.AddStacktrace(zapcore.ErrorLevel),
	).With(zap.String("service", serviceName))

	return l
}

// NewNop returns a logger that drops everything.
func NewNop() *Logger {
	return New(nil, LevelError, "", nil)
}

// Sync flushes buffered entries and closes the rotated file, if any.
func (l *Logger) Sync() error {
	_ = l.z.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.write(ctx, 0, LevelDebug, msg, args)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, 0, LevelInfo, msg, args)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, 0, LevelWarn, msg, args)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, 0, LevelError, msg, args)
}

func (l *Logger) Debugc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, caller, LevelDebug, msg, args)
}

func (l *Logger) Infoc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, caller, LevelInfo, msg, args)
}

func (l *Logger) Warnc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, caller, LevelWarn, msg, args)
}

func (l *Logger) Errorc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, caller, LevelError, msg, args)
}

func (l *Logger) write(ctx context.Context, caller int, level Level, msg string, args []any) {
	if level < l.level {
		return
	}

	fields := toFields(args)
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
		}
	}

	z := l.z
	if caller > 0 {
		z = z.WithOptions(zap.AddCallerSkip(caller))
	}
	if ce := z.Check(level.zap(), msg); ce != nil {
		ce.Write(fields...)
	}

	if l.hook != nil {
		l.hook(Record{Level: level, Message: msg, Fields: toMap(args)})
	}
}

// toFields turns alternating key/value pairs into zap fields.
func toFields(args []any) []zap.Field {
	fields := make([]zap.Field, 0, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fields = append(fields, zap.Any("!BADKEY", args[i]))
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if err, ok := args[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}

func toMap(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	m := make(map[string]any, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			m["!BADKEY"] = args[i]
			break
		}
		m[fmt.Sprint(args[i])] = args[i+1]
	}
	return m
}
