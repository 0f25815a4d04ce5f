package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ContextKey string

const (
	// RequestIDKey carries the id of the dispatch a log line belongs to.
	RequestIDKey ContextKey = "requestID"
)

type LogManager interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	DebugF(format string, args ...any)
	InfoF(format string, args ...any)
	WarnF(format string, args ...any)
	ErrorF(format string, args ...any)

	DebugFCtx(ctx context.Context, format string, args ...any)
	InfoFCtx(ctx context.Context, format string, args ...any)
	WarnFCtx(ctx context.Context, format string, args ...any)
	ErrorFCtx(ctx context.Context, format string, args ...any)

	With(keyValues ...any) LogManager

	Sync() error
	SetLogLevel(level string) error
}

// LoggerOptions for custom configuration
type LoggerOptions struct {
	Name         string
	Level        string
	Encoding     string // "json" or "console"
	OutputPaths  []string
	ErrorPaths   []string
	EnableCaller bool
	TimeFormat   string
}

func (o LoggerOptions) withDefaults() LoggerOptions {
	if o.Encoding == "" {
		o.Encoding = "console"
	}
	if o.TimeFormat == "" {
		o.TimeFormat = time.RFC3339
	}
	if len(o.OutputPaths) == 0 {
		o.OutputPaths = []string{"stdout"}
	}
	if len(o.ErrorPaths) == 0 {
		o.ErrorPaths = []string{"stderr"}
	}
	return o
}

func (o LoggerOptions) encoderConfig() zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeTime = zapcore.TimeEncoderOfLayout(o.TimeFormat)
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder
	if !o.EnableCaller {
		enc.CallerKey = zapcore.OmitKey
	}
	return enc
}

// NewLogger creates a zap-backed logger. Unknown levels fall back to info.
func NewLogger(opts LoggerOptions) (LogManager, error) {
	opts = opts.withDefaults()

	level, err := zap.ParseAtomicLevel(opts.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	z, err := zap.Config{
		Level:            level,
		Development:      level.Level() == zap.DebugLevel,
		Encoding:         opts.Encoding,
		EncoderConfig:    opts.encoderConfig(),
		OutputPaths:      opts.OutputPaths,
		ErrorOutputPaths: opts.ErrorPaths,
	}.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if opts.Name != "" {
		z = z.Named(opts.Name)
	}
	return &logger{Log: z.Sugar(), atomicLevel: level}, nil
}

// NewFromZap wraps an existing zap logger, e.g. one built with zaptest.
func NewFromZap(z *zap.Logger) LogManager {
	return &logger{Log: z.Sugar(), atomicLevel: zap.NewAtomicLevelAt(zap.DebugLevel)}
}

// NewNop returns a logger that discards everything.
func NewNop() LogManager {
	return NewFromZap(zap.NewNop())
}

// MustNewDefaultLogger creates a console logger named "apostle" at info level.
func MustNewDefaultLogger() LogManager {
	logger, err := NewLogger(LoggerOptions{
		Name:         "apostle",
		Level:        "info",
		Encoding:     "console",
		EnableCaller: true,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "apostle: logger init failed:", err)
		os.Exit(1)
	}
	return logger
}
