package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Env     string
	Service string
	// Level overrides the env default; invalid values fall back to the default.
	Level string
	// File, when set, adds a rotated JSON sink.
	File string
}

// New returns a structured logger.
// Local and dev get a console encoder at debug level; everything else logs JSON at info.
// No business logic should depend on logging implementation details.
func New(opts Options) *zap.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	local := opts.Env == "local" || opts.Env == "dev"
	if local {
		level.SetLevel(zapcore.DebugLevel)
	}
	if opts.Level != "" {
		if parsed, err := zap.ParseAtomicLevel(opts.Level); err == nil {
			level = parsed
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var stdoutEncoder zapcore.Encoder
	if local {
		devCfg := zap.NewDevelopmentEncoderConfig()
		devCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		stdoutEncoder = zapcore.NewConsoleEncoder(devCfg)
	} else {
		stdoutEncoder = zapcore.NewJSONEncoder(encCfg)
	}

	cores := []zapcore.Core{zapcore.NewCore(stdoutEncoder, zapcore.AddSync(os.Stdout), level)}
	if opts.File != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), fileWriter, level))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if opts.Service != "" {
		l = l.With(zap.String("service", opts.Service))
	}
	return l
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to the global logger.
func From(ctx context.Context) *zap.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return zap.L()
}

// ShutdownFlush flushes buffered entries. Sync errors on stdout are expected on
// some platforms and ignored.
func ShutdownFlush(l *zap.Logger) {
	_ = l.Sync()
}
