// Package log provides the structured, leveled logging interface used
// across the routing core. Call sites log a short message plus an even
// number of key-value context arguments, e.g.
//
//	log.Info("adopted parent", "parent", sender, "metric", metric)
//
// The default implementation is backed by go.uber.org/zap's SugaredLogger.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the interface every routing-core component logs through. It is
// deliberately narrow so that tests can supply a recording fake.
type Logger interface {
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	With(ctx ...any) Logger
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// New builds a Logger writing human-readable, leveled output to stderr.
// debug controls whether Debug-level records are emitted.
func New(debug bool) Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	z, err := cfg.Build()
	if err != nil {
		// Logging must never be the reason a node fails to start.
		z = zap.NewNop()
	}
	return &zapLogger{sugar: z.Sugar()}
}

func (l *zapLogger) Debug(msg string, ctx ...any) { l.sugar.Debugw(msg, ctx...) }
func (l *zapLogger) Info(msg string, ctx ...any)  { l.sugar.Infow(msg, ctx...) }
func (l *zapLogger) Error(msg string, ctx ...any) { l.sugar.Errorw(msg, ctx...) }

func (l *zapLogger) With(ctx ...any) Logger {
	return &zapLogger{sugar: l.sugar.With(ctx...)}
}

// root is the process-wide default logger, overridable with SetRoot (tests
// typically leave it at its zero-noise default).
var root Logger = &zapLogger{sugar: zap.NewNop().Sugar()}

// SetRoot replaces the default logger returned by Debug/Info/Error/Root.
func SetRoot(l Logger) { root = l }

// Root returns the process-wide default logger.
func Root() Logger { return root }

func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }

// HandlePanic recovers a panic in the current goroutine and logs it instead
// of crashing the process. Every goroutine spawned by the routing core or
// the simulator defers this first, mirroring the teacher's
// `defer log.HandlePanic()` pattern so one node's bug cannot take down a
// simulation of many nodes sharing a process.
func HandlePanic() {
	if r := recover(); r != nil {
		root.Error("recovered from panic", "panic", r)
	}
}

func init() {
	if os.Getenv("WSNCOLLECT_DEBUG_LOG") != "" {
		SetRoot(New(true))
	}
}
