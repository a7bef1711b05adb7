package logger

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.SugaredLogger]

func init() {
	global.Store(zap.NewNop().Sugar())
}

// Init builds the process logger. Production and staging get JSON output,
// everything else the development console encoder.
func Init(environment, level string) {
	var cfg zap.Config
	switch strings.ToLower(environment) {
	case "prod", "production", "staging":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return
	}
	global.Store(zl.Sugar())
}

// Sync flushes buffered entries.
func Sync() {
	_ = global.Load().Sync()
}

func Debug(msg string, keysAndValues ...any) {
	global.Load().Debugw(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...any) {
	global.Load().Infow(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	global.Load().Warnw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	global.Load().Errorw(msg, keysAndValues...)
}

func Fatal(msg string, keysAndValues ...any) {
	global.Load().Fatalw(msg, keysAndValues...)
}

// Scoped is a logger carrying fixed key/value pairs.
type Scoped struct {
	sugar *zap.SugaredLogger
}

// With returns a scoped logger, e.g. logger.With("component", "rfm").
func With(keysAndValues ...any) *Scoped {
	return &Scoped{sugar: global.Load().With(keysAndValues...)}
}

func (s *Scoped) Debug(msg string, keysAndValues ...any) { s.sugar.Debugw(msg, keysAndValues...) }
func (s *Scoped) Info(msg string, keysAndValues ...any)  { s.sugar.Infow(msg, keysAndValues...) }
func (s *Scoped) Warn(msg string, keysAndValues ...any)  { s.sugar.Warnw(msg, keysAndValues...) }
func (s *Scoped) Error(msg string, keysAndValues ...any) { s.sugar.Errorw(msg, keysAndValues...) }
