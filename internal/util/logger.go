package util

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	portalLogger *zap.Logger
	initOnce     sync.Once
)

var levelNames = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
	"fatal":   zapcore.FatalLevel,
	"panic":   zapcore.PanicLevel,
}

// Init builds the process-wide logger. Production gets sampled JSON with
// ISO8601 timestamps; development gets colored console output. Every entry
// carries a service field so portal lines are separable in shared log
// pipelines. Output always goes to stdout/stderr for container capture.
func Init(environment, level, format string) *zap.Logger {
	initOnce.Do(func() {
		lvl, ok := levelNames[level]
		if !ok {
			lvl = zapcore.InfoLevel
		}

		var cfg zap.Config
		if environment == "production" {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.TimeKey = "timestamp"
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			cfg.DisableStacktrace = true
			cfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
		} else {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		if format == "json" {
			cfg.Encoding = "json"
		} else {
			cfg.Encoding = "console"
		}
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}

		logger, err := cfg.Build(
			zap.AddCaller(),
			zap.AddCallerSkip(1),
			zap.Fields(zap.String("service", "jobportal")),
		)
		if err != nil {
			panic("logger init: " + err.Error())
		}

		portalLogger = logger
		zap.ReplaceGlobals(portalLogger)
	})

	return portalLogger
}

// Get returns the portal logger, initializing a production default when Init
// was never called (tests, one-off tools).
func Get() *zap.Logger {
	if portalLogger == nil {
		return Init("production", "info", "json")
	}
	return portalLogger
}

// Sync flushes buffered entries, called on shutdown.
func Sync() {
	if portalLogger != nil {
		_ = portalLogger.Sync()
	}
}

func Debug(msg string, fields ...zap.Field) { Get().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Get().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Get().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Get().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { Get().Fatal(msg, fields...) }

// Field helpers so call sites don't need a zap import of their own.
func String(key, value string) zap.Field { return zap.String(key, value) }
func Bool(key string, value bool) zap.Field { return zap.Bool(key, value) }
func Int(key string, value int) zap.Field { return zap.Int(key, value) }

func Duration(key string, value time.Duration) zap.Field {
	return zap.Duration(key, value)
}

// ErrorField wraps zap.Error under a name that doesn't collide with the
// leveled Error above.
func ErrorField(err error) zap.Field { return zap.Error(err) }
