package dcmstream

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

/*
===============================================================================
    Logging
===============================================================================
*/

// ExitOnFatalLog specifies whether the application should `os.Exit(1)` on a fatal log message
var ExitOnFatalLog = true

var (
	logLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	loggerMu  sync.RWMutex
	logger    = NewConsoleLogger(zapcore.Lock(os.Stderr))
	loggerOff bool
)

func normaliseWriters(writers ...zapcore.WriteSyncer) zapcore.WriteSyncer {
	if len(writers) == 1 {
		return writers[0]
	}
	return zapcore.NewMultiWriteSyncer(writers...)
}

// NewJSONLogger creates a `zap.SugaredLogger` configured for JSON output to `writers`.
// Its level follows `SetLoggingLevel`.
func NewJSONLogger(writers ...zapcore.WriteSyncer) *zap.SugaredLogger {
	writer := normaliseWriters(writers...)
	encoderCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		TimeKey:        "ts",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), writer, logLevel)
	return zap.New(core).Sugar()
}

// NewConsoleLogger creates a `zap.SugaredLogger` configured for human-readable output to `writers`.
// Its level follows `SetLoggingLevel`.
func NewConsoleLogger(writers ...zapcore.WriteSyncer) *zap.SugaredLogger {
	writer := normaliseWriters(writers...)
	encoderCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		TimeKey:        "ts",
		EncodeLevel:    zapcore.LowercaseColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), writer, logLevel)
	return zap.New(core).Sugar()
}

// SetLogger replaces the package logger
func SetLogger(l *zap.SugaredLogger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// Logger returns the package logger, or a no-op logger if logging is disabled
func Logger() *zap.SugaredLogger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if loggerOff {
		return zap.NewNop().Sugar()
	}
	return logger
}

// SetLoggingLevel takes a level string and accordingly sets the level of the package logger
// Supported values:
// "debug" / "5": all logging enabled
// "info" / "4":  info and above enabled
// "warn" / "3":  warn and above enabled
// "error" / "2": error and above enabled
// "fatal" / "1": only fatal enabled
// "disabled" / "none" / "off", "0": all logging disabled
func SetLoggingLevel(level string) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	loggerOff = false
	switch strings.ToLower(level) {
	case "debug", "5":
		logLevel.SetLevel(zapcore.DebugLevel)
	case "info", "4":
		logLevel.SetLevel(zapcore.InfoLevel)
	case "warn", "3":
		logLevel.SetLevel(zapcore.WarnLevel)
	case "error", "2":
		logLevel.SetLevel(zapcore.ErrorLevel)
	case "fatal", "1":
		logLevel.SetLevel(zapcore.FatalLevel)
	case "disabled", "none", "off", "0":
		loggerOff = true
	}
}

// isValidLogLevel returns whether `level` is understood by `SetLoggingLevel`
func isValidLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error", "fatal", "none", "disabled", "off", "0", "1", "2", "3", "4", "5":
		return true
	}
	return false
}

// Debugf logs at debug level. Arguments are handled in the manner of fmt.Printf
func Debugf(format string, v ...interface{}) {
	Logger().Debugf(format, v...)
}

// Infof logs at info level. Arguments are handled in the manner of fmt.Printf
func Infof(format string, v ...interface{}) {
	Logger().Infof(format, v...)
}

// Warnf logs at warn level. Arguments are handled in the manner of fmt.Printf
func Warnf(format string, v ...interface{}) {
	Logger().Warnf(format, v...)
}

// Errorf logs at error level. Arguments are handled in the manner of fmt.Printf
func Errorf(format string, v ...interface{}) {
	Logger().Errorf(format, v...)
}

// Fatalf logs at error level, flushes the logger and then exits if `ExitOnFatalLog` is set.
// Arguments are handled in the manner of fmt.Printf
func Fatalf(format string, v ...interface{}) {
	l := Logger()
	l.Errorf(format, v...)
	_ = l.Sync()
	if ExitOnFatalLog {
		os.Exit(1)
	}
}
