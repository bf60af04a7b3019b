package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 7
)

// newLogger builds a console logger on stderr, or a JSON logger on a rotating
// file when logFile is set. Only warnings are logged unless verbose.
func newLogger(verbose bool, logFile string) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	}

	if logFile == "" {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = level
		cfg.OutputPaths = []string{"stderr"}
		return cfg.Build()
	}

	rw := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    logMaxSizeMB,  // megabytes
		MaxAge:     logMaxAgeDays, // days
		MaxBackups: logMaxBackups, // files
		Compress:   true,
	}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.AddSync(rw), level),
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zapcore.ErrorLevel),
	)
	return zap.New(core, zap.AddCaller()), nil
}
