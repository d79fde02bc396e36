package main

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// --- Logging ---

// Global logger instance. Defaults to a nop logger so code under test can log
// without initialization.
var logger = zap.NewNop().Sugar()

// initLogger builds the global logger from config.
func initLogger(level, format string) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	zcfg.DisableStacktrace = true
	if strings.ToLower(format) != "json" {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	l, err := zcfg.Build()
	if err != nil {
		return
	}
	logger = l.Sugar()
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Key-value logging helpers used throughout the codebase.

func logDebug(msg string, fields ...any) { logger.Debugw(msg, fields...) }
func logInfo(msg string, fields ...any)  { logger.Infow(msg, fields...) }
func logWarn(msg string, fields ...any)  { logger.Warnw(msg, fields...) }
func logError(msg string, fields ...any) { logger.Errorw(msg, fields...) }
