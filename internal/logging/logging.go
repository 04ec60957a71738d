// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the structured logger used by the CLI.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/step-features/pkg/types"
)

// New creates a logger from cfg. Unknown levels fall back to info; any
// format other than "json" is written as console text. Output goes to
// stderr so stdout carries only command results.
func New(cfg types.LogConfig) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	if cfg.Format == "json" {
		zapConfig.Encoding = "json"
	} else {
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	zapConfig.DisableStacktrace = true
	zapConfig.Sampling = nil

	return zapConfig.Build()
}

// NewDefault returns an info-level console logger, or a no-op logger if
// building fails.
func NewDefault() *zap.Logger {
	log, err := New(types.LogConfig{Level: "info", Format: "console"})
	if err != nil {
		return zap.NewNop()
	}
	return log
}
