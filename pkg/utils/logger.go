package utils

import (
	"fmt"

	"go.uber.org/zap"
)

// NewSugaredLogger creates a sugared logger writing to stderr. Verbose selects a
// development logger (console encoding, debug level), otherwise a production
// logger (JSON, info level).
func NewSugaredLogger(verbose bool) (*zap.SugaredLogger, error) {
	return NewSugaredLoggerTo(verbose, nil)
}

// NewSugaredLoggerTo is NewSugaredLogger with explicit output paths (files,
// "stderr", "stdout"). Empty paths keep stderr.
func NewSugaredLoggerTo(verbose bool, paths []string) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	if len(paths) > 0 {
		cfg.OutputPaths = paths
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l.Sugar(), nil
}
