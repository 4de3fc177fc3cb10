// Package cli provides the command-line interface for StGTrade
package cli

import (
	"os"

	"go.uber.org/zap"
)

// Run starts the CLI application
func Run() {
	rootCmd := NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger. Debug mode switches to the
// development config so stage internals are visible; otherwise only
// warnings reach the terminal and the styled UI stays clean.
func newLogger(debug bool) *zap.Logger {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		logger, err := cfg.Build()
		if err != nil {
			return zap.NewNop()
		}
		return logger
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
