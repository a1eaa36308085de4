// Package logging wires a zap logger for ERIK. The interactive TUI owns the
// terminal, so its logger writes to a file; one-shot commands log to stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

// InitConsole builds a stderr logger for non-interactive commands.
func InitConsole(verbose bool) error {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// InitFile builds a logger that appends to path, creating parent directories
// as needed. Used while the TUI is active.
func InitFile(path string, verbose bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// L returns the process logger. Safe to call before Init; it is a no-op
// logger until one of the Init functions runs.
func L() *zap.Logger { return logger }

// Sync flushes buffered entries. Call at shutdown.
func Sync() {
	_ = logger.Sync()
}
