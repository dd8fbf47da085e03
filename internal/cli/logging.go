// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jeranaias/chatpane/internal/config"
)

// LogFileName is the TUI log written inside the data directory.
const LogFileName = "chatpane.log"

// SetupLogging builds the process logger and installs it as the slog
// default. An empty path logs to stderr. The returned close function must be
// called on exit.
func SetupLogging(level, path string) (*slog.Logger, func() error, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	var (
		w       io.Writer = os.Stderr
		closeFn           = func() error { return nil }
	)
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = f.Close
	}

	logger := NewLogger(w, lvl)
	slog.SetDefault(logger)
	return logger, closeFn, nil
}

// NewLogger returns a text logger writing to w.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// TUILogPath resolves where the TUI logs: the configured file, or
// chatpane.log in the data directory. It returns "" when neither resolves,
// which callers treat as "discard".
func TUILogPath(cfg *config.Config) string {
	if cfg.Log.File != "" {
		return cfg.Log.File
	}
	dir, err := cfg.DataDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, LogFileName)
}
