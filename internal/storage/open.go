// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// SQLiteFileName is the database file created in the data directory.
const SQLiteFileName = "chatpane.db"

// Options selects and configures a substrate.
type Options struct {
	Backend string
	DataDir string
	Redis   RedisOptions
	Logger  *slog.Logger

	// MemoryFallback makes Open return a MemorySubstrate instead of
	// UnavailableSubstrate when no data directory can be resolved, so the
	// session still works without being saved.
	MemoryFallback bool
}

// DefaultDataDir returns ~/.chatpane.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".chatpane"), nil
}

// Open creates the substrate named by opts.Backend. When the data directory
// cannot be resolved for a disk backend, Open logs a warning and returns
// UnavailableSubstrate so reads still succeed with an empty collection, or a
// MemorySubstrate when opts.MemoryFallback is set.
func Open(ctx context.Context, opts Options) (Substrate, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	backend := opts.Backend
	if backend == "" {
		backend = BackendFile
	}

	switch backend {
	case BackendMemory:
		return NewMemorySubstrate(), nil

	case BackendRedis:
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return NewRedisSubstrate(ctx, opts.Redis)

	case BackendFile, BackendSQLite:
		dir := opts.DataDir
		if dir == "" {
			var err error
			dir, err = DefaultDataDir()
			if err != nil {
				if opts.MemoryFallback {
					logger.Warn("STORE_EPHEMERAL", "reason", "no data directory", "error", err)
					return NewMemorySubstrate(), nil
				}
				logger.Warn("STORE_UNAVAILABLE", "reason", "no data directory", "error", err)
				return UnavailableSubstrate{}, nil
			}
		}
		if backend == BackendSQLite {
			return NewSQLiteSubstrate(filepath.Join(dir, SQLiteFileName))
		}
		return NewFileSubstrate(dir)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
