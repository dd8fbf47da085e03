// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jeranaias/chatpane/internal/util"
)

// FileSubstrate stores each key as a JSON file in a directory.
// Writes go through util.AtomicWriteFile so a crash never leaves a
// half-written collection behind.
type FileSubstrate struct {
	dir string
	mu  sync.Mutex
}

// NewFileSubstrate creates a file substrate rooted at dir, creating the
// directory if it does not exist.
func NewFileSubstrate(dir string) (*FileSubstrate, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileSubstrate{dir: dir}, nil
}

// Dir returns the directory holding the key files.
func (f *FileSubstrate) Dir() string {
	return f.dir
}

// Path returns the file that backs key.
func (f *FileSubstrate) Path(key string) string {
	return filepath.Join(f.dir, sanitizeKey(key)+".json")
}

// Get implements Substrate.
func (f *FileSubstrate) Get(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(f.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set implements Substrate.
func (f *FileSubstrate) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := util.AtomicWriteFile(f.Path(key), []byte(value), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Remove implements Substrate.
func (f *FileSubstrate) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.Path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Close implements Substrate.
func (f *FileSubstrate) Close() error { return nil }

// sanitizeKey maps a key to a safe file name.
func sanitizeKey(key string) string {
	if key == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, key)
}
