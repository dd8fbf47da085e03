// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"sync"
)

// =============================================================================
// SUBSTRATE PORT
// =============================================================================

// Substrate is a string key-value store. Implementations must be safe for
// concurrent use within one process.
type Substrate interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases any resources held by the substrate.
	Close() error
}

// =============================================================================
// MEMORY SUBSTRATE
// =============================================================================

// MemorySubstrate keeps values in a map. Nothing survives the process.
type MemorySubstrate struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemorySubstrate creates an empty in-memory substrate.
func NewMemorySubstrate() *MemorySubstrate {
	return &MemorySubstrate{values: make(map[string]string)}
}

// Get implements Substrate.
func (m *MemorySubstrate) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Substrate.
func (m *MemorySubstrate) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove implements Substrate.
func (m *MemorySubstrate) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Close implements Substrate.
func (m *MemorySubstrate) Close() error { return nil }

// =============================================================================
// UNAVAILABLE SUBSTRATE
// =============================================================================

// UnavailableSubstrate stands in when no storage can be reached. Every call
// fails with ErrUnavailable; ChatStore turns failed reads into an empty
// collection.
type UnavailableSubstrate struct{}

// Get implements Substrate.
func (UnavailableSubstrate) Get(context.Context, string) (string, bool, error) {
	return "", false, ErrUnavailable
}

// Set implements Substrate.
func (UnavailableSubstrate) Set(context.Context, string, string) error {
	return ErrUnavailable
}

// Remove implements Substrate.
func (UnavailableSubstrate) Remove(context.Context, string) error {
	return ErrUnavailable
}

// Close implements Substrate.
func (UnavailableSubstrate) Close() error { return nil }
