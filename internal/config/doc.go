// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for chatpane.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - EndpointConfig: Streaming endpoint URL and timeout
//   - StorageConfig: Persistence backend selection
//   - UIConfig: Terminal UI appearance
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CHATPANE_*), including values from ./.env
//   - ~/.chatpane/config.toml
//   - ~/.chatpane/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sub, err := storage.Open(ctx, cfg.StorageOptions(logger))
package config
