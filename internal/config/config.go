// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/chatpane/internal/client"
	"github.com/jeranaias/chatpane/internal/storage"
	"github.com/jeranaias/chatpane/internal/ui/styles"
	"github.com/jeranaias/chatpane/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatpane configuration.
type Config struct {
	Endpoint EndpointConfig `toml:"endpoint" json:"endpoint"`
	Storage  StorageConfig  `toml:"storage" json:"storage"`
	UI       UIConfig       `toml:"ui" json:"ui"`
	Log      LogConfig      `toml:"log" json:"log"`
	Server   ServerConfig   `toml:"server" json:"server"`
}

// EndpointConfig describes the streaming chat endpoint.
type EndpointConfig struct {
	URL string `toml:"url" json:"url"`

	// TimeoutSecs bounds the wait for response headers. The stream itself
	// is not bounded. Zero disables the limit.
	TimeoutSecs int `toml:"timeout" json:"timeout"`

	// Token is sent as a bearer token when set.
	Token string `toml:"token" json:"token"`
}

// StorageConfig selects the persistence substrate.
type StorageConfig struct {
	Backend       string `toml:"backend" json:"backend"`
	DataDir       string `toml:"data_dir" json:"data_dir"`
	RedisAddr     string `toml:"redis_addr" json:"redis_addr"`
	RedisPassword string `toml:"redis_password" json:"redis_password"`
	RedisDB       int    `toml:"redis_db" json:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix" json:"redis_prefix"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	SidebarWidth int    `toml:"sidebar_width" json:"sidebar_width"`
	Markdown     bool   `toml:"markdown" json:"markdown"`
	Theme        string `toml:"theme" json:"theme"`
	MaxFPS       int    `toml:"max_fps" json:"max_fps"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `toml:"level" json:"level"`

	// File overrides the log destination. Empty means stderr for line
	// commands and <data_dir>/chatpane.log for the TUI.
	File string `toml:"file" json:"file"`
}

// ServerConfig configures the development endpoint started by `chatpane serve`.
type ServerConfig struct {
	Addr         string `toml:"addr" json:"addr"`
	ChunkDelayMs int    `toml:"chunk_delay_ms" json:"chunk_delay_ms"`

	// Token, when set, is required as a bearer token on /api/chat.
	Token string `toml:"token" json:"token"`
}

// Default returns a Config with built-in defaults.
func Default() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			URL:         client.DefaultEndpoint,
			TimeoutSecs: 30,
		},
		Storage: StorageConfig{
			Backend:     storage.BackendFile,
			RedisAddr:   "localhost:6379",
			RedisPrefix: storage.DefaultRedisPrefix,
		},
		UI: UIConfig{
			SidebarWidth: 28,
			Markdown:     true,
			Theme:        styles.ThemeAuto,
			MaxFPS:       30,
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr:         ":8787",
			ChunkDelayMs: 40,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatpane configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatpane"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults. A .env file in the
// working directory is read before environment overrides are applied.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	loaded := false
	if tomlPath, err := ConfigPathTOML(); err == nil && fileExists(tomlPath) {
		if err := LoadTOML(cfg, tomlPath); err != nil {
			loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			cfg = Default()
		} else {
			loaded = true
		}
	}

	if !loaded {
		if jsonPath, err := ConfigPathJSON(); err == nil && fileExists(jsonPath) {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
				cfg = Default()
			}
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		loadErr = errors.Join(loadErr, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadDotEnv loads variables from path into the process environment.
// Variables already set are not overwritten. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes cfg to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# chatpane configuration file\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Endpoint.URL)
	switch {
	case err != nil:
		errs = append(errs, ValidationError{
			Field:   "endpoint.url",
			Message: fmt.Sprintf("invalid URL: %v", err),
		})
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, ValidationError{
			Field:   "endpoint.url",
			Message: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme),
		})
	case u.Host == "":
		errs = append(errs, ValidationError{
			Field:   "endpoint.url",
			Message: "missing host",
		})
	}

	if c.Endpoint.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "endpoint.timeout",
			Message: "cannot be negative",
		})
	}

	validBackends := map[string]bool{
		storage.BackendFile: true, storage.BackendSQLite: true,
		storage.BackendRedis: true, storage.BackendMemory: true,
	}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, redis, memory", c.Storage.Backend),
		})
	}
	if c.Storage.Backend == storage.BackendRedis && c.Storage.RedisAddr == "" {
		errs = append(errs, ValidationError{
			Field:   "storage.redis_addr",
			Message: "required when backend is redis",
		})
	}
	if c.Storage.RedisDB < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.redis_db",
			Message: "cannot be negative",
		})
	}

	if c.UI.SidebarWidth < 12 || c.UI.SidebarWidth > 80 {
		errs = append(errs, ValidationError{
			Field:   "ui.sidebar_width",
			Message: fmt.Sprintf("must be 12-80, got %d", c.UI.SidebarWidth),
		})
	}
	validThemes := map[string]bool{styles.ThemeAuto: true, styles.ThemeDark: true, styles.ThemeLight: true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: err.Error(),
		})
	}

	if c.Server.ChunkDelayMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.chunk_delay_ms",
			Message: "cannot be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that have no meaningful zero setting.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Endpoint.URL == "" {
		c.Endpoint.URL = defaults.Endpoint.URL
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	if c.Storage.RedisPrefix == "" {
		c.Storage.RedisPrefix = defaults.Storage.RedisPrefix
	}
	if c.UI.SidebarWidth == 0 {
		c.UI.SidebarWidth = defaults.UI.SidebarWidth
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.MaxFPS <= 0 {
		c.UI.MaxFPS = defaults.UI.MaxFPS
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid level '%s', must be one of: debug, info, warn, error", name)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
// Supported variables:
//   - CHATPANE_ENDPOINT: overrides endpoint.url
//   - CHATPANE_STORE: overrides storage.backend
//   - CHATPANE_DATA_DIR: overrides storage.data_dir
//   - CHATPANE_REDIS_ADDR: overrides storage.redis_addr
//   - CHATPANE_REDIS_PASSWORD: overrides storage.redis_password
//   - CHATPANE_REDIS_DB: overrides storage.redis_db
//   - CHATPANE_LOG_LEVEL: overrides log.level
//   - CHATPANE_TOKEN: overrides endpoint.token
//   - CHATPANE_SERVER_TOKEN: overrides server.token
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CHATPANE_ENDPOINT"); v != "" {
		c.Endpoint.URL = v
	}
	if v := os.Getenv("CHATPANE_STORE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("CHATPANE_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("CHATPANE_REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv("CHATPANE_REDIS_PASSWORD"); v != "" {
		c.Storage.RedisPassword = v
	}
	if v := os.Getenv("CHATPANE_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Storage.RedisDB = db
		}
	}
	if v := os.Getenv("CHATPANE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CHATPANE_TOKEN"); v != "" {
		c.Endpoint.Token = v
	}
	if v := os.Getenv("CHATPANE_SERVER_TOKEN"); v != "" {
		c.Server.Token = v
	}
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// StorageOptions converts the storage section for storage.Open.
func (c *Config) StorageOptions(logger *slog.Logger) storage.Options {
	return storage.Options{
		Backend: c.Storage.Backend,
		DataDir: c.Storage.DataDir,
		Redis: storage.RedisOptions{
			Addr:     c.Storage.RedisAddr,
			Password: c.Storage.RedisPassword,
			DB:       c.Storage.RedisDB,
			Prefix:   c.Storage.RedisPrefix,
		},
		Logger:         logger,
		MemoryFallback: true,
	}
}

// ClientConfig converts the endpoint section for client.New.
func (c *Config) ClientConfig(logger *slog.Logger) client.Config {
	return client.Config{
		Endpoint: c.Endpoint.URL,
		Timeout:  time.Duration(c.Endpoint.TimeoutSecs) * time.Second,
		Token:    c.Endpoint.Token,
		Logger:   logger,
	}
}

// DataDir returns the configured data directory or ~/.chatpane.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	return storage.DefaultDataDir()
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as JSON with secrets masked.
func (c *Config) String() string {
	safe := c.Clone()
	for _, secret := range []*string{&safe.Storage.RedisPassword, &safe.Endpoint.Token, &safe.Server.Token} {
		if *secret != "" {
			*secret = "********"
		}
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
