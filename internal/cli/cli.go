// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command selection, global flags and help text.

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/jeranaias/chatpane/internal/config"
	"github.com/jeranaias/chatpane/internal/storage"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdList
	CmdDelete
	CmdServe
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdList:
		return "list"
	case CmdDelete:
		return "delete"
	case CmdServe:
		return "serve"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	Endpoint   string
	Store      string
	DataDir    string
	LogLevel   string
	Ephemeral  bool

	// Command-specific
	ID   string // delete
	Addr string // serve
}

// boolFlagNames lists the flags that never take a value.
var boolFlagNames = []string{"ephemeral", "help", "h", "version", "v"}

// stringFlagNames lists the flags that take a value.
var stringFlagNames = map[string]bool{
	"config": true, "endpoint": true, "store": true,
	"data-dir": true, "log-level": true, "addr": true,
}

const usageText = `chatpane - terminal chat client with persistent conversations

Usage:
  chatpane [tui]              Start the terminal UI (default)
  chatpane chat               Line-mode chat (used when stdout is not a terminal)
  chatpane list               List stored conversations
  chatpane delete <id>        Delete a stored conversation
  chatpane serve [--addr A]   Run the development echo endpoint (default :8787)
  chatpane version            Show version information

Global flags:
  --config PATH               Config file (default ~/.chatpane/config.toml)
  --endpoint URL              Streaming chat endpoint
  --store BACKEND             file, sqlite, redis or memory
  --data-dir DIR              Data directory (default ~/.chatpane)
  --log-level LEVEL           debug, info, warn or error
  --ephemeral                 Keep conversations in memory only

Chat commands:
  /new                        Start a new conversation
  /list                       List conversations
  /open N                     Open conversation N from /list
  /delete N                   Delete conversation N from /list
  /quit                       Exit
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version and build information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "chatpane %s\n", Version)
	fmt.Fprintf(w, "  commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  built:  %s\n", BuildDate)
	fmt.Fprintf(w, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses os.Args.
func Parse() (Command, Args, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs selects the command and collects flags from raw.
func ParseArgs(raw []string) (Command, Args, error) {
	p := NewArgParser(raw, boolFlagNames...)

	args := Args{
		ConfigPath: p.Flag("config"),
		Endpoint:   p.Flag("endpoint"),
		Store:      p.Flag("store"),
		DataDir:    p.Flag("data-dir"),
		LogLevel:   p.Flag("log-level"),
		Ephemeral:  p.BoolFlag("ephemeral"),
		Addr:       p.Flag("addr"),
	}

	for _, name := range p.Flags() {
		if !stringFlagNames[name] && !contains(boolFlagNames, name) {
			return CmdHelp, args, &UsageError{Message: fmt.Sprintf("unknown flag --%s", name)}
		}
	}
	if p.BoolFlag("help") || p.BoolFlag("h") {
		return CmdHelp, args, nil
	}
	if p.BoolFlag("version") || p.BoolFlag("v") {
		return CmdVersion, args, nil
	}

	if p.PositionalCount() == 0 {
		return CmdTUI, args, nil
	}

	var cmd Command
	switch strings.ToLower(p.Positional(0)) {
	case "tui":
		cmd = CmdTUI
	case "chat":
		cmd = CmdChat
	case "list", "ls":
		cmd = CmdList
	case "delete", "rm":
		cmd = CmdDelete
		args.ID = p.Positional(1)
		if args.ID == "" {
			return cmd, args, &UsageError{Message: "delete requires a conversation id"}
		}
	case "serve":
		cmd = CmdServe
	case "version":
		cmd = CmdVersion
	case "help":
		cmd = CmdHelp
	default:
		return CmdHelp, args, &UsageError{Message: fmt.Sprintf("unknown command %q", p.Positional(0))}
	}

	if extra := p.PositionalCount() - expectedPositionals(cmd); extra > 0 {
		return cmd, args, &UsageError{Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(p.PositionalFrom(expectedPositionals(cmd)), " "))}
	}
	if args.Addr != "" && cmd != CmdServe {
		return cmd, args, &UsageError{Message: "--addr is only valid with serve"}
	}
	return cmd, args, nil
}

func expectedPositionals(cmd Command) int {
	if cmd == CmdDelete {
		return 2
	}
	return 1
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// LoadConfig loads the configuration named by --config (or the default
// locations) and applies the command-line overrides.
func LoadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return nil, err
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
	}

	args.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// Apply overrides cfg with the flags that were given. --ephemeral wins
// over --store.
func (a Args) Apply(cfg *config.Config) {
	if a.Endpoint != "" {
		cfg.Endpoint.URL = a.Endpoint
	}
	if a.Store != "" {
		cfg.Storage.Backend = strings.ToLower(a.Store)
	}
	if a.Ephemeral {
		cfg.Storage.Backend = storage.BackendMemory
	}
	if a.DataDir != "" {
		cfg.Storage.DataDir = a.DataDir
	}
	if a.LogLevel != "" {
		cfg.Log.Level = a.LogLevel
	}
	if a.Addr != "" {
		cfg.Server.Addr = a.Addr
	}
}
