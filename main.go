// chatpane - a terminal chat client with persistent conversations.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatpane/internal/cli"
	"github.com/jeranaias/chatpane/internal/client"
	"github.com/jeranaias/chatpane/internal/config"
	"github.com/jeranaias/chatpane/internal/server"
	"github.com/jeranaias/chatpane/internal/session"
	"github.com/jeranaias/chatpane/internal/storage"
	"github.com/jeranaias/chatpane/internal/ui/chat"
	"github.com/jeranaias/chatpane/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	cmd, args, err := cli.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		cli.PrintUsage(os.Stderr)
		return cli.ExitCode(err)
	}

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return cli.ExitSuccess
	}

	cfg, err := cli.LoadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.ExitCode(err)
	}

	if cmd == cli.CmdTUI && !cli.CanRunTUI() {
		cmd = cli.CmdChat
	}

	if err := dispatch(cmd, args, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.ExitCode(err)
	}
	return cli.ExitSuccess
}

func dispatch(cmd cli.Command, args cli.Args, cfg *config.Config) error {
	// Ctrl+C belongs to Bubble Tea and the line editor; only the server
	// stops on it.
	signals := []os.Signal{syscall.SIGTERM}
	if cmd == cli.CmdServe {
		signals = append(signals, os.Interrupt)
	}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)
	defer stop()

	logPath := cfg.Log.File
	if cmd == cli.CmdTUI {
		logPath = cli.TUILogPath(cfg)
	}
	logger, closeLog, err := setupLogging(cfg.Log.Level, logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	if cmd == cli.CmdServe {
		return server.New(server.Config{
			Addr:       cfg.Server.Addr,
			ChunkDelay: time.Duration(cfg.Server.ChunkDelayMs) * time.Millisecond,
			Token:      cfg.Server.Token,
			Logger:     logger,
		}).ListenAndServe(ctx)
	}

	sub, err := storage.Open(ctx, cfg.StorageOptions(logger))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer sub.Close()
	store := storage.NewChatStore(sub, logger)

	switch cmd {
	case cli.CmdList:
		return cli.ListChats(ctx, store, os.Stdout, cli.GetTerminalWidth())
	case cli.CmdDelete:
		return cli.DeleteChat(ctx, store, args.ID, os.Stdout)
	}

	ctrl := session.NewController(store, client.New(cfg.ClientConfig(logger)), logger)
	if err := ctrl.Load(ctx); err != nil {
		return err
	}

	if cmd == cli.CmdChat {
		return runChat(ctx, cfg, ctrl)
	}
	return runTUI(ctx, cfg, ctrl, store, logger)
}

// setupLogging falls back to discarding logs when the TUI log file cannot
// be opened, since stderr is not visible under the alternate screen.
func setupLogging(level, path string) (*slog.Logger, func() error, error) {
	logger, closeFn, err := cli.SetupLogging(level, path)
	if err == nil || path == "" {
		return logger, closeFn, err
	}
	lvl, lerr := config.ParseLevel(level)
	if lerr != nil {
		return nil, nil, lerr
	}
	fmt.Fprintf(os.Stderr, "Warning: %v (logging disabled)\n", err)
	return cli.NewLogger(io.Discard, lvl), func() error { return nil }, nil
}

func runChat(ctx context.Context, cfg *config.Config, ctrl *session.Controller) error {
	dataDir, _ := cfg.DataDir()
	reader := cli.NewChatCLI(dataDir)
	defer reader.Close()

	return cli.NewREPL(ctrl, reader, os.Stdout).Run(ctx)
}

// runTUI starts the TUI interface.
func runTUI(ctx context.Context, cfg *config.Config, ctrl *session.Controller, store *storage.ChatStore, logger *slog.Logger) error {
	var changes <-chan struct{}
	if fs, ok := store.Substrate().(*storage.FileSubstrate); ok {
		w, err := storage.NewWatcher(fs.Path(storage.ChatsKey), storage.DefaultWatchDebounce, logger)
		if err == nil {
			if err = w.Watch(); err != nil {
				w.Close()
			}
		}
		if err != nil {
			logger.Warn("WATCH_ERROR", "error", err)
		} else {
			defer w.Close()
			changes = w.Changes()
		}
	}

	m := chat.New(chat.Options{
		Controller:   ctrl,
		Repository:   store,
		Theme:        styles.NewTheme(cfg.UI.Theme),
		Markdown:     cfg.UI.Markdown,
		SidebarWidth: cfg.UI.SidebarWidth,
		StoreChanges: changes,
		Logger:       logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	fwd := chat.NewSnapshotForwarder(cfg.UI.MaxFPS)
	unsubscribe := ctrl.Subscribe(fwd.Observe)
	defer unsubscribe()

	fwdCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go fwd.Run(fwdCtx, p)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
