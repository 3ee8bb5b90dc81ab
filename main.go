// notepad - a notepad-style terminal chat for a local LLM.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jeranaias/notepad-tui/internal/cli"
	"github.com/jeranaias/notepad-tui/internal/config"
	"github.com/jeranaias/notepad-tui/internal/ui/notepad"
	"github.com/jeranaias/notepad-tui/internal/ui/styles"
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
	notepad.Version = Version
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])
	if args.Err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", args.Err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	switch cmd {
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
	case cli.CmdChat:
		exitOn(runChat(args))
	case cli.CmdArchive:
		exitOn(runArchive(args))
	default:
		exitOn(runTUI(args))
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func runChat(args cli.Args) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env, err := cli.Setup(ctx, args)
	if err != nil {
		return err
	}
	defer env.Close()
	return cli.RunChat(ctx, env)
}

func runArchive(args cli.Args) error {
	env, err := cli.SetupArchive(args)
	if err != nil {
		return err
	}
	defer env.Close()
	return cli.HandleArchive(args, env.Archive, os.Stdout)
}

// runTUI starts the full-screen notepad.
func runTUI(args cli.Args) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the notepad needs a terminal; use `notepad chat` for line mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env, err := cli.Setup(ctx, args)
	if err != nil {
		return err
	}
	defer env.Close()

	theme := styles.NewTheme(env.Config.UI.Theme)
	ctl := env.NewController()

	opts := notepad.Options{
		Controller:   ctl,
		Settings:     env.Settings,
		Theme:        theme,
		Models:       env.Engine,
		Wrap:         env.Config.UI.Wrap,
		PumpInterval: time.Duration(env.Config.UI.PumpIntervalMs) * time.Millisecond,
		Notice:       env.Notice,
		Context:      ctx,
		Logger:       env.Logger,
	}
	if env.Archive != nil {
		opts.Archive = env.Archive
	}

	p := tea.NewProgram(
		notepad.New(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	watcher, err := config.WatchSettings(env.SettingsPath, 200*time.Millisecond, func(s *config.Settings, err error) {
		p.Send(notepad.SettingsReloadedMsg{Settings: s, Err: err})
	})
	if err != nil {
		env.Logger.Printf("settings watcher disabled: %v", err)
	} else {
		defer watcher.Close()
	}

	final, err := p.Run()
	ctl.Close()
	if m, ok := final.(notepad.Model); ok {
		env.SaveSettings(m.Settings())
	}
	if err != nil {
		return fmt.Errorf("error running notepad: %w", err)
	}
	return nil
}
