// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (overridden at build time with -ldflags).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the top-level command to run.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdArchive
	CmdVersion
	CmdHelp
)

// Global flags that never take a value.
var globalBools = []string{"debug", "no-archive", "help", "h", "version", "v", "json"}

// Args holds parsed command-line arguments.
type Args struct {
	// Model overrides the model from settings.json.
	Model string
	// ConfigPath overrides the config.toml location.
	ConfigPath string
	// Theme overrides [ui] theme.
	Theme     string
	Debug     bool
	NoArchive bool

	Subcommand string
	// Raw holds the arguments after the command name.
	Raw []string

	// Err is set when the command line could not be understood.
	Err error

	parser *ArgParser
}

// Parser exposes the parsed flags and positionals after the command name.
func (a Args) Parser() *ArgParser {
	if a.parser == nil {
		return NewArgParser(nil)
	}
	return a.parser
}

const usageText = `notepad - a notepad-style terminal chat for a local LLM

Usage:
  notepad [flags]                  Start the notepad (default)
  notepad chat [flags]             Line-mode chat in the terminal
  notepad archive list [--limit N] [--search TEXT]
  notepad archive show ID          Print an archived chat
  notepad archive export ID [--format session|markdown|text|html] [--out FILE|auto]
                                   Write an archived chat (default: session file)
  notepad archive delete ID        Remove an archived chat
  notepad version                  Show version information
  notepad help                     Show this help

Flags:
  -m, --model NAME     Model to use (Ollama name or path to a .gguf file)
  -c, --config FILE    Use FILE instead of ~/.notepad/config.toml
      --theme MODE     dark, light or auto
      --debug          Write debug lines to the log file
      --no-archive     Do not archive chats on exit

Environment:
  NOTEPAD_HOME         Configuration directory (default ~/.notepad)
  NOTEPAD_OLLAMA_URL   Ollama API URL
  NOTEPAD_MODEL        Model, overriding settings.json
  NOTEPAD_DEBUG        1 or true enables debug logging

Chat commands:
  /save FILE  /load FILE  /model [NAME]  /system [TEXT]  /find TEXT
  /copy  /recent  /restore ID|#N  /clear  /help  /quit
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "notepad %s\n", Version)
	fmt.Fprintf(w, "  commit:  %s\n", GitCommit)
	fmt.Fprintf(w, "  built:   %s\n", BuildDate)
	fmt.Fprintf(w, "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse interprets argv (without the program name).
func Parse(argv []string) (Command, Args) {
	p := NewArgParser(argv, globalBools...)
	args := Args{
		Model:      p.Flag("model", "m"),
		ConfigPath: p.Flag("config", "c"),
		Theme:      p.Flag("theme"),
		Debug:      p.BoolFlag("debug"),
		NoArchive:  p.BoolFlag("no-archive"),
		parser:     p,
	}

	if p.BoolFlag("version", "v") {
		return CmdVersion, args
	}
	if p.BoolFlag("help", "h") {
		return CmdHelp, args
	}
	if args.Theme != "" {
		switch args.Theme {
		case "dark", "light", "auto":
		default:
			args.Err = fmt.Errorf("--theme must be dark, light or auto, got %q", args.Theme)
			return CmdHelp, args
		}
	}

	name := strings.ToLower(p.Subcommand())
	args.Raw = p.PositionalFrom(1)
	args.Subcommand = p.Positional(1)

	switch name {
	case "", "tui":
		return CmdTUI, args
	case "chat":
		return CmdChat, args
	case "archive", "archives":
		return CmdArchive, args
	case "version":
		return CmdVersion, args
	case "help":
		return CmdHelp, args
	}
	args.Err = fmt.Errorf("unknown command %q", name)
	return CmdHelp, args
}
