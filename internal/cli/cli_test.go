// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/notepad-tui/internal/config"
	"github.com/jeranaias/notepad-tui/internal/llm/llmtest"
	"github.com/jeranaias/notepad-tui/internal/pad"
	"github.com/jeranaias/notepad-tui/internal/storage"
	"github.com/jeranaias/notepad-tui/internal/transcript"
)

// =============================================================================
// ARG PARSER
// =============================================================================

func TestArgParser_Forms(t *testing.T) {
	p := NewArgParser([]string{"show", "--lines", "50", "--since=2024-01-01", "-n", "3", "--json", "abc"}, "json")

	assert.Equal(t, "show", p.Subcommand())
	assert.Equal(t, "50", p.Flag("lines"))
	assert.Equal(t, "2024-01-01", p.Flag("since"))
	assert.Equal(t, "3", p.Flag("limit", "n"))
	assert.True(t, p.BoolFlag("json"))
	assert.Equal(t, []string{"show", "abc"}, p.PositionalFrom(0))
	assert.Equal(t, 2, p.PositionalCount())
	assert.Equal(t, "", p.Positional(5))
}

func TestArgParser_UndeclaredFlagTakesValue(t *testing.T) {
	p := NewArgParser([]string{"--verbose", "chat"})
	assert.Equal(t, "chat", p.Flag("verbose"))
	assert.Equal(t, "", p.Subcommand())
}

func TestArgParser_EndOfFlags(t *testing.T) {
	p := NewArgParser([]string{"export", "--", "--odd-name"})
	assert.Equal(t, []string{"export", "--odd-name"}, p.PositionalFrom(0))
	assert.False(t, p.HasFlag("odd-name"))
}

func TestArgParser_BoolWithValue(t *testing.T) {
	p := NewArgParser([]string{"--json=false", "--debug=yes"}, "json", "debug")
	assert.False(t, p.BoolFlag("json"))
	assert.True(t, p.BoolFlag("debug"))
	assert.True(t, p.HasFlag("json"))
}

func TestArgParser_FlagInt(t *testing.T) {
	p := NewArgParser([]string{"--limit", "7", "--bad", "x"})

	n, err := p.FlagInt(20, "limit")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = p.FlagInt(20, "missing")
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	_, err = p.FlagInt(20, "bad")
	assert.Error(t, err)
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"true", "YES", "on", "1"} {
		b, err := ParseBoolString(s)
		require.NoError(t, err, s)
		assert.True(t, b, s)
	}
	for _, s := range []string{"false", "no", "Off", "0"} {
		b, err := ParseBoolString(s)
		require.NoError(t, err, s)
		assert.False(t, b, s)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}

// =============================================================================
// PARSE
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		cmd  Command
		check func(t *testing.T, a Args)
	}{
		{name: "no args", argv: nil, cmd: CmdTUI},
		{name: "tui", argv: []string{"tui", "--theme", "light"}, cmd: CmdTUI, check: func(t *testing.T, a Args) {
			assert.Equal(t, "light", a.Theme)
		}},
		{name: "debug before command", argv: []string{"--debug", "chat"}, cmd: CmdChat, check: func(t *testing.T, a Args) {
			assert.True(t, a.Debug)
		}},
		{name: "model", argv: []string{"-m", "llama3.2", "chat"}, cmd: CmdChat, check: func(t *testing.T, a Args) {
			assert.Equal(t, "llama3.2", a.Model)
		}},
		{name: "config", argv: []string{"--config=/tmp/c.toml", "--no-archive"}, cmd: CmdTUI, check: func(t *testing.T, a Args) {
			assert.Equal(t, "/tmp/c.toml", a.ConfigPath)
			assert.True(t, a.NoArchive)
		}},
		{name: "archive", argv: []string{"archive", "show", "abcd1234"}, cmd: CmdArchive, check: func(t *testing.T, a Args) {
			assert.Equal(t, "show", a.Subcommand)
			assert.Equal(t, []string{"show", "abcd1234"}, a.Raw)
		}},
		{name: "version flag", argv: []string{"--version"}, cmd: CmdVersion},
		{name: "version command", argv: []string{"version"}, cmd: CmdVersion},
		{name: "help flag", argv: []string{"chat", "-h"}, cmd: CmdHelp},
		{name: "unknown", argv: []string{"frobnicate"}, cmd: CmdHelp, check: func(t *testing.T, a Args) {
			assert.ErrorContains(t, a.Err, "frobnicate")
		}},
		{name: "bad theme", argv: []string{"--theme", "neon"}, cmd: CmdHelp, check: func(t *testing.T, a Args) {
			assert.ErrorContains(t, a.Err, "neon")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := Parse(tt.argv)
			assert.Equal(t, tt.cmd, cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestUsageAndVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	assert.Contains(t, buf.String(), "notepad archive list")

	buf.Reset()
	PrintVersion(&buf)
	assert.Contains(t, buf.String(), "notepad "+Version)
}

// =============================================================================
// CHAT
// =============================================================================

type fakeLister []string

func (f fakeLister) Models(ctx context.Context) ([]string, error) { return f, nil }

func newChat(engine *llmtest.Scripted) (*Chat, *bytes.Buffer) {
	out := &bytes.Buffer{}
	c := &Chat{
		Controller:   pad.New(pad.Options{Engine: engine, Model: "test-model"}),
		Settings:     config.DefaultSettings(),
		Out:          out,
		PumpInterval: time.Millisecond,
	}
	return c, out
}

func TestChat_SendStreamsReply(t *testing.T) {
	c, out := newChat(&llmtest.Scripted{Chunks: []string{"Hi", "Hi there"}})

	quit, err := c.Exec(context.Background(), "Hello")
	require.NoError(t, err)
	assert.False(t, quit)

	assert.Contains(t, out.String(), "Hi there\n\n")
	assert.False(t, c.Controller.Streaming())
	assert.Equal(t, "User: Hello\nAssistant: Hi there\n\n\n\n", c.Controller.Buffer().String())
}

func TestChat_EngineErrorIsPrinted(t *testing.T) {
	c, out := newChat(&llmtest.Scripted{Chunks: []string{"par"}, Err: errors.New("boom")})

	_, err := c.Exec(context.Background(), "go")
	require.NoError(t, err)

	assert.Contains(t, out.String(), "par")
	assert.Equal(t, 1, strings.Count(out.String(), "[Error] boom"))
}

func TestChat_InterruptStopsReply(t *testing.T) {
	engine := &llmtest.Scripted{Chunks: []string{"a", "ab", "abc"}, Step: make(chan struct{})}
	c, out := newChat(engine)
	sig := make(chan os.Signal, 1)
	sig <- os.Interrupt
	c.Interrupt = sig

	_, err := c.Exec(context.Background(), "count")
	require.NoError(t, err)

	assert.Contains(t, out.String(), "[Stopped]")
	assert.False(t, c.Controller.Streaming())
	assert.NotEqual(t, "abc", c.Controller.Session().LastAssistant())
}

func TestChat_EmptyAndQuit(t *testing.T) {
	c, _ := newChat(&llmtest.Scripted{})

	quit, err := c.Exec(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, quit)

	for _, in := range []string{"/quit", "/q", "exit", "QUIT"} {
		quit, err = c.Exec(context.Background(), in)
		require.NoError(t, err)
		assert.True(t, quit, in)
	}
}

func TestChat_SaveAndLoad(t *testing.T) {
	c, out := newChat(&llmtest.Scripted{Chunks: []string{"**Hi**"}})
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chat.json")

	_, err := c.Exec(ctx, "/save "+path)
	assert.ErrorIs(t, err, pad.ErrNothingToSave)

	_, err = c.Exec(ctx, "Hello")
	require.NoError(t, err)
	_, err = c.Exec(ctx, "/save "+path)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Saved 1 turns")

	turns, err := transcript.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []transcript.Turn{{User: "Hello", Assistant: "**Hi**"}}, turns)

	_, err = c.Exec(ctx, "/clear")
	require.NoError(t, err)
	assert.Equal(t, "", c.Controller.Buffer().String())

	out.Reset()
	_, err = c.Exec(ctx, "/load "+path)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "User: Hello\nAssistant: Hi\n\n")
	assert.Contains(t, out.String(), "Loaded 1 turns")
}

func TestChat_UsageErrors(t *testing.T) {
	c, _ := newChat(&llmtest.Scripted{})
	ctx := context.Background()

	for _, in := range []string{"/save", "/load", "/find", "/restore"} {
		_, err := c.Exec(ctx, in)
		assert.ErrorIs(t, err, errUsage, in)
	}

	_, err := c.Exec(ctx, "/bogus")
	assert.ErrorContains(t, err, "unknown command")
}

func TestChat_Find(t *testing.T) {
	c, out := newChat(&llmtest.Scripted{Chunks: []string{"Hi there"}})
	ctx := context.Background()
	_, err := c.Exec(ctx, "Hello")
	require.NoError(t, err)

	out.Reset()
	_, err = c.Exec(ctx, "/find hello")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Found at 1.6")

	out.Reset()
	_, err = c.Exec(ctx, "/find zebra")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Text not found")
}

func TestChat_ModelAndSystem(t *testing.T) {
	c, out := newChat(&llmtest.Scripted{})
	c.Models = fakeLister{"gemma3:1b", "test-model"}
	ctx := context.Background()

	_, err := c.Exec(ctx, "/model")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "* test-model")
	assert.Contains(t, out.String(), "  gemma3:1b")

	_, err = c.Exec(ctx, "/model gemma3:1b")
	require.NoError(t, err)
	assert.Equal(t, "gemma3:1b", c.Controller.Model())
	assert.Equal(t, "gemma3:1b", c.Settings.Model.Path)

	_, err = c.Exec(ctx, "/system Be terse.")
	require.NoError(t, err)
	assert.Equal(t, "Be terse.", c.Controller.SystemPrompt())
	assert.Equal(t, "Be terse.", c.Settings.Model.Prompt)
}

func TestChat_Copy(t *testing.T) {
	c, _ := newChat(&llmtest.Scripted{Chunks: []string{"**answer**"}})
	var copied string
	c.Clipboard = func(s string) error {
		copied = s
		return nil
	}
	ctx := context.Background()

	_, err := c.Exec(ctx, "/copy")
	assert.Error(t, err)

	_, err = c.Exec(ctx, "q")
	require.NoError(t, err)
	_, err = c.Exec(ctx, "/copy")
	require.NoError(t, err)
	assert.Equal(t, "answer", copied)
}

func TestChat_RecentWithoutArchive(t *testing.T) {
	c, _ := newChat(&llmtest.Scripted{})
	_, err := c.Exec(context.Background(), "/recent")
	assert.Error(t, err)
}

func TestChat_RestoreByIndex(t *testing.T) {
	a, _ := openArchive(t)
	c, out := newChat(&llmtest.Scripted{})
	c.Archive = a

	_, err := c.Exec(context.Background(), "/recent")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Hello archive")

	_, err = c.Exec(context.Background(), "/restore #1")
	require.NoError(t, err)
	turns := c.Controller.Session().Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "Hello archive", turns[0].User)
	assert.Equal(t, "gemma3:1b", c.Controller.Model())

	_, err = c.Exec(context.Background(), "/restore #2")
	assert.ErrorIs(t, err, storage.ErrEntryNotFound)
}

// =============================================================================
// ARCHIVE COMMAND
// =============================================================================

func openArchive(t *testing.T) (*storage.Archive, string) {
	t.Helper()
	a, err := storage.Open(filepath.Join(t.TempDir(), "archive.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	id, err := a.Put(&storage.Entry{
		Model: "gemma3:1b",
		Turns: []transcript.Turn{{User: "Hello archive", Assistant: "**Hi**"}},
	})
	require.NoError(t, err)
	return a, id
}

func runArchive(t *testing.T, a *storage.Archive, argv ...string) (string, error) {
	t.Helper()
	cmd, args := Parse(append([]string{"archive"}, argv...))
	require.Equal(t, CmdArchive, cmd)
	var out bytes.Buffer
	err := HandleArchive(args, a, &out)
	return out.String(), err
}

func TestArchive_Disabled(t *testing.T) {
	_, err := runArchive(t, nil, "list")
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestArchive_List(t *testing.T) {
	a, id := openArchive(t)

	out, err := runArchive(t, a, "list")
	require.NoError(t, err)
	assert.Contains(t, out, id[:8])
	assert.Contains(t, out, "Hello archive")

	assert.NotContains(t, out, "chats shown")

	_, err = a.Put(&storage.Entry{Turns: []transcript.Turn{{User: "second", Assistant: "ok"}}})
	require.NoError(t, err)
	out, err = runArchive(t, a, "list", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 2 chats shown")

	out, err = runArchive(t, a, "list", "--search", "nothing-like-this")
	require.NoError(t, err)
	assert.Contains(t, out, "No archived chats.")
}

func TestArchive_ListJSON(t *testing.T) {
	a, id := openArchive(t)

	out, err := runArchive(t, a, "list", "--json")
	require.NoError(t, err)

	var resp struct {
		Success bool        `json:"success"`
		Data    []entryJSON `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, id, resp.Data[0].ID)
	assert.Equal(t, 1, resp.Data[0].Turns)
}

func TestArchive_ShowCleansReplies(t *testing.T) {
	a, id := openArchive(t)

	out, err := runArchive(t, a, "show", id[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "User: Hello archive\nAssistant: Hi\n\n")
}

func TestArchive_Export(t *testing.T) {
	a, id := openArchive(t)
	path := filepath.Join(t.TempDir(), "out.json")

	out, err := runArchive(t, a, "export", id, "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 turns")

	turns, err := transcript.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "**Hi**", turns[0].Assistant)

	out, err = runArchive(t, a, "export", id)
	require.NoError(t, err)
	assert.Contains(t, out, `"user": "Hello archive"`)
}

func TestArchive_DeleteAndUnknown(t *testing.T) {
	a, id := openArchive(t)

	_, err := runArchive(t, a, "delete", id)
	require.NoError(t, err)
	n, err := a.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = runArchive(t, a, "shred")
	assert.ErrorContains(t, err, "unknown archive command")
}

// =============================================================================
// ENV
// =============================================================================

func TestSetupArchive_UsesConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NOTEPAD_HOME", dir)

	env, err := SetupArchive(Args{})
	require.NoError(t, err)
	defer env.Close()

	require.NotNil(t, env.Archive)
	assert.FileExists(t, filepath.Join(dir, "archive.db"))
	assert.FileExists(t, filepath.Join(dir, "notepad.log"))
}

func TestSetupArchive_NoArchive(t *testing.T) {
	t.Setenv("NOTEPAD_HOME", t.TempDir())

	_, args := Parse([]string{"--no-archive", "archive", "list"})
	env, err := SetupArchive(args)
	require.NoError(t, err)
	defer env.Close()

	assert.Nil(t, env.Archive)
	assert.ErrorIs(t, HandleArchive(args, env.Archive, &bytes.Buffer{}), ErrArchiveDisabled)
}

func TestArchive_ExportFormats(t *testing.T) {
	a, id := openArchive(t)

	out, err := runArchive(t, a, "export", id, "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "### User\n\n> Hello archive")

	out, err = runArchive(t, a, "export", id, "-f", "text")
	require.NoError(t, err)
	assert.Equal(t, "User: Hello archive\nAssistant: Hi\n\n", out)

	_, err = runArchive(t, a, "export", id, "--format", "pdf")
	assert.ErrorContains(t, err, "unknown export format")
}
