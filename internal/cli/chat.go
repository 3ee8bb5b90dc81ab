// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/notepad-tui/internal/config"
	"github.com/jeranaias/notepad-tui/internal/generate"
	"github.com/jeranaias/notepad-tui/internal/pad"
	"github.com/jeranaias/notepad-tui/internal/storage"
	"github.com/jeranaias/notepad-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineInput wraps liner with a persistent history file.
type lineInput struct {
	line        *liner.State
	historyFile string
}

func newLineInput() *lineInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}
	in := &lineInput{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

func (in *lineInput) read(prompt string) (string, error) {
	s, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) != "" {
		in.line.AppendHistory(s)
	}
	return s, nil
}

// close saves the history (owner read/write only) and restores the terminal.
func (in *lineInput) close() {
	if err := os.MkdirAll(filepath.Dir(in.historyFile), 0755); err == nil {
		if f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			in.line.WriteHistory(f)
			f.Close()
		}
	}
	in.line.Close()
}

// =============================================================================
// CHAT
// =============================================================================

// ModelLister lists installed models.
type ModelLister interface {
	Models(ctx context.Context) ([]string, error)
}

// Chat runs the notepad pipeline in line mode: prompts are read from the
// terminal and replies stream to Out as they arrive.
type Chat struct {
	Controller *pad.Controller
	Settings   *config.Settings
	Models     ModelLister
	Archive    *storage.Archive
	Out        io.Writer
	// Interrupt stops the reply in flight.
	Interrupt <-chan os.Signal
	// PumpInterval is how often streamed text is flushed to Out.
	PumpInterval time.Duration
	// Clipboard replaces the system clipboard writer.
	Clipboard func(string) error
}

var errUsage = errors.New("usage")

// Exec handles one line of input. It reports true when the user asked to
// quit.
func (c *Chat) Exec(ctx context.Context, input string) (bool, error) {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return false, nil
	case strings.EqualFold(input, "exit"), strings.EqualFold(input, "quit"):
		return true, nil
	case strings.HasPrefix(input, "/"):
		return c.command(ctx, input)
	}
	return false, c.Send(ctx, input)
}

// Send streams a reply to prompt, printing text as it is pumped.
func (c *Chat) Send(ctx context.Context, prompt string) error {
	if err := c.Controller.Send(ctx, prompt); err != nil {
		return err
	}
	fmt.Fprint(c.Out, assistantStyle.Render("Assistant:")+" ")

	interval := c.PumpInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	buf := c.Controller.Buffer()
	start := buf.Len()
	printed := 0
	stopped := false
	for {
		select {
		case <-c.Interrupt:
			if c.Controller.Stop() {
				stopped = true
			}
		case <-ctx.Done():
			c.Controller.Stop()
		case <-tick.C:
		}

		res := c.Controller.Pump(nil)
		if res.Done {
			c.flushFinal(printed, res.Err)
			if stopped {
				fmt.Fprintln(c.Out, warningStyle.Render("[Stopped]"))
			}
			return nil
		}
		if res.Chunks > 0 {
			text := []rune(buf.Slice(start, buf.Len()))
			if printed < len(text) {
				fmt.Fprint(c.Out, string(text[printed:]))
				printed = len(text)
			}
		}
	}
}

// flushFinal prints what the last pump committed but did not show. The
// streamed output is the raw reply followed by the error chunk, if any.
func (c *Chat) flushFinal(printed int, streamErr error) {
	final := []rune(c.Controller.Session().LastAssistant())
	if printed < len(final) {
		fmt.Fprint(c.Out, string(final[printed:]))
		printed = len(final)
	}
	if streamErr != nil {
		chunk := []rune(generate.ErrorText(streamErr))
		if off := printed - len(final); off < len(chunk) {
			fmt.Fprint(c.Out, errorStyle.Render(strings.TrimRight(string(chunk[off:]), "\n")))
		}
	}
	fmt.Fprint(c.Out, "\n\n")
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const chatHelp = `Commands:
  /save FILE      Save the chat as a session file
  /load FILE      Replace the chat with a session file
  /model [NAME]   Show installed models or switch model
  /system [TEXT]  Show or set the system prompt
  /find TEXT      Find the next match in the transcript
  /copy           Copy the last reply to the clipboard
  /recent         List archived chats
  /restore ID|#N  Reopen an archived chat (#N: Nth of /recent)
  /clear          Start a new chat
  /quit           Exit
Ctrl+C stops a reply; Ctrl+D exits.`

func (c *Chat) command(ctx context.Context, input string) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	ctl := c.Controller

	switch strings.ToLower(name) {
	case "/help", "/h", "/?":
		fmt.Fprintln(c.Out, chatHelp)

	case "/quit", "/q", "/exit":
		return true, nil

	case "/clear", "/c":
		if err := ctl.Clear(); err != nil {
			return false, err
		}
		c.info("Chat cleared")

	case "/save":
		if arg == "" {
			return false, fmt.Errorf("%w: /save FILE", errUsage)
		}
		if err := ctl.Save(arg); err != nil {
			return false, err
		}
		c.info(fmt.Sprintf("Saved %d turns to %s", ctl.Session().Len(), arg))

	case "/load":
		if arg == "" {
			return false, fmt.Errorf("%w: /load FILE", errUsage)
		}
		n, err := ctl.Load(arg)
		if err != nil {
			return false, err
		}
		c.printTranscript()
		c.info(fmt.Sprintf("Loaded %d turns", n))

	case "/model", "/m":
		return false, c.model(ctx, arg)

	case "/system":
		if arg == "" {
			fmt.Fprintln(c.Out, ctl.SystemPrompt())
			return false, nil
		}
		ctl.SetSystemPrompt(arg)
		if c.Settings != nil {
			c.Settings.Model.Prompt = ctl.SystemPrompt()
		}
		c.info("System prompt updated")

	case "/find", "/f":
		if arg == "" {
			return false, fmt.Errorf("%w: /find TEXT", errUsage)
		}
		m, err := ctl.Find(arg)
		if errors.Is(err, pad.ErrNotFound) {
			c.info("Text not found; the next search starts at the top")
			return false, nil
		}
		if err != nil {
			return false, err
		}
		c.info("Found at " + m.Index)

	case "/copy":
		reply := ctl.LastReply()
		if reply == "" {
			return false, errors.New("no reply to copy yet")
		}
		write := c.Clipboard
		if write == nil {
			write = clipboard.WriteAll
		}
		if err := write(reply); err != nil {
			return false, fmt.Errorf("clipboard: %w", err)
		}
		c.info("Copied the last reply")

	case "/recent":
		return false, c.recent()

	case "/restore":
		if arg == "" {
			return false, fmt.Errorf("%w: /restore ID", errUsage)
		}
		return false, c.restore(arg)

	default:
		return false, fmt.Errorf("unknown command %s (try /help)", name)
	}
	return false, nil
}

func (c *Chat) model(ctx context.Context, name string) error {
	ctl := c.Controller
	if name != "" {
		ctl.SetModel(name)
		if c.Settings != nil {
			c.Settings.Model.Path = ctl.Model()
		}
		c.info("Model set to " + ctl.Model())
		return nil
	}

	fmt.Fprintln(c.Out, "Current model: "+ctl.Model())
	if c.Models == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	names, err := c.Models.Models(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		marker := "  "
		if n == ctl.Model() {
			marker = "* "
		}
		fmt.Fprintln(c.Out, marker+n)
	}
	return nil
}

func (c *Chat) recent() error {
	if c.Archive == nil {
		return errors.New("the chat archive is disabled")
	}
	metas, err := c.Archive.List(20)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		c.info("No archived chats yet")
		return nil
	}
	writeEntryList(c.Out, metas)
	return nil
}

func (c *Chat) restore(id string) error {
	if c.Archive == nil {
		return errors.New("the chat archive is disabled")
	}
	var (
		e   *storage.Entry
		err error
	)
	// "#N" picks the Nth entry of /recent.
	if n, convErr := strconv.Atoi(strings.TrimPrefix(id, "#")); strings.HasPrefix(id, "#") && convErr == nil {
		e, err = c.Archive.GetByIndex(n - 1)
	} else {
		e, err = c.Archive.Get(id)
	}
	if err != nil {
		return err
	}
	if err := c.Controller.Restore(e); err != nil {
		return err
	}
	if c.Settings != nil {
		c.Settings.Model.Path = c.Controller.Model()
	}
	c.printTranscript()
	c.info("Restored " + e.Title)
	return nil
}

func (c *Chat) printTranscript() {
	fmt.Fprint(c.Out, c.Controller.Buffer().String())
}

func (c *Chat) info(msg string) {
	fmt.Fprintln(c.Out, infoStyle.Render(msg))
}

// =============================================================================
// REPL
// =============================================================================

// RunChat runs the line-mode chat until the user quits.
func RunChat(ctx context.Context, env *Env) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	ctl := env.NewController()
	chat := &Chat{
		Controller:   ctl,
		Settings:     env.Settings,
		Models:       env.Engine,
		Archive:      env.Archive,
		Out:          os.Stdout,
		Interrupt:    sig,
		PumpInterval: time.Duration(env.Config.UI.PumpIntervalMs) * time.Millisecond,
	}

	in := newLineInput()
	defer func() {
		in.close()
		ctl.Close()
		env.SaveSettings(env.Settings)
	}()

	fmt.Println(assistantStyle.Render("notepad chat") + infoStyle.Render("  model "+ctl.Model()+"  /help for commands"))
	if env.Notice != "" {
		fmt.Println(warningStyle.Render(env.Notice))
	}

	for {
		input, err := in.read(promptStyle.Render("You: "))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D or closed stdin
			fmt.Println()
			return nil
		}
		quit, err := chat.Exec(ctx, input)
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("[Error]")+" "+describe(err))
		}
		if quit {
			return nil
		}
		drain(sig)
	}
}

// describe turns controller errors into one line for the terminal.
func describe(err error) string {
	if pad.IsBusy(err) {
		return "Please wait: " + err.Error()
	}
	return err.Error()
}

func drain(sig <-chan os.Signal) {
	for {
		select {
		case <-sig:
		default:
			return
		}
	}
}
