// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pad is the notepad controller: it owns the session, the rendered
// transcript and the in-flight generation, independent of any UI toolkit.
//
// All methods must be called from one goroutine (the UI loop). The only
// concurrent party is the generation worker, which talks to the controller
// exclusively through its queue; Pump moves queued text into the transcript.
package pad

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jeranaias/notepad-tui/internal/find"
	"github.com/jeranaias/notepad-tui/internal/generate"
	"github.com/jeranaias/notepad-tui/internal/highlight"
	"github.com/jeranaias/notepad-tui/internal/llm"
	"github.com/jeranaias/notepad-tui/internal/markdown"
	"github.com/jeranaias/notepad-tui/internal/storage"
	"github.com/jeranaias/notepad-tui/internal/textbuf"
	"github.com/jeranaias/notepad-tui/internal/tokens"
	"github.com/jeranaias/notepad-tui/internal/transcript"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// View is the transcript viewport as seen by Pump.
type View interface {
	// AtBottom reports whether the view currently shows the end of the text.
	AtBottom() bool
	// ScrollToEnd moves the view to the end of the text.
	ScrollToEnd()
}

// NearBottom implements the AtBottom rule for a line-based viewport: the
// view counts as at the bottom when its lower edge is within 1% of the end.
func NearBottom(yOffset, height, total int) bool {
	if total <= height || total == 0 {
		return true
	}
	return float64(yOffset+height)/float64(total) >= 0.99
}

// Archiver stores finished sessions.
type Archiver interface {
	Put(e *storage.Entry) (string, error)
}

// Options configures a Controller.
type Options struct {
	Engine   llm.Engine
	Model    string
	System   string
	Sampling llm.Sampling
	// HighlightStyle starts with user tokens drawn bold and underlined.
	HighlightStyle bool
	// Archive receives sessions on Clear, Load and Close. May be nil.
	Archive Archiver
	Logger  *log.Logger
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller implements the notepad operations.
type Controller struct {
	engine   llm.Engine
	model    string
	system   string
	sampling llm.Sampling
	archive  Archiver
	logger   *log.Logger

	session *transcript.Session
	tr      *transcript.Transcript
	hl      *highlight.Highlighter
	panel   *highlight.Panel
	finder  *find.Finder

	worker *generate.Worker
	// errAt is where the current stream's error chunk starts, or -1.
	errAt int

	archiveID string
}

// New creates an idle controller with an empty session.
func New(opts Options) *Controller {
	tr := transcript.New()
	c := &Controller{
		engine:   opts.Engine,
		model:    opts.Model,
		system:   opts.System,
		sampling: opts.Sampling,
		archive:  opts.Archive,
		logger:   opts.Logger,
		session:  transcript.NewSession(),
		tr:       tr,
		hl:       highlight.New(opts.HighlightStyle),
		panel:    highlight.NewPanel(),
		finder:   find.New(tr.Buffer()),
		errAt:    -1,
	}
	if c.system == "" {
		c.system = llm.DefaultSystemPrompt
	}
	if c.sampling == (llm.Sampling{}) {
		c.sampling = llm.DefaultSampling()
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	return c
}

// Session returns the session. Callers must not modify it.
func (c *Controller) Session() *transcript.Session { return c.session }

// Transcript returns the rendered transcript.
func (c *Controller) Transcript() *transcript.Transcript { return c.tr }

// Panel returns the cross-reference panel.
func (c *Controller) Panel() *highlight.Panel { return c.panel }

// Model returns the configured model name.
func (c *Controller) Model() string { return c.model }

// SystemPrompt returns the system prompt.
func (c *Controller) SystemPrompt() string { return c.system }

// StyleOn reports whether user tokens are drawn bold and underlined.
func (c *Controller) StyleOn() bool { return c.hl.StyleOn() }

// SetModel selects the model for the next Send.
func (c *Controller) SetModel(model string) {
	c.model = strings.TrimSpace(model)
}

// SetSystemPrompt replaces the system prompt for the next Send.
func (c *Controller) SetSystemPrompt(prompt string) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = llm.DefaultSystemPrompt
	}
	c.system = prompt
}

// Streaming reports whether a reply is in flight. It stays true until Pump
// has consumed the end-of-stream sentinel.
func (c *Controller) Streaming() bool {
	return c.worker != nil
}

// =============================================================================
// SEND / STOP
// =============================================================================

// Send starts a reply to prompt. The prompt is trimmed; an empty prompt or
// an in-flight reply is refused without changing any state.
func (c *Controller) Send(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return opErr("send", ErrEmptyPrompt)
	}
	if c.Streaming() {
		return opErr("send", ErrBusy)
	}

	if err := c.tr.AppendTurn(prompt); err != nil {
		return wrapErr(KindInternal, "send", "transcript rejected the turn", err)
	}
	if err := c.session.Append(prompt); err != nil {
		return wrapErr(KindInvalid, "send", "invalid prompt", err)
	}
	// Every turn before the one just opened.
	history := c.session.History()

	req := llm.Request{
		Prompt:   prompt,
		History:  history,
		Model:    c.model,
		System:   c.system,
		Sampling: c.sampling,
	}
	c.errAt = -1
	c.worker = generate.New(c.engine, req, generate.WithLogger(c.logger)).Start(ctx)
	c.logger.Printf("send: turn %d, stream %s", c.session.Len(), c.worker.ID())
	return nil
}

// Stop asks the in-flight reply to finish. It reports whether a reply was
// running. The worker still delivers its sentinel through Pump.
func (c *Controller) Stop() bool {
	if c.worker == nil {
		return false
	}
	c.worker.Stop()
	return true
}

// =============================================================================
// PUMP
// =============================================================================

// PumpResult describes one Pump call.
type PumpResult struct {
	// Chunks is the number of text items applied.
	Chunks int
	// Done is set when the stream ended during this call.
	Done bool
	// Reschedule is set while the stream is still active.
	Reschedule bool
	// Err is the stream failure, if any. Its text is already in the transcript.
	Err error
}

// Pump drains the worker queue without blocking. Text is appended to the
// open reply; the view is kept at the bottom only if it was there before the
// insert, and likewise for the separator added on the sentinel. On the
// sentinel the reply is committed, finalized, post-processed and the
// controller becomes idle.
func (c *Controller) Pump(view View) PumpResult {
	var res PumpResult
	if c.worker == nil {
		return res
	}

	q := c.worker.Queue()
	for {
		item, ok := q.TryGet()
		if !ok {
			break
		}
		if item.Done {
			follow := view != nil && view.AtBottom()
			c.finish(item)
			if follow {
				view.ScrollToEnd()
			}
			res.Done = true
			res.Err = item.Err
			return res
		}

		follow := view != nil && view.AtBottom()
		if item.IsError && c.errAt < 0 {
			c.errAt = c.tr.Buffer().Len()
		}
		c.tr.Extend(item.Text)
		res.Chunks++
		if follow {
			view.ScrollToEnd()
		}
	}

	res.Reschedule = true
	return res
}

// Wait blocks until the in-flight reply has ended and pumps it to
// completion. Used by line-mode front ends that have no UI loop.
func (c *Controller) Wait(ctx context.Context, view View) (PumpResult, error) {
	total := PumpResult{}
	for c.worker != nil {
		w := c.worker
		select {
		case <-w.Done():
		case <-ctx.Done():
			c.Stop()
			<-w.Done()
		}
		res := c.Pump(view)
		total.Chunks += res.Chunks
		if res.Done {
			total.Done = true
			total.Err = res.Err
		}
	}
	return total, ctx.Err()
}

func (c *Controller) finish(item generate.Item) {
	w := c.worker
	c.worker = nil

	c.session.SetLastAssistant(item.Final)

	end := c.tr.Buffer().Len()
	if c.errAt >= 0 {
		end = c.errAt
	}
	c.errAt = -1

	if _, err := c.tr.FinalizeAt(end, transcript.StreamSeparator); err != nil {
		c.internalError("finalize", err)
		return
	}
	c.postProcess(c.tr.Len()-1, c.tokenSet())
	c.logger.Printf("stream %s: committed %d bytes, stopped=%v", w.ID(), len(item.Final), w.Stopped())
}

// =============================================================================
// POST-PROCESSING
// =============================================================================

func (c *Controller) tokenSet() *tokens.Set {
	return tokens.Extract(c.session.Users())
}

// postProcess rewrites markdown in segment i and re-tags user tokens there.
func (c *Controller) postProcess(i int, set *tokens.Set) {
	text := c.tr.SegmentText(i)
	r, ok := c.tr.Segment(i)
	if !ok {
		c.internalError("post-process", fmt.Errorf("segment %d missing", i))
		return
	}
	if cleaned := markdown.Clean(text); cleaned != text {
		var err error
		r, err = c.tr.Rewrite(i, cleaned)
		if err != nil {
			c.internalError("post-process", err)
			return
		}
	}
	if err := c.tr.Check(); err != nil {
		c.internalError("post-process", err)
		return
	}
	c.hl.Apply(c.tr.Buffer(), r, set)
}

// internalError abandons the current segment and appends a diagnostic.
func (c *Controller) internalError(op string, err error) {
	c.logger.Printf("internal error during %s: %v", op, err)
	c.tr.Buffer().Append(fmt.Sprintf("[Internal] %s: %v\n", op, err))
}

// ToggleStyle flips the user token style and re-tags every segment. The
// session is not touched.
func (c *Controller) ToggleStyle() bool {
	on := c.hl.Toggle()
	c.hl.ApplyAll(c.tr, c.tokenSet())
	return on
}

// =============================================================================
// CLEAR / LOAD / SAVE
// =============================================================================

// Clear archives and empties the session and transcript.
func (c *Controller) Clear() error {
	if c.Streaming() {
		return opErr("clear", ErrBusy)
	}
	c.archiveSession()
	c.session.Clear()
	c.tr.Clear()
	c.finder.Reset()
	c.panel.Hide()
	c.archiveID = ""
	return nil
}

// Load replaces the session with the turns in the session file at path and
// returns the number of turns loaded. A malformed file leaves all state
// unchanged.
func (c *Controller) Load(path string) (int, error) {
	if c.Streaming() {
		return 0, opErr("load", ErrBusy)
	}
	turns, err := transcript.LoadFile(path)
	if err != nil {
		var invalid *transcript.InvalidFileError
		if errors.As(err, &invalid) {
			return 0, wrapErr(KindInvalid, "load", "not a chat file", err)
		}
		return 0, wrapErr(KindIO, "load", "could not read "+path, err)
	}
	if err := checkTurns(turns); err != nil {
		return 0, wrapErr(KindInvalid, "load", "not a chat file", err)
	}
	c.archiveSession()
	c.replace(turns)
	c.archiveID = ""
	return len(turns), nil
}

// Restore replaces the session with an archived chat. Later archiving
// updates the same entry.
func (c *Controller) Restore(e *storage.Entry) error {
	if c.Streaming() {
		return opErr("restore", ErrBusy)
	}
	if err := checkTurns(e.Turns); err != nil {
		return wrapErr(KindInvalid, "restore", "archived chat is unusable", err)
	}
	if c.archiveID != e.ID {
		c.archiveSession()
	}
	c.replace(e.Turns)
	c.archiveID = e.ID
	if e.Model != "" {
		c.model = e.Model
	}
	return nil
}

// checkTurns rejects records that cannot be rendered as turns.
func checkTurns(turns []transcript.Turn) error {
	for i, t := range turns {
		if strings.TrimSpace(t.User) == "" {
			return &transcript.InvalidFileError{Index: i, Reason: "user message is empty"}
		}
	}
	return nil
}

func (c *Controller) replace(turns []transcript.Turn) {
	c.session.Replace(turns)
	c.tr.Clear()
	c.finder.Reset()
	c.panel.Hide()

	if _, err := c.tr.Render(c.session.Turns()); err != nil {
		c.internalError("render", err)
		return
	}
	set := c.tokenSet()
	for i := 0; i < c.tr.Len(); i++ {
		c.postProcess(i, set)
	}
}

// Save writes the session to path as a session file.
func (c *Controller) Save(path string) error {
	if c.session.Empty() {
		return opErr("save", ErrNothingToSave)
	}
	if err := transcript.SaveFile(path, c.session.Turns()); err != nil {
		return wrapErr(KindIO, "save", "could not write "+path, err)
	}
	return nil
}

// Close stops any reply and archives the session. It is called on exit.
func (c *Controller) Close() {
	if w := c.worker; w != nil {
		w.Stop()
		<-w.Done()
		c.Pump(nil)
	}
	c.archiveSession()
}

// archiveSession stores the current session if it has turns.
func (c *Controller) archiveSession() {
	if c.archive == nil || c.session.Empty() {
		return
	}
	id, err := c.archive.Put(&storage.Entry{
		ID:    c.archiveID,
		Model: c.model,
		Turns: c.session.Turns(),
	})
	if err != nil {
		c.logger.Printf("archive: %v", err)
		return
	}
	c.archiveID = id
}

// =============================================================================
// CROSS-REFERENCE / FIND
// =============================================================================

// Activate opens the cross-reference panel for the highlighted token at pos
// in the transcript. It reports false when pos is not on a user token.
func (c *Controller) Activate(pos int) (highlight.Result, bool) {
	query, ok := highlight.QueryAt(c.tr.Buffer(), pos)
	if !ok {
		return highlight.Result{}, false
	}
	return c.panel.Activate(c.session.Users(), query), true
}

// Find highlights the next case-insensitive match of query after the
// previous one. A miss resets the search to the start of the transcript.
func (c *Controller) Find(query string) (find.Match, error) {
	m, err := c.finder.Next(query)
	if errors.Is(err, find.ErrNotFound) {
		return m, opErr("find", ErrNotFound)
	}
	return m, err
}

// CloseFind removes the find highlight.
func (c *Controller) CloseFind() {
	c.finder.Close()
}

// LastReply returns the post-processed text of the latest finished reply.
func (c *Controller) LastReply() string {
	n := c.tr.Len()
	if n == 0 {
		return ""
	}
	return c.tr.SegmentText(n - 1)
}

// Buffer is a shortcut for the transcript buffer.
func (c *Controller) Buffer() *textbuf.Buffer {
	return c.tr.Buffer()
}
