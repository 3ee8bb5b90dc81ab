// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package generate runs one LLM request on a background goroutine and turns
// its cumulative output into ordered deltas for the UI pump.
package generate

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/notepad-tui/internal/llm"
)

// ErrorText formats an engine failure as the chunk shown in the transcript.
func ErrorText(err error) string {
	return "[Error] " + err.Error() + "\n"
}

// =============================================================================
// WORKER
// =============================================================================

// Worker drives a single streaming request. It never touches the
// transcript; everything it produces goes through its Queue, ending with
// exactly one sentinel.
type Worker struct {
	id     string
	engine llm.Engine
	req    llm.Request
	queue  *Queue
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	stop   atomic.Bool
	done   chan struct{}
	once   sync.Once

	progress rate.Sometimes
}

// Option customizes a Worker.
type Option func(*Worker)

// WithLogger sets the diagnostics logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// New prepares a worker. Call Start to launch it.
func New(engine llm.Engine, req llm.Request, opts ...Option) *Worker {
	w := &Worker{
		id:       uuid.NewString(),
		engine:   engine,
		req:      req,
		queue:    NewQueue(),
		logger:   log.New(io.Discard, "", 0),
		done:     make(chan struct{}),
		progress: rate.Sometimes{Interval: time.Second},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the worker goroutine. It is safe to call more than once.
func (w *Worker) Start(ctx context.Context) *Worker {
	w.once.Do(func() {
		w.ctx, w.cancel = context.WithCancel(ctx)
		go w.run()
	})
	return w
}

// ID identifies the request in logs.
func (w *Worker) ID() string {
	return w.id
}

// Queue returns the delta queue.
func (w *Worker) Queue() *Queue {
	return w.queue
}

// Stop asks the worker to finish. The stream ends at the next yield at the
// latest; a blocked engine call is also cancelled through the context.
func (w *Worker) Stop() {
	w.stop.Store(true)
	if w.cancel != nil {
		w.cancel()
	}
}

// Stopped reports whether Stop was called.
func (w *Worker) Stopped() bool {
	return w.stop.Load()
}

// Alive reports whether the goroutine is still running.
func (w *Worker) Alive() bool {
	if w.cancel == nil {
		return false
	}
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// Done is closed when the goroutine exits, after the sentinel is queued.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) run() {
	defer close(w.done)
	defer w.cancel()

	started := time.Now()
	w.logger.Printf("stream %s: start model=%s history=%d", w.id, w.req.Model, len(w.req.History))

	last := ""
	yields := 0
	err := w.engine.Stream(w.ctx, w.req, func(full string) bool {
		if w.stop.Load() {
			return false
		}
		yields++
		switch {
		case strings.HasPrefix(full, last):
			if delta := full[len(last):]; delta != "" {
				w.queue.Put(Item{Text: delta})
			}
		default:
			// A non-extending string cannot be rendered append-only; skip it.
			w.logger.Printf("stream %s: engine rewrote earlier output, dropping yield", w.id)
			return true
		}
		last = full
		w.progress.Do(func() {
			w.logger.Printf("stream %s: %d yields, %d bytes", w.id, yields, len(last))
		})
		return true
	})

	if err != nil && w.stop.Load() && errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		w.logger.Printf("stream %s: error: %v", w.id, err)
		w.queue.Put(Item{Text: ErrorText(err), IsError: true})
	}

	w.queue.Put(Item{Done: true, Final: last, Err: err})
	w.logger.Printf("stream %s: finished in %s stopped=%v bytes=%d",
		w.id, time.Since(started).Round(time.Millisecond), w.stop.Load(), len(last))
}
