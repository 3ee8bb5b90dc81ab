// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/notepad-tui/internal/llm"
	"github.com/jeranaias/notepad-tui/internal/llm/llmtest"
)

// =============================================================================
// HELPERS
// =============================================================================

func waitDone(t *testing.T, w *Worker) {
	t.Helper()
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not finish")
	}
}

func drain(q *Queue) []Item {
	var items []Item
	for {
		it, ok := q.TryGet()
		if !ok {
			return items
		}
		items = append(items, it)
	}
}

// =============================================================================
// QUEUE TESTS
// =============================================================================

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	_, ok := q.TryGet()
	assert.False(t, ok)

	q.Put(Item{Text: "a"})
	q.Put(Item{Text: "b"})
	q.Put(Item{Done: true})
	assert.Equal(t, 3, q.Len())

	items := drain(q)
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].Text)
	assert.Equal(t, "b", items[1].Text)
	assert.True(t, items[2].Done)
}

// =============================================================================
// WORKER TESTS
// =============================================================================

func TestWorker_EnqueuesDeltasThenSentinel(t *testing.T) {
	engine := &llmtest.Scripted{Chunks: []string{"Hi", "Hi", "Hi there"}}
	w := New(engine, llm.Request{Prompt: "Hello", Model: "m"}).Start(context.Background())
	waitDone(t, w)

	items := drain(w.Queue())
	require.Len(t, items, 3)
	assert.Equal(t, "Hi", items[0].Text)
	assert.Equal(t, " there", items[1].Text)
	assert.True(t, items[2].Done)
	assert.Equal(t, "Hi there", items[2].Final)
	assert.NoError(t, items[2].Err)
	assert.False(t, w.Alive())

	require.Len(t, engine.Requests(), 1)
	assert.Equal(t, "Hello", engine.Requests()[0].Prompt)
}

func TestWorker_EngineErrorBecomesChunk(t *testing.T) {
	engine := &llmtest.Scripted{Chunks: []string{"part"}, Err: errors.New("boom")}
	w := New(engine, llm.Request{Prompt: "x"}).Start(context.Background())
	waitDone(t, w)

	items := drain(w.Queue())
	require.Len(t, items, 3)
	assert.Equal(t, "part", items[0].Text)
	assert.Equal(t, "[Error] boom\n", items[1].Text)
	assert.True(t, items[1].IsError)
	assert.False(t, items[0].IsError)
	assert.True(t, items[2].Done)
	assert.Equal(t, "part", items[2].Final)
	assert.EqualError(t, items[2].Err, "boom")
}

func TestWorker_StopWithinOneYield(t *testing.T) {
	engine := &llmtest.Scripted{Chunks: []string{"a", "ab", "abc", "abcd"}}
	var w *Worker
	engine.AfterYield = func(i int) {
		if i == 1 {
			w.Stop()
		}
	}
	w = New(engine, llm.Request{Prompt: "x"})
	w.Start(context.Background())
	waitDone(t, w)

	items := drain(w.Queue())
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].Text)
	assert.Equal(t, "b", items[1].Text)
	assert.True(t, items[2].Done)
	assert.Equal(t, "ab", items[2].Final)
	assert.True(t, w.Stopped())
}

func TestWorker_StopCancelsBlockedEngine(t *testing.T) {
	engine := &llmtest.Scripted{
		Chunks: []string{"first", "first second"},
		Step:   make(chan struct{}),
	}
	w := New(engine, llm.Request{Prompt: "x"}).Start(context.Background())

	deadline := time.After(5 * time.Second)
	for w.Queue().Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("first delta never arrived")
		case <-time.After(5 * time.Millisecond):
		}
	}
	assert.True(t, w.Alive())

	w.Stop()
	waitDone(t, w)

	items := drain(w.Queue())
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Text)
	assert.True(t, items[1].Done)
	assert.Equal(t, "first", items[1].Final)
	assert.NoError(t, items[1].Err, "a requested stop is not an error")
}

func TestWorker_NonExtendingYieldDropped(t *testing.T) {
	engine := &llmtest.Scripted{Chunks: []string{"abc", "xy", "abcd"}}
	w := New(engine, llm.Request{Prompt: "x"}).Start(context.Background())
	waitDone(t, w)

	items := drain(w.Queue())
	require.Len(t, items, 3)
	assert.Equal(t, "abc", items[0].Text)
	assert.Equal(t, "d", items[1].Text)
	assert.Equal(t, "abcd", items[2].Final)
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "[Error] model x: not found\n", ErrorText(&llm.ModelError{Model: "x", Cause: llm.ErrModelNotFound}))
}
