// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llmtest provides a scripted llm.Engine for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/jeranaias/notepad-tui/internal/llm"
)

// Scripted yields a fixed list of cumulative strings.
type Scripted struct {
	// Chunks are yielded in order; each should extend the previous one.
	Chunks []string
	// Err is returned after the chunks are exhausted.
	Err error
	// Step, when set, must receive a value before every yield after the
	// first. A cancelled context ends the stream with ctx.Err().
	Step chan struct{}
	// AfterYield runs after the i-th yield returns true.
	AfterYield func(i int)

	mu       sync.Mutex
	requests []llm.Request
}

// Stream implements llm.Engine.
func (s *Scripted) Stream(ctx context.Context, req llm.Request, yield llm.YieldFunc) error {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	for i, chunk := range s.Chunks {
		if i > 0 && s.Step != nil {
			select {
			case <-s.Step:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if !yield(chunk) {
			return nil
		}
		if s.AfterYield != nil {
			s.AfterYield(i)
		}
	}
	return s.Err
}

// Requests returns every request seen so far.
func (s *Scripted) Requests() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Request, len(s.requests))
	copy(out, s.requests)
	return out
}
