// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm defines the streaming engine contract the generation worker
// consumes, and its Ollama-backed implementation.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/notepad-tui/internal/ollama"
	"github.com/jeranaias/notepad-tui/internal/transcript"
)

// DefaultSystemPrompt is used whenever the configured prompt is blank.
const DefaultSystemPrompt = "You are a helpful assistant."

// =============================================================================
// REQUEST
// =============================================================================

// Sampling holds the generation parameters sent with every request.
type Sampling struct {
	Temperature   float64
	TopP          float64
	TopK          int
	MaxTokens     int
	RepeatPenalty float64
	NumCtx        int
}

// DefaultSampling returns the stock sampling parameters.
func DefaultSampling() Sampling {
	return Sampling{
		Temperature:   0.7,
		TopP:          0.95,
		TopK:          40,
		MaxTokens:     4096,
		RepeatPenalty: 1.1,
		NumCtx:        8192,
	}
}

// Request is one generation: the new prompt, the finished turns before it,
// the model to run and the system message.
type Request struct {
	Prompt   string
	History  []transcript.Turn
	Model    string
	System   string
	Sampling Sampling
}

// Messages builds the chat message list: system, then every prior exchange,
// then the new prompt.
func (r Request) Messages() []ollama.Message {
	system := r.System
	if system == "" {
		system = DefaultSystemPrompt
	}
	msgs := make([]ollama.Message, 0, 2+2*len(r.History))
	msgs = append(msgs, ollama.NewSystemMessage(system))
	for _, t := range r.History {
		msgs = append(msgs, ollama.NewUserMessage(t.User), ollama.NewAssistantMessage(t.Assistant))
	}
	return append(msgs, ollama.NewUserMessage(r.Prompt))
}

// =============================================================================
// ENGINE
// =============================================================================

// YieldFunc receives the cumulative reply so far. Each call carries a string
// that extends the previous one. Returning false ends the stream.
type YieldFunc func(full string) bool

// Engine streams a reply for a request.
type Engine interface {
	Stream(ctx context.Context, req Request, yield YieldFunc) error
}

// ModelError reports a model that cannot be used.
type ModelError struct {
	Model string
	Cause error
}

func (e *ModelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model %s: %v", e.Model, e.Cause)
	}
	return "model " + e.Model + " unavailable"
}

func (e *ModelError) Unwrap() error {
	return e.Cause
}

// ErrModelNotFound is wrapped by ModelError when the model does not exist.
var ErrModelNotFound = errors.New("not found")

// IsModelNotFound reports whether err means the requested model is missing.
func IsModelNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}
