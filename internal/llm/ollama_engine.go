// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jeranaias/notepad-tui/internal/ollama"
)

// OllamaEngine runs requests against a local Ollama server. The model is
// loaded lazily and cached by name; asking for a different model releases
// the previous one first.
type OllamaEngine struct {
	client *ollama.Client
	logger *log.Logger

	mu     sync.Mutex
	loaded string
}

// NewOllamaEngine wraps an Ollama client. A nil logger discards output.
func NewOllamaEngine(client *ollama.Client, logger *log.Logger) *OllamaEngine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &OllamaEngine{client: client, logger: logger}
}

// Stream implements Engine.
func (e *OllamaEngine) Stream(ctx context.Context, req Request, yield YieldFunc) error {
	model, err := ModelName(req.Model)
	if err != nil {
		return err
	}
	if err := e.ensure(ctx, model); err != nil {
		return err
	}

	s := req.Sampling
	chatReq := ollama.ChatRequest{
		Model:    model,
		Messages: req.Messages(),
		Options: &ollama.Options{
			Temperature:   s.Temperature,
			TopP:          s.TopP,
			TopK:          s.TopK,
			RepeatPenalty: s.RepeatPenalty,
			NumPredict:    s.MaxTokens,
			NumCtx:        s.NumCtx,
		},
	}

	var full strings.Builder
	return e.client.ChatStream(ctx, chatReq, func(chunk ollama.StreamChunk) bool {
		if chunk.Done {
			e.logger.Printf("stream done: model=%s tokens=%d rate=%.1f tok/s reason=%s",
				model, chunk.CompletionTokens, chunk.TokensPerSecond(), chunk.DoneReason)
		}
		if chunk.Content == "" {
			return true
		}
		full.WriteString(chunk.Content)
		return yield(full.String())
	})
}

// ensure makes model the resident model, unloading any other one.
func (e *OllamaEngine) ensure(ctx context.Context, model string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded == model {
		return nil
	}
	if e.loaded != "" {
		if err := e.client.Unload(ctx, e.loaded); err != nil {
			e.logger.Printf("unload %s: %v", e.loaded, err)
		}
		e.loaded = ""
	}

	ok, err := e.client.ModelExists(ctx, model)
	if err != nil {
		return &ModelError{Model: model, Cause: err}
	}
	if !ok {
		return &ModelError{Model: model, Cause: ErrModelNotFound}
	}
	if err := e.client.Load(ctx, model); err != nil {
		return &ModelError{Model: model, Cause: err}
	}
	e.logger.Printf("loaded model %s", model)
	e.loaded = model
	return nil
}

// Loaded returns the name of the resident model, if any.
func (e *OllamaEngine) Loaded() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// Release unloads the resident model.
func (e *OllamaEngine) Release(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded == "" {
		return nil
	}
	err := e.client.Unload(ctx, e.loaded)
	e.loaded = ""
	return err
}

// Models lists installed model names.
func (e *OllamaEngine) Models(ctx context.Context) ([]string, error) {
	infos, err := e.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, m := range infos {
		names[i] = m.Name
	}
	return names, nil
}

// HasModel reports whether the configured model can be used.
func (e *OllamaEngine) HasModel(ctx context.Context, model string) (bool, error) {
	name, err := ModelName(model)
	if err != nil {
		if IsModelNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return e.client.ModelExists(ctx, name)
}

// ModelName maps a configured model to an Ollama model name. Plain names pass
// through. A path to a .gguf file must exist and resolves to the file's base
// name, which is what `ollama create` registers it under by convention.
func ModelName(model string) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", &ModelError{Model: "(none)", Cause: ErrModelNotFound}
	}
	if !strings.EqualFold(filepath.Ext(model), ".gguf") {
		return model, nil
	}
	if _, err := os.Stat(model); err != nil {
		if os.IsNotExist(err) {
			return "", &ModelError{Model: model, Cause: fmt.Errorf("file %w", ErrModelNotFound)}
		}
		return "", &ModelError{Model: model, Cause: err}
	}
	base := filepath.Base(model)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base))), nil
}
