// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// Only the endpoints the notepad needs are covered: streaming chat, model
// listing and inspection, and loading or unloading a model through
// /api/generate with keep_alive.
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: url})
//	err := client.ChatStream(ctx, ollama.ChatRequest{
//	    Model:    "gemma3:1b",
//	    Messages: []ollama.Message{ollama.NewUserMessage("Hello")},
//	}, func(chunk ollama.StreamChunk) bool {
//	    fmt.Print(chunk.Content)
//	    return true
//	})
package ollama
