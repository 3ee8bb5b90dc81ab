// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package notepad

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Version is shown in the About overlay. main sets it from build flags.
var Version = "dev"

const aboutMarkdown = `# notepad %s

A notepad for chatting with a local model served by **Ollama**.

- Type in the lower pane and press **%s** to send.
- Words from your own prompts are underlined in replies. **Ctrl** or **Alt**
  click one to list every prompt that used it; click again to step through
  the occurrences.
- Chats are archived when cleared or on exit. Open them from *Recent Chats*.

## Keys

| key | action |
|-----|--------|
%s

## License

Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge

This program is free software: you can redistribute it and/or modify it under
the terms of the GNU Affero General Public License as published by the Free
Software Foundation, either version 3 of the License, or (at your option) any
later version.

This program is distributed in the hope that it will be useful, but WITHOUT
ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
FOR A PARTICULAR PURPOSE. See the GNU Affero General Public License for more
details.
`

// aboutText builds the About markdown for the current key map.
func aboutText(keys KeyMap) string {
	var rows []string
	for _, group := range keys.FullHelp() {
		for _, b := range group {
			h := b.Help()
			rows = append(rows, fmt.Sprintf("| %s | %s |", h.Key, h.Desc))
		}
	}
	return fmt.Sprintf(aboutMarkdown, Version, keys.Send.Help().Key, strings.Join(rows, "\n"))
}

// renderAbout renders the About markdown for the terminal. On a renderer
// failure the raw markdown is returned.
func renderAbout(keys KeyMap, width int, dark bool) string {
	md := aboutText(keys)
	style := "light"
	if dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
