// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jeranaias/notepad-tui/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

// InvalidFileError reports a session file that is not a JSON array of
// {"user": string, "assistant": string} records.
type InvalidFileError struct {
	// Index of the offending record, or -1 for document-level problems.
	Index  int
	Reason string
}

func (e *InvalidFileError) Error() string {
	if e.Index < 0 {
		return "invalid chat file: " + e.Reason
	}
	return fmt.Sprintf("invalid chat file: record %d: %s", e.Index, e.Reason)
}

// =============================================================================
// DECODE / ENCODE
// =============================================================================

// Decode parses a session document. Every element must be an object with
// exactly the string fields "user" and "assistant".
func Decode(r io.Reader) ([]Turn, error) {
	dec := json.NewDecoder(r)
	var records []map[string]json.RawMessage
	if err := dec.Decode(&records); err != nil {
		return nil, &InvalidFileError{Index: -1, Reason: err.Error()}
	}
	if dec.More() {
		return nil, &InvalidFileError{Index: -1, Reason: "trailing data after array"}
	}
	if records == nil {
		return nil, &InvalidFileError{Index: -1, Reason: "expected a JSON array"}
	}

	turns := make([]Turn, 0, len(records))
	for i, rec := range records {
		if rec == nil {
			return nil, &InvalidFileError{Index: i, Reason: "expected an object"}
		}
		var extra []string
		for k := range rec {
			if k != "user" && k != "assistant" {
				extra = append(extra, k)
			}
		}
		if len(extra) > 0 {
			sort.Strings(extra)
			return nil, &InvalidFileError{Index: i, Reason: "unexpected fields " + strings.Join(extra, ", ")}
		}

		var t Turn
		for _, f := range []struct {
			name string
			dst  *string
		}{{"user", &t.User}, {"assistant", &t.Assistant}} {
			raw, ok := rec[f.name]
			if !ok {
				return nil, &InvalidFileError{Index: i, Reason: "missing field " + f.name}
			}
			if err := json.Unmarshal(raw, f.dst); err != nil || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
				return nil, &InvalidFileError{Index: i, Reason: "field " + f.name + " must be a string"}
			}
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Encode writes turns as an indented UTF-8 JSON array.
func Encode(w io.Writer, turns []Turn) error {
	if turns == nil {
		turns = []Turn{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(turns)
}

// LoadFile reads and validates a session file.
func LoadFile(path string) ([]Turn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// SaveFile writes a session file atomically.
func SaveFile(path string, turns []Turn) error {
	return util.AtomicWrite(path, 0644, func(w io.Writer) error {
		return Encode(w, turns)
	})
}
