// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jeranaias/notepad-tui/internal/export"
	"github.com/jeranaias/notepad-tui/internal/storage"
	"github.com/jeranaias/notepad-tui/internal/util"
)

// =============================================================================
// ARCHIVE COMMAND
// =============================================================================

// ErrArchiveDisabled is returned when the archive command runs without a
// database.
var ErrArchiveDisabled = errors.New("the chat archive is disabled in config.toml")

// JSONResponse is the --json envelope of the archive command.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
	Command   string  `json:"command,omitempty"`
}

func writeJSON(w io.Writer, command string, data any, err error) error {
	resp := JSONResponse{
		Success:   err == nil,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
	if err != nil {
		msg := err.Error()
		resp.Error = &msg
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// entryJSON is one listing row in --json output.
type entryJSON struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	UpdatedAt time.Time `json:"updated_at"`
	Turns     int       `json:"turns"`
}

// HandleArchive runs "notepad archive <list|show|export|delete>".
func HandleArchive(args Args, a *storage.Archive, out io.Writer) error {
	p := args.Parser()
	asJSON := p.BoolFlag("json")
	if a == nil {
		if asJSON {
			return writeJSON(out, "archive", nil, ErrArchiveDisabled)
		}
		return ErrArchiveDisabled
	}

	sub := args.Subcommand
	id := p.Positional(2)
	switch sub {
	case "", "list", "ls":
		return archiveList(p, a, out, asJSON)
	case "show":
		return archiveShow(id, a, out, asJSON)
	case "export":
		return archiveExport(p, a, out)
	case "delete", "rm":
		if id == "" {
			return errors.New("usage: notepad archive delete ID")
		}
		if err := a.Delete(id); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %s\n", id)
		return nil
	}
	return fmt.Errorf("unknown archive command %q (list, show, export, delete)", sub)
}

func archiveList(p *ArgParser, a *storage.Archive, out io.Writer, asJSON bool) error {
	limit, err := p.FlagInt(20, "limit", "n")
	if err != nil {
		return err
	}

	var metas []storage.EntryMeta
	if q := p.Flag("search", "s"); q != "" {
		metas, err = a.Search(q)
		if err == nil && limit > 0 && len(metas) > limit {
			metas = metas[:limit]
		}
	} else {
		metas, err = a.List(limit)
	}

	if asJSON {
		rows := make([]entryJSON, 0, len(metas))
		for _, m := range metas {
			rows = append(rows, entryJSON{ID: m.ID, Title: m.Title, Model: m.Model, UpdatedAt: m.UpdatedAt, Turns: m.TurnCount})
		}
		return writeJSON(out, "archive list", rows, err)
	}
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Fprintln(out, "No archived chats.")
		return nil
	}
	writeEntryList(out, metas)
	if total, err := a.Count(); err == nil && total > len(metas) {
		fmt.Fprintf(out, "\n%d of %d chats shown\n", len(metas), total)
	}
	return nil
}

// writeEntryList prints one line per chat: short ID, date, turns, model and title.
func writeEntryList(out io.Writer, metas []storage.EntryMeta) {
	fmt.Fprintf(out, "%-8s  %-16s  %5s  %-16s  %s\n", "ID", "UPDATED", "TURNS", "MODEL", "TITLE")
	for _, m := range metas {
		fmt.Fprintf(out, "%-8s  %-16s  %5d  %-16s  %s\n",
			m.ShortID(),
			m.UpdatedAt.Local().Format("2006-01-02 15:04"),
			m.TurnCount,
			util.TruncateWidth(m.Model, 16),
			util.TruncateWidth(m.Title, 60),
		)
	}
}

func archiveShow(id string, a *storage.Archive, out io.Writer, asJSON bool) error {
	if id == "" {
		return errors.New("usage: notepad archive show ID")
	}
	e, err := a.Get(id)
	if asJSON {
		return writeJSON(out, "archive show", e, err)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s  %s\n", e.Title, infoStyle.Render(e.ID))
	fmt.Fprintf(out, "%s  model %s  %d turns\n\n",
		e.UpdatedAt.Local().Format("2006-01-02 15:04"), e.Model, len(e.Turns))

	text, err := export.TextExporter{}.Export(e)
	if err != nil {
		return err
	}
	_, err = out.Write(text)
	return err
}

// archiveExport writes a chat in one of the export formats. The default
// session format is what Load Chat accepts. A path of "auto" picks a name.
func archiveExport(p *ArgParser, a *storage.Archive, out io.Writer) error {
	id := p.Positional(2)
	if id == "" {
		return errors.New("usage: notepad archive export ID [--format FORMAT] [--out FILE|auto]")
	}
	ex, err := export.ByName(p.FlagOrDefault(export.FormatSession, "format", "f"))
	if err != nil {
		return err
	}
	e, err := a.Get(id)
	if err != nil {
		return err
	}
	data, err := ex.Export(e)
	if err != nil {
		return err
	}

	path := p.Flag("out", "o")
	if path == "" {
		_, err = out.Write(data)
		return err
	}
	if path == "auto" {
		path = export.FileName(e, ex)
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Fprintf(out, "Exported %d turns to %s\n", len(e.Turns), path)
	return nil
}
