// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package notepad

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/notepad-tui/internal/config"
	"github.com/jeranaias/notepad-tui/internal/pad"
	"github.com/jeranaias/notepad-tui/internal/storage"
	"github.com/jeranaias/notepad-tui/internal/ui/styles"
)

// =============================================================================
// MODES
// =============================================================================

// mode is the overlay or bar that currently receives keys.
type mode int

const (
	modeNormal mode = iota
	modeFind
	modePath
	modePrompt
	modeMenu
	modeModels
	modeRecent
	modeDialog
	modeAbout
)

// Fixed heights of the frame rows.
const (
	headerHeight = 1
	inputHeight  = 3
	statusHeight = 1
	maxPanelRows = 6
	recentLimit  = 50
)

// =============================================================================
// MODEL
// =============================================================================

// ModelLister lists the models the engine can run.
type ModelLister interface {
	Models(ctx context.Context) ([]string, error)
}

// Options configures the notepad UI.
type Options struct {
	Controller *pad.Controller
	Settings   *config.Settings
	Theme      *styles.Theme
	// Models backs Select Model. May be nil.
	Models ModelLister
	// Archive backs Recent Chats. May be nil.
	Archive      *storage.Archive
	Wrap         bool
	PumpInterval time.Duration
	// Notice is shown in the status line at start.
	Notice  string
	Context context.Context
	Logger  *log.Logger
	// Clipboard replaces the system clipboard writer.
	Clipboard func(string) error
}

// Model is the Bubble Tea model of the notepad window.
type Model struct {
	ctx      context.Context
	ctl      *pad.Controller
	settings *config.Settings
	theme    *styles.Theme
	keys     KeyMap
	models   ModelLister
	archive  *storage.Archive
	logger   *log.Logger
	copyText func(string) error

	// Dimensions
	width  int
	height int

	wrap     bool
	interval time.Duration
	pumping  bool
	follow   bool

	// Transcript pane
	viewport viewport.Model
	rows     []row

	// Cross-reference pane
	panel     viewport.Model
	panelRows []row

	// Input and status
	input   textarea.Model
	spinner spinner.Model
	help    help.Model

	mode       mode
	findInput  textinput.Model
	findStatus string
	pathInput  textinput.Model
	pathAction menuAction
	editor     textarea.Model
	picker     *picker
	about      viewport.Model

	dialogTitle string
	dialogText  string
	dialogErr   bool

	status    string
	statusErr bool
	statusID  int
}

// New creates the notepad model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme("auto")
	}
	settings := opts.Settings
	if settings == nil {
		settings = config.DefaultSettings()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	interval := opts.PumpInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	copyText := opts.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}

	ta := textarea.New()
	ta.Placeholder = "Type a prompt..."
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.Focus()

	ed := textarea.New()
	ed.ShowLineNumbers = false
	ed.CharLimit = 0
	ed.SetHeight(8)

	fi := textinput.New()
	fi.Prompt = "Find: "
	fi.PromptStyle = theme.ShortcutKey
	fi.CharLimit = 200

	pi := textinput.New()
	pi.CharLimit = 1024
	pi.PromptStyle = theme.ShortcutKey

	sp := spinner.New()
	sp.Spinner = styles.LineSpinner.Bubble()
	sp.Style = theme.StatusBusy

	m := Model{
		ctx:       ctx,
		ctl:       opts.Controller,
		settings:  settings,
		theme:     theme,
		keys:      NewKeyMap(settings),
		models:    opts.Models,
		archive:   opts.Archive,
		logger:    logger,
		copyText:  copyText,
		wrap:      opts.Wrap,
		interval:  interval,
		viewport:  viewport.New(0, 0),
		panel:     viewport.New(0, 0),
		input:     ta,
		spinner:   sp,
		help:      help.New(),
		findInput: fi,
		pathInput: pi,
		editor:    ed,
		status:    opts.Notice,
	}
	m.viewport.MouseWheelEnabled = false
	return m
}

// Settings returns the settings as changed by the session (model and
// system prompt); main saves them on exit.
func (m Model) Settings() *config.Settings {
	return m.settings
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// =============================================================================
// pad.View
// =============================================================================

// AtBottom reports whether the transcript view shows its last line.
func (m *Model) AtBottom() bool {
	return pad.NearBottom(m.viewport.YOffset, m.viewport.Height, m.viewport.TotalLineCount())
}

// ScrollToEnd scrolls to the end after the pending refresh.
func (m *Model) ScrollToEnd() {
	m.follow = true
}

// =============================================================================
// LAYOUT
// =============================================================================

// resize recomputes pane sizes for the window and visible bars.
func (m *Model) resize() {
	m.theme.SetSize(m.width, m.height)

	m.input.SetWidth(m.width - 2)
	m.editor.SetWidth(minInt(m.width-8, 80))
	m.findInput.Width = m.width - 20
	m.pathInput.Width = minInt(m.width-12, 70)
	m.help.Width = m.width / 2

	panelH := 0
	if m.ctl.Panel().Visible() {
		panelH = minInt(len(m.panelRows), maxPanelRows)
		if panelH == 0 {
			panelH = 1
		}
		m.panel.Width = m.width
		m.panel.Height = panelH
		panelH++ // title
	}
	findH := 0
	if m.mode == modeFind {
		findH = 1
	}

	h := m.height - headerHeight - panelH - findH - (inputHeight + 1) - statusHeight
	if h < 1 {
		h = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.about.Width = minInt(m.width-6, 90)
	m.about.Height = maxInt(m.height-6, 3)
}

// refresh lays out and repaints the transcript.
func (m *Model) refresh() {
	buf := m.ctl.Buffer()
	styleOn := m.ctl.StyleOn()
	m.rows = layout([]rune(buf.String()), m.viewport.Width, m.wrap)
	marks, sts := paint(buf, styles.TagPriority, func(tag string) (lipgloss.Style, bool) {
		return m.theme.TagStyle(tag, styleOn)
	})
	m.viewport.SetContent(strings.Join(renderRows(m.rows, marks, sts, m.viewport.Width), "\n"))
	if m.follow {
		m.viewport.GotoBottom()
		m.follow = false
	}
}

// refreshPanel repaints the cross-reference pane and scrolls its focus
// into view.
func (m *Model) refreshPanel() {
	p := m.ctl.Panel()
	buf := p.Buffer()
	m.panelRows = layout([]rune(buf.String()), m.width, true)
	// the trailing newline leaves an empty last row
	if n := len(m.panelRows); n > 1 && len(m.panelRows[n-1].text) == 0 {
		m.panelRows = m.panelRows[:n-1]
	}
	m.resize()
	marks, sts := paint(buf, styles.TagPriority, func(tag string) (lipgloss.Style, bool) {
		return m.theme.TagStyle(tag, true)
	})
	m.panel.SetContent(strings.Join(renderRows(m.panelRows, marks, sts, m.width), "\n"))

	if res := p.Last(); res.Index >= 0 {
		m.panel.SetYOffset(rowFor(m.panelRows, res.Focus.Start) - m.panel.Height/2)
	}
}

// centerOn scrolls the transcript so buffer offset pos is mid-view.
func (m *Model) centerOn(pos int) {
	m.viewport.SetYOffset(rowFor(m.rows, pos) - m.viewport.Height/2)
}

// bufferOffset maps a screen cell to a transcript buffer offset.
func (m *Model) bufferOffset(x, y int) (int, bool) {
	r := y - headerHeight
	if r < 0 || r >= m.viewport.Height {
		return 0, false
	}
	i := m.viewport.YOffset + r
	if i < 0 || i >= len(m.rows) {
		return 0, false
	}
	return offsetAt(m.rows[i], x), true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
