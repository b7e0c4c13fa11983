package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/cj3636/gblame/internal/blame"
	"github.com/cj3636/gblame/internal/config"
	"github.com/cj3636/gblame/internal/export"
	"github.com/cj3636/gblame/internal/highlight"
	"github.com/cj3636/gblame/internal/history"
	"github.com/dustin/go-humanize"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
)

// CommitLookup supplies the metadata shown in block headers.
type CommitLookup interface {
	Commits(ids ...blame.CommitID) (map[blame.CommitID]blame.Commit, error)
}

// Model represents the application state
type Model struct {
	nav             *history.Navigator
	commits         CommitLookup
	highlighter     *highlight.Highlighter
	config          *config.Config
	styles          *Styles
	keys            keyMap
	help            help.Model
	viewport        Viewport
	width           int
	height          int
	showHelp        bool
	syntaxHighlight bool
	showLineNo      bool
	notice          *history.Notice
	meta            map[blame.CommitID]blame.Commit
	highlighted     map[blame.CommitID][]string
	copyFn          func(string) error
	log             *zap.Logger
	now             func() time.Time
}

// Viewport controls the visible portion of the blame
type Viewport struct {
	offset int // Index of the first visible line
	height int // Available height for rows
}

// Styles holds all the lipgloss styles
type Styles struct {
	time       lipgloss.Style
	author     lipgloss.Style
	commit     lipgloss.Style
	message    lipgloss.Style
	lineNumber lipgloss.Style
	content    lipgloss.Style
	selected   lipgloss.Style
	divider    lipgloss.Style
	header     lipgloss.Style
	title      lipgloss.Style
	help       lipgloss.Style
	statusBar  lipgloss.Style
	info       lipgloss.Style
	error      lipgloss.Style
}

// NewModel creates a new TUI model over an opened navigator.
func NewModel(nav *history.Navigator, cfg *config.Config, commits CommitLookup, hl *highlight.Highlighter) Model {
	m := Model{
		nav:             nav,
		commits:         commits,
		highlighter:     hl,
		config:          cfg,
		styles:          createStyles(cfg.Theme),
		keys:            newKeyMap(cfg.Keybindings),
		help:            help.New(),
		viewport:        Viewport{offset: 0, height: 20},
		syntaxHighlight: cfg.SyntaxHighlight && hl != nil,
		showLineNo:      cfg.ShowLineNo,
		meta:            make(map[blame.CommitID]blame.Commit),
		highlighted:     make(map[blame.CommitID][]string),
		copyFn:          func(s string) error { return export.CopyToClipboard(s, nil) },
		log:             zap.NewNop(),
		now:             time.Now,
	}
	m.help.ShowAll = true
	m.loadCommits()
	return m
}

// WithLogger returns a copy of the model that logs to log.
func (m Model) WithLogger(log *zap.Logger) Model {
	m.log = log
	return m
}

// WithClipboard replaces the function used to copy commit ids.
func (m Model) WithClipboard(copyFn func(string) error) Model {
	m.copyFn = copyFn
	return m
}

// createStyles initializes all lipgloss styles based on theme
func createStyles(theme config.Theme) *Styles {
	return &Styles{
		time:       lipgloss.NewStyle().Foreground(theme.TimeFg),
		author:     lipgloss.NewStyle().Foreground(theme.AuthorFg),
		commit:     lipgloss.NewStyle().Foreground(theme.CommitFg),
		message:    lipgloss.NewStyle().Foreground(theme.MessageFg),
		lineNumber: lipgloss.NewStyle().Foreground(theme.LineNumberFg).Align(lipgloss.Right),
		content:    lipgloss.NewStyle().Foreground(theme.ContentFg),
		selected:   lipgloss.NewStyle().Background(theme.SelectedBg),
		divider:    lipgloss.NewStyle().Foreground(theme.BorderFg),
		header: lipgloss.NewStyle().
			Foreground(theme.AuthorFg).
			Bold(true),
		title: lipgloss.NewStyle().
			Foreground(theme.TitleFg).
			Background(theme.TitleBg).
			Bold(true).
			Padding(0, 1),
		help: lipgloss.NewStyle().
			Foreground(theme.HelpFg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.BorderFg).
			Padding(0, 1),
		statusBar: lipgloss.NewStyle().
			Foreground(theme.TitleFg).
			Background(theme.TitleBg).
			Padding(0, 1),
		info:  lipgloss.NewStyle().Foreground(theme.InfoFg).Bold(true),
		error: lipgloss.NewStyle().Foreground(theme.ErrorFg).Bold(true),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.notice = nil

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.LineDown):
			m.nav.MoveLine(1)
		case key.Matches(msg, m.keys.LineUp):
			m.nav.MoveLine(-1)
		case key.Matches(msg, m.keys.BlockDown):
			m.nav.MoveBlock(history.Down)
		case key.Matches(msg, m.keys.BlockUp):
			m.nav.MoveBlock(history.Up)
		case key.Matches(msg, m.keys.PageDown):
			m.nav.MoveLine(m.halfPage())
		case key.Matches(msg, m.keys.PageUp):
			m.nav.MoveLine(-m.halfPage())
		case key.Matches(msg, m.keys.GoTop):
			m.nav.MoveLine(-len(m.nav.Lines()))
		case key.Matches(msg, m.keys.GoBottom):
			m.nav.MoveLine(len(m.nav.Lines()))
		case key.Matches(msg, m.keys.TravelBack):
			m.travelBackward()
		case key.Matches(msg, m.keys.TravelForward):
			m.travelForward()
		case key.Matches(msg, m.keys.CopyCommit):
			m.copyCommit()
		case key.Matches(msg, m.keys.ToggleSyntax):
			m.syntaxHighlight = !m.syntaxHighlight && m.highlighter != nil
		case key.Matches(msg, m.keys.ToggleLineNumbers):
			m.showLineNo = !m.showLineNo
		case key.Matches(msg, m.keys.ToggleHelp):
			m.showHelp = !m.showHelp
			m.updateViewportHeight()
		}
		m.ensureVisible()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = max(msg.Width-4, 0)
		m.updateViewportHeight()
		m.ensureVisible()
	}

	return m, nil
}

func (m *Model) travelBackward() {
	from := m.nav.Anchor()
	loc, err := m.nav.TravelBackward()
	if err != nil {
		notice := history.Explain(err)
		m.notice = &notice
		return
	}
	m.viewport.offset = 0
	m.loadCommits()
	m.notice = &history.Notice{
		Level: history.LevelInfo,
		Text: fmt.Sprintf("%s → %s, line %d (%s match)",
			from.Short(), m.nav.Anchor().Short(), loc.Line, loc.Strategy),
	}
}

func (m *Model) travelForward() {
	if !m.nav.TravelForward() {
		m.notice = &history.Notice{Level: history.LevelInfo, Text: "no newer view to return to"}
		return
	}
	m.viewport.offset = 0
	m.loadCommits()
}

func (m *Model) copyCommit() {
	id := m.nav.Current().SelectedRecord().Commit
	if err := m.copyFn(string(id)); err != nil {
		m.notice = &history.Notice{Level: history.LevelError, Text: "copy failed: " + err.Error()}
		return
	}
	m.notice = &history.Notice{Level: history.LevelInfo, Text: "copied " + string(id)}
}

// loadCommits fetches metadata for commits of the current view not seen yet.
// Failures only cost the summary column, so they are reported and ignored.
func (m *Model) loadCommits() {
	if m.commits == nil {
		return
	}
	var missing []blame.CommitID
	for _, id := range m.nav.Current().Commits() {
		if _, ok := m.meta[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return
	}

	fetched, err := m.commits.Commits(missing...)
	if err != nil {
		m.log.Warn("commit metadata", zap.Error(err))
		m.notice = &history.Notice{Level: history.LevelError, Text: "commit details unavailable: " + err.Error()}
		return
	}
	for id, c := range fetched {
		m.meta[id] = c
	}
}

// View renders the UI
func (m Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderRows())

	if m.showHelp {
		sections = append(sections, m.renderHelpPanel())
	}

	sections = append(sections, m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTitle renders the title bar
func (m Model) renderTitle() string {
	title := fmt.Sprintf("gblame: %s at %s", m.nav.Path(), m.nav.Anchor().Short())
	if depth := m.nav.Depth(); depth == 0 {
		title += fmt.Sprintf(" (%s)", m.nav.Ref())
	} else {
		title += fmt.Sprintf(" (%d back from %s)", depth, m.nav.Ref())
	}
	return m.styles.title.Render(truncate(title, max(m.width-2, 20)))
}

// column is one fixed-width cell of a row.
type column struct {
	name  string
	width int
	style lipgloss.Style
}

func (m Model) columns() []column {
	w := m.config.Columns
	cols := []column{
		{"TIME", w.Time, m.styles.time},
		{"AUTHOR", w.Author, m.styles.author},
		{"COMMIT", w.Commit, m.styles.commit},
		{"MESSAGE", w.Message, m.styles.message},
	}
	if m.showLineNo {
		cols = append(cols, column{"LINE", w.LineNo, m.styles.lineNumber})
	}
	return cols
}

// contentWidth is what remains for file content after the fixed columns
// and their dividers.
func (m Model) contentWidth() int {
	used := 0
	for _, c := range m.columns() {
		used += c.width + 3
	}
	return max(m.width-used, 10)
}

func (m Model) divider() string {
	return m.styles.divider.Render(" │ ")
}

func (m Model) renderHeader() string {
	var cells []string
	for _, c := range m.columns() {
		cells = append(cells, m.styles.header.Width(c.width).Render(c.name))
	}
	cells = append(cells, m.styles.header.Render("CONTENTS"))
	return strings.Join(cells, m.divider())
}

// renderRows renders the visible blame lines
func (m Model) renderRows() string {
	lines := m.nav.Lines()
	start := m.viewport.offset
	end := min(start+m.viewport.height, len(lines))

	contents := m.displayContents()
	starts := make(map[int]bool, len(m.nav.Blocks()))
	for _, b := range m.nav.Blocks() {
		starts[b.Start] = true
	}

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		rec := lines[i]
		rows = append(rows, m.renderRow(rec, starts[rec.Number], rec.Number == m.nav.Selected(), contents[i]))
	}
	return strings.Join(rows, "\n")
}

// renderRow renders one line. Only the first line of a block carries the
// commit details, so blocks read as one unit.
func (m Model) renderRow(rec blame.LineRecord, first, selected bool, content string) string {
	cols := m.columns()
	values := make([]string, len(cols))
	if first {
		values[0] = rec.Time.Format(m.config.DateFormat)
		values[1] = rec.Author
		values[2] = rec.Commit.Short()
		values[3] = m.meta[rec.Commit].Summary
	}
	if m.showLineNo {
		values[4] = fmt.Sprintf("%d", rec.Number)
	}

	cells := make([]string, 0, len(cols)+1)
	for i, c := range cols {
		style := c.style.Width(c.width)
		if selected {
			style = style.Background(m.config.Theme.SelectedBg)
		}
		cells = append(cells, style.Render(ansi.Truncate(values[i], c.width, "…")))
	}

	width := m.contentWidth()
	if selected {
		cells = append(cells, m.renderSelectedContent(rec, content, width))
	} else {
		content = ansi.Truncate(content, width, "…")
		if m.syntaxHighlight {
			// Truncation can cut a colour span before its reset.
			content += "\x1b[0m"
		}
		cells = append(cells, content)
	}
	return strings.Join(cells, m.divider())
}

// renderSelectedContent draws the content cell of the cursor row. Highlighted
// text keeps its colours: the selection background is laid under it and
// restored after every reset the highlighter emits.
func (m Model) renderSelectedContent(rec blame.LineRecord, content string, width int) string {
	bg := backgroundSeq(m.config.Theme.SelectedBg)
	if !m.syntaxHighlight || bg == "" {
		plain := ansi.Truncate(displayText(rec.Content, m.config.TabSize), width, "…")
		return m.styles.selected.Foreground(m.config.Theme.ContentFg).Width(width).Render(plain)
	}

	content = ansi.Truncate(content, width, "…")
	pad := strings.Repeat(" ", max(width-ansi.StringWidth(content), 0))
	content = strings.ReplaceAll(content, "\x1b[0m", "\x1b[0m"+bg)
	content = strings.ReplaceAll(content, "\x1b[m", "\x1b[m"+bg)
	return bg + content + pad + "\x1b[0m"
}

// backgroundSeq returns the true-colour SGR sequence setting c as the
// background, or "" when c is not a hex colour.
func backgroundSeq(c lipgloss.Color) string {
	col, err := colorful.Hex(string(c))
	if err != nil {
		return ""
	}
	r, g, b := col.RGB255()
	return fmt.Sprintf("\x1b[48;2;%d;%d;%dm", r, g, b)
}

// displayContents returns the content column for every line of the current
// view, highlighted when enabled. Highlighting is cached per anchor.
func (m Model) displayContents() []string {
	view := m.nav.Current()
	if m.syntaxHighlight {
		hl, ok := m.highlighted[view.Anchor]
		if !ok {
			hl = m.highlighter.Lines(view.Path, view.Contents())
			m.highlighted[view.Anchor] = hl
		}
		out := make([]string, len(hl))
		for i, l := range hl {
			out[i] = displayText(l, m.config.TabSize)
		}
		return out
	}

	out := make([]string, view.Len())
	for i, rec := range view.Lines {
		out[i] = m.styles.content.Render(displayText(rec.Content, m.config.TabSize))
	}
	return out
}

// displayText expands tabs and drops carriage returns. Escape sequences
// contain neither, so it is safe on highlighted text.
func displayText(s string, tabSize int) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", max(tabSize, 1)))
}

// renderStatusBar renders the status bar
func (m Model) renderStatusBar() string {
	if m.notice != nil {
		style := m.styles.info
		if m.notice.Level == history.LevelError {
			style = m.styles.error
		}
		return style.Width(m.width).Render(m.notice.Text)
	}

	rec := m.nav.Current().SelectedRecord()
	blocks := m.nav.Blocks()
	when := rec.Time
	author := rec.Author
	if c, ok := m.meta[rec.Commit]; ok && !c.Time.IsZero() {
		when = c.Time
	}

	status := fmt.Sprintf(
		"Line %d/%d | Block %d/%d | %s %s, %s | Depth %d | %s",
		m.nav.Selected(), len(m.nav.Lines()),
		blocks.IndexOf(m.nav.Selected())+1, len(blocks),
		rec.Commit.Short(), author, humanize.RelTime(when, m.now(), "ago", "from now"),
		m.nav.Depth(),
		m.help.ShortHelpView(m.keys.ShortHelp()),
	)

	return m.styles.statusBar.Width(m.width).Render(truncate(status, max(m.width-2, 20)))
}

// renderHelpPanel renders the help panel below the main view
func (m Model) renderHelpPanel() string {
	return m.styles.help.Width(max(m.width-2, 20)).Render(m.help.View(m.keys))
}

func (m Model) halfPage() int {
	return max(m.viewport.height/2, 1)
}

// ensureVisible scrolls so the selected line is on screen.
func (m *Model) ensureVisible() {
	sel := m.nav.Selected() - 1
	if sel < m.viewport.offset {
		m.viewport.offset = sel
	}
	if sel >= m.viewport.offset+m.viewport.height {
		m.viewport.offset = sel - m.viewport.height + 1
	}
	maxOffset := max(0, len(m.nav.Lines())-m.viewport.height)
	if m.viewport.offset > maxOffset {
		m.viewport.offset = maxOffset
	}
	if m.viewport.offset < 0 {
		m.viewport.offset = 0
	}
}

// updateViewportHeight calculates and sets the viewport height based on screen size and active panels
func (m *Model) updateViewportHeight() {
	// Base height: total - title bar - header row - status bar
	baseHeight := m.height - 3

	if m.showHelp {
		baseHeight -= lipgloss.Height(m.renderHelpPanel())
	}

	// Ensure minimum height
	if baseHeight < 5 {
		baseHeight = 5
	}

	m.viewport.height = baseHeight
}

func truncate(s string, maxLen int) string {
	return ansi.Truncate(s, maxLen, "...")
}
