package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cj3636/gblame/internal/blame"
	"github.com/cj3636/gblame/internal/config"
	"github.com/cj3636/gblame/internal/highlight"
	"github.com/cj3636/gblame/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	commitOld blame.CommitID = "aaaa0000aaaa0000"
	commitNew blame.CommitID = "bbbb0000bbbb0000"
	commitMid blame.CommitID = "cccc0000cccc0000" // parent of commitNew
)

type row struct {
	commit  blame.CommitID
	content string
}

type stubSource struct {
	versions map[blame.CommitID][]row
	parents  map[blame.CommitID]blame.CommitID
}

func (s *stubSource) ResolveRef(ref string) (blame.CommitID, error) {
	if ref != "HEAD" {
		return "", errors.New("unknown revision")
	}
	return commitNew, nil
}

func (s *stubSource) Blame(path string, commit blame.CommitID) (string, error) {
	var b strings.Builder
	for i, r := range s.versions[commit] {
		// 2024-03-01 10:00:00 UTC
		fmt.Fprintf(&b, "%s %d %d\nauthor Ada Lovelace\nauthor-time 1709287200\nauthor-tz +0000\nfilename %s\n\t%s\n",
			r.commit, i+1, i+1, path, r.content)
	}
	return b.String(), nil
}

func (s *stubSource) Parent(commit blame.CommitID) (blame.CommitID, bool, error) {
	p, ok := s.parents[commit]
	return p, ok, nil
}

func (s *stubSource) FileExists(path string, commit blame.CommitID) (bool, error) {
	_, ok := s.versions[commit]
	return ok, nil
}

type stubCommits struct {
	calls int
	err   error
}

func (s *stubCommits) Commits(ids ...blame.CommitID) (map[blame.CommitID]blame.Commit, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[blame.CommitID]blame.Commit, len(ids))
	for _, id := range ids {
		out[id] = blame.Commit{ID: id, Author: "Ada Lovelace", Summary: "summary of " + id.Short()}
	}
	return out, nil
}

func newTestModel(t *testing.T) (Model, *stubCommits) {
	t.Helper()
	src := &stubSource{
		versions: map[blame.CommitID][]row{
			commitNew: {{commitOld, "package main"}, {commitOld, ""}, {commitNew, "func main() {}"}},
			commitMid: {{commitOld, "package main"}, {commitOld, ""}, {commitOld, "func main() {"}, {commitOld, "}"}},
		},
		parents: map[blame.CommitID]blame.CommitID{commitNew: commitMid},
	}
	nav, err := history.New(src, "main.go", "HEAD")
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.SyntaxHighlight = false
	commits := &stubCommits{}
	m := NewModel(nav, cfg, commits, nil)
	m.now = func() time.Time { return time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC) }
	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 30})
	return next.(Model), commits
}

func press(t *testing.T, m Model, msgs ...tea.KeyMsg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLineAndBlockMovement(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, runes("j"))
	assert.Equal(t, 2, m.nav.Selected())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.nav.Selected())

	m = press(t, m, runes("}"))
	assert.Equal(t, 3, m.nav.Selected())

	m = press(t, m, runes("{"))
	assert.Equal(t, 1, m.nav.Selected())

	m = press(t, m, runes("G"))
	assert.Equal(t, 3, m.nav.Selected())

	m = press(t, m, runes("g"))
	assert.Equal(t, 1, m.nav.Selected())
}

func TestTravelBackAndForward(t *testing.T) {
	m, commits := newTestModel(t)
	assert.Equal(t, 1, commits.calls)

	m = press(t, m, runes("G"), tea.KeyMsg{Type: tea.KeyLeft})
	require.NotNil(t, m.notice)
	assert.Equal(t, history.LevelInfo, m.notice.Level)
	assert.Equal(t, commitMid, m.nav.Anchor())
	assert.Equal(t, 1, m.nav.Depth())
	assert.Equal(t, 3, m.nav.Selected())
	assert.Contains(t, m.View(), "1 back from HEAD")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, commitNew, m.nav.Anchor())
	assert.Equal(t, 3, m.nav.Selected())
	assert.Equal(t, 0, m.nav.Depth())

	m = press(t, m, runes("l"))
	require.NotNil(t, m.notice)
	assert.Contains(t, m.notice.Text, "no newer view")
}

func TestTravelBackAtRootShowsNotice(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, runes("h"))
	require.NotNil(t, m.notice)
	assert.Equal(t, history.LevelInfo, m.notice.Level)
	assert.Contains(t, m.notice.Text, "no parent")
	assert.Equal(t, commitNew, m.nav.Anchor())

	// Any key clears the notice.
	m = press(t, m, runes("j"))
	assert.Nil(t, m.notice)
}

func TestCopyCommit(t *testing.T) {
	m, _ := newTestModel(t)
	var copied string
	m = m.WithClipboard(func(s string) error {
		copied = s
		return nil
	})

	m = press(t, m, runes("G"), runes("y"))
	assert.Equal(t, string(commitNew), copied)
	require.NotNil(t, m.notice)
	assert.Equal(t, history.LevelInfo, m.notice.Level)

	m = m.WithClipboard(func(string) error { return errors.New("no clipboard") })
	m = press(t, m, runes("y"))
	require.NotNil(t, m.notice)
	assert.Equal(t, history.LevelError, m.notice.Level)
}

func TestMissingCommitDetailsAreReported(t *testing.T) {
	src := &stubSource{versions: map[blame.CommitID][]row{commitNew: {{commitNew, "x"}}}}
	nav, err := history.New(src, "x.txt", "HEAD")
	require.NoError(t, err)

	m := NewModel(nav, config.DefaultConfig(), &stubCommits{err: errors.New("boom")}, nil)
	require.NotNil(t, m.notice)
	assert.Equal(t, history.LevelError, m.notice.Level)
	assert.Contains(t, m.View(), "commit details unavailable: boom")
}

func TestToggles(t *testing.T) {
	m, _ := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)

	assert.False(t, m.showHelp)
	m = press(t, m, runes("?"))
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "blame parent commit")

	assert.True(t, m.showLineNo)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.False(t, m.showLineNo)
	assert.NotContains(t, m.renderHeader(), "LINE")

	// Syntax highlighting stays off without a highlighter.
	m = press(t, m, runes("c"))
	assert.False(t, m.syntaxHighlight)
}

func TestViewShowsBlockDetailsOnce(t *testing.T) {
	m, _ := newTestModel(t)

	out := m.View()
	assert.Contains(t, out, "main.go")
	assert.Contains(t, out, "func main() {}")
	assert.Equal(t, 1, strings.Count(out, "summary of "+commitOld.Short()))
	assert.Equal(t, 1, strings.Count(out, "summary of "+commitNew.Short()))
	assert.Contains(t, out, "Line 1/3")
	assert.Contains(t, out, "1 week ago")
}

func TestViewportFollowsSelection(t *testing.T) {
	lines := make([]row, 50)
	for i := range lines {
		lines[i] = row{commitNew, fmt.Sprintf("line %d", i+1)}
	}
	src := &stubSource{versions: map[blame.CommitID][]row{commitNew: lines}}
	nav, err := history.New(src, "long.txt", "HEAD")
	require.NoError(t, err)

	m := NewModel(nav, config.DefaultConfig(), nil, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 13})
	m = next.(Model)
	require.Equal(t, 10, m.viewport.height)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 6, m.nav.Selected())
	assert.Equal(t, 0, m.viewport.offset)

	m = press(t, m, runes("G"))
	assert.Equal(t, 50, m.nav.Selected())
	assert.Equal(t, 40, m.viewport.offset)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 45, m.nav.Selected())
	assert.Equal(t, 40, m.viewport.offset)
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestDisplayText(t *testing.T) {
	assert.Equal(t, "  x", displayText("\tx\r", 2))
	assert.Equal(t, " x", displayText("\tx", 0))
}

func newHighlightedModel(t *testing.T, syntaxOn bool) Model {
	t.Helper()
	src := &stubSource{versions: map[blame.CommitID][]row{
		commitNew: {{commitNew, "package main"}, {commitNew, "func main() {}"}},
	}}
	nav, err := history.New(src, "main.go", "HEAD")
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.SyntaxHighlight = syntaxOn
	m := NewModel(nav, cfg, nil, highlight.New("monokai"))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 30})
	return next.(Model)
}

func TestSyntaxToggleWorksWhenStartedOff(t *testing.T) {
	m := newHighlightedModel(t, false)
	assert.False(t, m.syntaxHighlight)

	m = press(t, m, runes("c"))
	assert.True(t, m.syntaxHighlight)

	m = press(t, m, runes("c"))
	assert.False(t, m.syntaxHighlight)
}

func TestSelectedRowKeepsHighlighting(t *testing.T) {
	m := newHighlightedModel(t, true)
	bg := backgroundSeq(m.config.Theme.SelectedBg)
	require.Equal(t, "\x1b[48;2;63;63;63m", bg)

	rows := strings.Split(m.renderRows(), "\n")
	require.Len(t, rows, 2)
	assert.Contains(t, rows[0], bg)
	assert.Contains(t, rows[0], "\x1b[38;2;", "cursor row keeps syntax colours")
	assert.Contains(t, rows[0], "package")
	assert.NotContains(t, rows[1], bg)
}

func TestBackgroundSeqNeedsHexColour(t *testing.T) {
	assert.Equal(t, "", backgroundSeq("236"))
	assert.Equal(t, "\x1b[48;2;255;0;16m", backgroundSeq("#FF0010"))
}
