package history

import (
	"fmt"

	"github.com/cj3636/gblame/internal/blame"
	"github.com/cj3636/gblame/internal/diff"
	"go.uber.org/zap"
)

// Strategy records how a line was located in an ancestor.
type Strategy int

const (
	// MatchContent: exactly one ancestor line has the same content.
	MatchContent Strategy = iota
	// MatchNearest: several ancestor lines have the same content; the one
	// closest to the aligned position was chosen.
	MatchNearest
	// MatchPosition: no ancestor line has the same content; the same line
	// number was used, clamped to the ancestor's length.
	MatchPosition
)

func (s Strategy) String() string {
	switch s {
	case MatchContent:
		return "content"
	case MatchNearest:
		return "nearest"
	default:
		return "position"
	}
}

// Locator is the resolved cursor position in an ancestor view.
type Locator struct {
	Line       int
	Strategy   Strategy
	Candidates int
}

// Resolver walks first-parent history on demand and maps lines between
// versions of a file.
type Resolver struct {
	src    Source
	engine *diff.Engine
	log    *zap.Logger
}

// NewResolver creates a resolver backed by src.
func NewResolver(src Source, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{src: src, engine: diff.NewEngine(), log: log}
}

// ParentOf returns the first parent of commit, or a *NoParentError.
func (r *Resolver) ParentOf(commit blame.CommitID) (blame.CommitID, error) {
	parent, ok, err := r.src.Parent(commit)
	if err != nil {
		return "", fmt.Errorf("look up parent of %s: %w", commit.Short(), err)
	}
	if !ok {
		return "", &NoParentError{Commit: commit}
	}
	return parent, nil
}

// Load builds the view of path anchored at commit.
func (r *Resolver) Load(path string, commit blame.CommitID) (*blame.View, error) {
	raw, err := r.src.Blame(path, commit)
	if err != nil {
		return nil, err
	}
	lines, err := blame.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("blame %s at %s: %w", path, commit.Short(), err)
	}
	return blame.NewView(path, commit, lines)
}

// Ancestor loads the view of the current file at parent and places its
// cursor on the line corresponding to line in current.
func (r *Resolver) Ancestor(current *blame.View, line int, parent blame.CommitID) (*blame.View, Locator, error) {
	next, err := r.Load(current.Path, parent)
	if err != nil {
		return nil, Locator{}, err
	}
	loc := r.Locate(current.Lines, line, next.Lines)
	next.Selected = loc.Line
	return next, loc, nil
}

// Locate finds the line of ancestor that corresponds to line of current.
// A line with identical content is preferred. When several lines match,
// the one nearest to where the diff alignment puts line wins. When none
// match, the same line number is used, clamped to the ancestor's length.
// It never fails: the positional fallback is always available.
func (r *Resolver) Locate(current []blame.LineRecord, line int, ancestor []blame.LineRecord) Locator {
	if len(ancestor) == 0 {
		return Locator{Line: 0, Strategy: MatchPosition}
	}
	fallback := Locator{Line: clamp(line, 1, len(ancestor)), Strategy: MatchPosition}
	if line < 1 || line > len(current) {
		return fallback
	}

	want := current[line-1].Content
	var candidates []int
	for _, rec := range ancestor {
		if rec.Content == want {
			candidates = append(candidates, rec.Number)
		}
	}

	switch len(candidates) {
	case 0:
		return fallback
	case 1:
		return Locator{Line: candidates[0], Strategy: MatchContent, Candidates: 1}
	}

	aligned := r.engine.MapLine(contents(current), contents(ancestor), line)
	best := candidates[0]
	for _, c := range candidates[1:] {
		if abs(c-aligned) < abs(best-aligned) {
			best = c
		}
	}
	r.log.Debug("ambiguous line match",
		zap.Int("line", line),
		zap.Int("candidates", len(candidates)),
		zap.Int("aligned", aligned),
		zap.Int("chosen", best),
	)
	return Locator{Line: best, Strategy: MatchNearest, Candidates: len(candidates)}
}

func contents(lines []blame.LineRecord) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Content
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
