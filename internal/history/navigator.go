package history

import (
	"fmt"

	"github.com/cj3636/gblame/internal/blame"
	"go.uber.org/zap"
)

// Direction selects the block to move to.
type Direction int

const (
	Up Direction = iota
	Down
)

// Navigator owns the current view and the views left behind when
// travelling back in time. An operation either installs a complete new
// state or returns an error and leaves the state as it was.
type Navigator struct {
	src      Source
	resolver *Resolver
	log      *zap.Logger
	ref      string

	current *blame.View
	back    []*blame.View
}

// NavOption configures a Navigator.
type NavOption func(*Navigator)

// WithLogger sets the logger used for time-travel events.
func WithLogger(log *zap.Logger) NavOption {
	return func(n *Navigator) {
		n.log = log
	}
}

// New resolves ref and builds the initial view of path with the first line
// selected.
func New(src Source, path, ref string, opts ...NavOption) (*Navigator, error) {
	n := &Navigator{src: src, ref: ref, log: zap.NewNop()}
	for _, opt := range opts {
		opt(n)
	}
	n.resolver = NewResolver(src, n.log)

	anchor, err := src.ResolveRef(ref)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}
	view, err := n.resolver.Load(path, anchor)
	if err != nil {
		return nil, err
	}
	n.current = view
	n.log.Info("opened", zap.String("path", path), zap.String("ref", ref), zap.String("anchor", string(anchor)))
	return n, nil
}

// Path returns the file being explored.
func (n *Navigator) Path() string { return n.current.Path }

// Ref returns the ref the session was started at.
func (n *Navigator) Ref() string { return n.ref }

// Anchor returns the commit the current view is anchored at.
func (n *Navigator) Anchor() blame.CommitID { return n.current.Anchor }

// Lines returns the line records of the current view.
func (n *Navigator) Lines() []blame.LineRecord { return n.current.Lines }

// Blocks returns the blocks of the current view.
func (n *Navigator) Blocks() blame.Blocks { return n.current.Blocks }

// Selected returns the 1-based selected line.
func (n *Navigator) Selected() int { return n.current.Selected }

// Current returns the current view. Callers must not modify it.
func (n *Navigator) Current() *blame.View { return n.current }

// Depth returns how many views can be restored with TravelForward.
func (n *Navigator) Depth() int { return len(n.back) }

// MoveLine moves the cursor by delta lines, clamped to the file. It
// reports whether the cursor moved.
func (n *Navigator) MoveLine(delta int) bool {
	target := clamp(n.current.Selected+delta, 1, n.current.Len())
	if target == n.current.Selected {
		return false
	}
	n.current.Selected = target
	return true
}

// MoveBlock moves the cursor to the start of the adjacent block. It does
// nothing from the first block going up or the last block going down.
func (n *Navigator) MoveBlock(dir Direction) bool {
	blocks := n.current.Blocks
	sel := n.current.Selected
	i := blocks.IndexOf(sel)
	if i < 0 {
		return false
	}
	if (dir == Up && i == 0) || (dir == Down && i == len(blocks)-1) {
		return false
	}

	target := blocks.Next(sel)
	if dir == Up {
		target = blocks.Previous(sel)
	}
	n.current.Selected = target
	return true
}

// TravelBackward shows the file as it was before the commit that last
// changed the selected line, keeping the current view for TravelForward.
func (n *Navigator) TravelBackward() (Locator, error) {
	rec := n.current.SelectedRecord()
	log := n.log.With(
		zap.String("path", n.current.Path),
		zap.String("anchor", string(n.current.Anchor)),
		zap.String("commit", string(rec.Commit)),
		zap.Int("line", rec.Number),
	)

	parent, err := n.resolver.ParentOf(rec.Commit)
	if err != nil {
		log.Warn("travel backward", zap.Error(err))
		return Locator{}, err
	}

	exists, err := n.src.FileExists(n.current.Path, parent)
	if err != nil {
		log.Warn("travel backward", zap.Error(err))
		return Locator{}, err
	}
	if !exists {
		err := &FileAbsentError{Path: n.current.Path, Commit: parent}
		log.Warn("travel backward", zap.Error(err))
		return Locator{}, err
	}

	next, loc, err := n.resolver.Ancestor(n.current, n.current.Selected, parent)
	if err != nil {
		log.Warn("travel backward", zap.Error(err))
		return Locator{}, err
	}

	n.back = append(n.back, n.current)
	n.current = next
	log.Debug("travelled backward",
		zap.String("parent", string(parent)),
		zap.Int("resolved", loc.Line),
		zap.Stringer("strategy", loc.Strategy),
	)
	return loc, nil
}

// TravelForward restores the view left by the most recent TravelBackward.
// It reports false when there is nothing to restore.
func (n *Navigator) TravelForward() bool {
	if len(n.back) == 0 {
		return false
	}
	last := len(n.back) - 1
	n.current = n.back[last]
	n.back[last] = nil
	n.back = n.back[:last]
	n.log.Debug("travelled forward", zap.String("anchor", string(n.current.Anchor)))
	return true
}
