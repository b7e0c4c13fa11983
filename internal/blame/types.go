package blame

import (
	"errors"
	"time"
)

// CommitID is an opaque commit hash as printed by git.
type CommitID string

// Short returns the abbreviated form shown in the UI.
func (c CommitID) Short() string {
	if len(c) > 8 {
		return string(c[:8])
	}
	return string(c)
}

func (c CommitID) String() string {
	return string(c)
}

// LineRecord is a single line of blame output.
type LineRecord struct {
	Number     int // 1-based position in the file at the view's anchor
	OrigNumber int // line number in the commit that last touched the line
	Commit     CommitID
	Author     string
	Time       time.Time
	Boundary   bool
	Content    string
}

// Commit carries the metadata shown next to the first line of a block.
type Commit struct {
	ID      CommitID
	Parents []CommitID
	Author  string
	Time    time.Time
	Summary string
}

// FirstParent returns the parent followed when travelling back in time.
func (c Commit) FirstParent() (CommitID, bool) {
	if len(c.Parents) == 0 {
		return "", false
	}
	return c.Parents[0], true
}

// ErrEmptyFile is returned when a file has no lines at the requested ref.
var ErrEmptyFile = errors.New("file is empty at this ref")

// View is the blame of one file anchored at one commit. Everything except
// Selected is fixed once the view is built.
type View struct {
	Path     string
	Anchor   CommitID
	Lines    []LineRecord
	Blocks   Blocks
	Selected int
}

// NewView indexes lines into blocks and selects the first line.
func NewView(path string, anchor CommitID, lines []LineRecord) (*View, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}
	return &View{
		Path:     path,
		Anchor:   anchor,
		Lines:    lines,
		Blocks:   IndexBlocks(lines),
		Selected: 1,
	}, nil
}

// Len returns the number of lines in the view.
func (v *View) Len() int {
	return len(v.Lines)
}

// Record returns the record for a 1-based line number.
func (v *View) Record(line int) LineRecord {
	return v.Lines[line-1]
}

// SelectedRecord returns the record under the cursor.
func (v *View) SelectedRecord() LineRecord {
	return v.Record(v.Selected)
}

// Contents returns the content of every line, in order.
func (v *View) Contents() []string {
	out := make([]string, len(v.Lines))
	for i, l := range v.Lines {
		out[i] = l.Content
	}
	return out
}

// Commits returns the distinct commits of the view in order of first
// appearance.
func (v *View) Commits() []CommitID {
	seen := make(map[CommitID]bool, len(v.Blocks))
	var ids []CommitID
	for _, b := range v.Blocks {
		if !seen[b.Commit] {
			seen[b.Commit] = true
			ids = append(ids, b.Commit)
		}
	}
	return ids
}
