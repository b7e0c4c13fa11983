// Package history moves a blame view through a file's history.
package history

import (
	"errors"
	"fmt"

	"github.com/cj3636/gblame/internal/blame"
	"github.com/cj3636/gblame/internal/git"
)

// Source answers the version-control queries the navigator needs.
// *git.Repo and *git.CachedRepo implement it.
type Source interface {
	ResolveRef(ref string) (blame.CommitID, error)
	Blame(path string, commit blame.CommitID) (string, error)
	Parent(commit blame.CommitID) (blame.CommitID, bool, error)
	FileExists(path string, commit blame.CommitID) (bool, error)
}

// NoParentError is returned when travelling back from a root commit.
type NoParentError struct {
	Commit blame.CommitID
}

func (e *NoParentError) Error() string {
	return fmt.Sprintf("commit %s has no parent: cannot travel further back", e.Commit.Short())
}

// FileAbsentError is returned when the file did not exist at the parent of
// the commit that introduced the selected line.
type FileAbsentError struct {
	Path   string
	Commit blame.CommitID
}

func (e *FileAbsentError) Error() string {
	return fmt.Sprintf("%s does not exist at %s: cannot travel further back", e.Path, e.Commit.Short())
}

// Level is the severity of a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notice is an operation outcome worded for the status bar.
type Notice struct {
	Level Level
	Text  string
}

// Explain turns an error returned by the navigator into a Notice. Hitting
// the start of history is informational; everything else is an error.
func Explain(err error) Notice {
	var (
		noParent *NoParentError
		absent   *FileAbsentError
		parseErr *blame.ParseError
		queryErr *git.QueryError
	)
	switch {
	case errors.As(err, &noParent), errors.As(err, &absent):
		return Notice{Level: LevelInfo, Text: err.Error()}
	case errors.As(err, &parseErr):
		return Notice{Level: LevelError, Text: "unreadable blame output: " + parseErr.Error()}
	case errors.As(err, &queryErr):
		return Notice{Level: LevelError, Text: queryErr.Error()}
	case errors.Is(err, blame.ErrEmptyFile):
		return Notice{Level: LevelInfo, Text: err.Error()}
	default:
		return Notice{Level: LevelError, Text: err.Error()}
	}
}
