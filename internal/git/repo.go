// Package git runs the version-control queries behind a blame view.
package git

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cj3636/gblame/internal/blame"
	"go.uber.org/zap"
)

// QueryError reports a git command that failed or could not be started.
type QueryError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *QueryError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), msg)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Repo shells out to the git executable for one repository.
type Repo struct {
	root             string
	ignoreWhitespace bool
	log              *zap.Logger
}

// Option configures a Repo.
type Option func(*Repo)

// WithLogger logs every git invocation at debug level.
func WithLogger(log *zap.Logger) Option {
	return func(r *Repo) {
		r.log = log
	}
}

// WithIgnoreWhitespace makes blame ignore whitespace-only changes.
func WithIgnoreWhitespace(ignore bool) Option {
	return func(r *Repo) {
		r.ignoreWhitespace = ignore
	}
}

// Open finds the repository containing path.
func Open(path string, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	dir := abs
	if !isDir(abs) {
		dir = filepath.Dir(abs)
	}

	r := &Repo{log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}

	out, err := r.exec(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("git repository not detected: %w", err)
	}
	r.root = strings.TrimSpace(string(out))
	return r, nil
}

// Root returns the top-level directory of the repository.
func (r *Repo) Root() string {
	return r.root
}

// RelPath returns path relative to the repository root, with forward
// slashes as git expects.
func (r *Repo) RelPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	root := r.root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside repository %s", path, r.root)
	}
	return filepath.ToSlash(rel), nil
}

// ResolveRef turns a branch, tag or abbreviated hash into a full commit id.
func (r *Repo) ResolveRef(ref string) (blame.CommitID, error) {
	out, err := r.run("rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		return "", err
	}
	return blame.CommitID(strings.TrimSpace(string(out))), nil
}

// Blame returns raw blame output for path at commit, in the format
// blame.Parse expects.
func (r *Repo) Blame(path string, commit blame.CommitID) (string, error) {
	args := append([]string{}, blame.BlameArgs...)
	if r.ignoreWhitespace {
		args = append(args, "-w")
	}
	args = append(args, string(commit), "--", path)

	out, err := r.run(args...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Parent returns the first parent of commit; ok is false for a root commit.
func (r *Repo) Parent(commit blame.CommitID) (blame.CommitID, bool, error) {
	commits, err := r.Commits(commit)
	if err != nil {
		return "", false, err
	}
	c, found := commits[commit]
	if !found {
		return "", false, &QueryError{Args: []string{"show", string(commit)}, Stderr: "commit not found"}
	}
	parent, ok := c.FirstParent()
	return parent, ok, nil
}

// FileExists reports whether path exists in the tree of commit.
func (r *Repo) FileExists(path string, commit blame.CommitID) (bool, error) {
	_, err := r.run("cat-file", "-e", fmt.Sprintf("%s:%s", commit, path))
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// Commits fetches metadata for all ids with a single git invocation.
func (r *Repo) Commits(ids ...blame.CommitID) (map[blame.CommitID]blame.Commit, error) {
	result := make(map[blame.CommitID]blame.Commit, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	args := []string{"show", "-s", "--format=%H%x1f%P%x1f%an%x1f%at%x1f%s%x1e"}
	for _, id := range ids {
		args = append(args, string(id))
	}
	args = append(args, "--")

	out, err := r.run(args...)
	if err != nil {
		return nil, err
	}

	commits, err := parseCommits(string(out))
	if err != nil {
		return nil, err
	}
	for _, c := range commits {
		result[c.ID] = c
	}
	// Abbreviated ids resolve to the full hash git prints; index those too.
	for _, id := range ids {
		if _, ok := result[id]; ok {
			continue
		}
		for _, c := range commits {
			if strings.HasPrefix(string(c.ID), string(id)) {
				result[id] = c
				break
			}
		}
	}
	return result, nil
}

func parseCommits(out string) ([]blame.Commit, error) {
	var commits []blame.Commit
	for _, rec := range strings.Split(out, recordSep) {
		rec = strings.Trim(rec, "\n")
		if rec == "" {
			continue
		}
		fields := strings.Split(rec, fieldSep)
		if len(fields) != 5 {
			return nil, fmt.Errorf("unexpected commit record %q", rec)
		}
		secs, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unexpected commit time %q: %w", fields[3], err)
		}
		c := blame.Commit{
			ID:      blame.CommitID(fields[0]),
			Author:  fields[2],
			Time:    time.Unix(secs, 0),
			Summary: fields[4],
		}
		for _, p := range strings.Fields(fields[1]) {
			c.Parents = append(c.Parents, blame.CommitID(p))
		}
		commits = append(commits, c)
	}
	return commits, nil
}

func (r *Repo) run(args ...string) ([]byte, error) {
	return r.exec(r.root, args...)
}

func (r *Repo) exec(dir string, args ...string) ([]byte, error) {
	start := time.Now()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.Output()
	r.log.Debug("git",
		zap.Strings("args", args),
		zap.Duration("took", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		qerr := &QueryError{Args: args, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			qerr.Stderr = string(exitErr.Stderr)
		}
		return nil, qerr
	}
	return out, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
