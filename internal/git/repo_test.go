package git

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cj3636/gblame/internal/blame"
	"github.com/stretchr/testify/require"
)

// testRepo is a throwaway repository with two commits touching a.txt:
//
//	first:  one, two, three
//	second: one, TWO, three
type testRepo struct {
	dir    string
	first  blame.CommitID
	second blame.CommitID
}

func newTestRepo(t *testing.T) testRepo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	git := func(args ...string) string {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Jane Doe", "GIT_AUTHOR_EMAIL=jane@example.com",
			"GIT_COMMITTER_NAME=Jane Doe", "GIT_COMMITTER_EMAIL=jane@example.com",
			"GIT_CONFIG_NOSYSTEM=1", "HOME="+dir,
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
		return strings.TrimSpace(string(out))
	}
	write := func(content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(content), 0o644))
	}

	git("init", "-q")
	write("one\ntwo\nthree\n")
	git("add", "a.txt")
	git("commit", "-q", "-m", "first")
	first := git("rev-parse", "HEAD")

	write("one\nTWO\nthree\n")
	git("commit", "-q", "-am", "second")
	second := git("rev-parse", "HEAD")

	return testRepo{dir: dir, first: blame.CommitID(first), second: blame.CommitID(second)}
}

func TestRepoBlame(t *testing.T) {
	tr := newTestRepo(t)

	repo, err := Open(filepath.Join(tr.dir, "a.txt"))
	require.NoError(t, err)

	rel, err := repo.RelPath(filepath.Join(tr.dir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "a.txt", rel)

	head, err := repo.ResolveRef("HEAD")
	require.NoError(t, err)
	require.Equal(t, tr.second, head)

	raw, err := repo.Blame(rel, head)
	require.NoError(t, err)

	lines, err := blame.Parse(raw)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	require.Equal(t, tr.first, lines[0].Commit)
	require.Equal(t, tr.second, lines[1].Commit)
	require.Equal(t, "TWO", lines[1].Content)
	require.Equal(t, "Jane Doe", lines[1].Author)
	require.False(t, lines[0].Boundary, "root commits are not boundaries")
}

func TestRepoBlameAwkwardPathAndAuthor(t *testing.T) {
	tr := newTestRepo(t)
	name := "my fïle 2 (x).txt"
	require.NoError(t, os.WriteFile(filepath.Join(tr.dir, name), []byte("first\nsecond\n"), 0o644))

	for _, args := range [][]string{{"add", name}, {"commit", "-q", "-m", "awkward"}} {
		cmd := exec.Command("git", args...)
		cmd.Dir = tr.dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Zoë (bot)", "GIT_AUTHOR_EMAIL=bot@example.com",
			"GIT_COMMITTER_NAME=Zoë (bot)", "GIT_COMMITTER_EMAIL=bot@example.com",
			"GIT_CONFIG_NOSYSTEM=1", "HOME="+tr.dir,
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	repo, err := Open(filepath.Join(tr.dir, name))
	require.NoError(t, err)
	rel, err := repo.RelPath(filepath.Join(tr.dir, name))
	require.NoError(t, err)
	head, err := repo.ResolveRef("HEAD")
	require.NoError(t, err)

	raw, err := repo.Blame(rel, head)
	require.NoError(t, err)
	lines, err := blame.Parse(raw)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	for i, l := range lines {
		require.Equal(t, "Zoë (bot)", l.Author)
		require.Equal(t, i+1, l.OrigNumber)
		require.Equal(t, head, l.Commit)
	}
	require.Equal(t, "second", lines[1].Content)
}

func TestRepoParents(t *testing.T) {
	tr := newTestRepo(t)
	repo, err := Open(tr.dir)
	require.NoError(t, err)

	parent, ok, err := repo.Parent(tr.second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, tr.first, parent)

	_, ok, err = repo.Parent(tr.first)
	require.NoError(t, err)
	require.False(t, ok)

	commits, err := repo.Commits(tr.first, tr.second)
	require.NoError(t, err)
	require.Equal(t, "second", commits[tr.second].Summary)
	require.Equal(t, "Jane Doe", commits[tr.first].Author)
}

func TestRepoFileExists(t *testing.T) {
	tr := newTestRepo(t)
	repo, err := Open(tr.dir)
	require.NoError(t, err)

	ok, err := repo.FileExists("a.txt", tr.first)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.FileExists("missing.txt", tr.first)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRepoQueryError(t *testing.T) {
	tr := newTestRepo(t)
	repo, err := Open(tr.dir)
	require.NoError(t, err)

	_, err = repo.ResolveRef("no-such-branch")
	var qerr *QueryError
	require.True(t, errors.As(err, &qerr))
	require.Contains(t, qerr.Error(), "rev-parse")

	_, err = repo.RelPath(filepath.Dir(tr.dir))
	require.Error(t, err)
}

func TestCachedRepo(t *testing.T) {
	tr := newTestRepo(t)
	repo, err := Open(tr.dir)
	require.NoError(t, err)

	cached, err := NewCachedRepo(repo, 4)
	require.NoError(t, err)

	first, err := cached.Blame("a.txt", tr.second)
	require.NoError(t, err)
	require.Equal(t, 1, cached.blames.Len())

	again, err := cached.Blame("a.txt", tr.second)
	require.NoError(t, err)
	require.Equal(t, first, again)

	parent, ok, err := cached.Parent(tr.second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, tr.first, parent)
	require.True(t, cached.commits.Contains(tr.second))
}

func TestParseCommits(t *testing.T) {
	out := "aaa\x1fbbb ccc\x1fJane\x1f1700000000\x1ffix: thing\x1e\n" +
		"bbb\x1f\x1fBob\x1f1600000000\x1froot\x1e\n"
	commits, err := parseCommits(out)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	require.Equal(t, []blame.CommitID{"bbb", "ccc"}, commits[0].Parents)
	require.Empty(t, commits[1].Parents)

	_, err = parseCommits("garbage\x1e")
	require.Error(t, err)
}
