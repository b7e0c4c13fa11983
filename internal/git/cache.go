package git

import (
	"github.com/cj3636/gblame/internal/blame"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of blame outputs and commits kept.
const DefaultCacheSize = 256

type blameKey struct {
	path   string
	commit blame.CommitID
}

// CachedRepo memoises the answers of a Repo. Blame output at a commit and
// commit metadata never change, so entries are only ever added.
type CachedRepo struct {
	*Repo
	blames  *lru.Cache[blameKey, string]
	commits *lru.Cache[blame.CommitID, blame.Commit]
}

// NewCachedRepo wraps repo with caches holding up to size entries each.
func NewCachedRepo(repo *Repo, size int) (*CachedRepo, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	blames, err := lru.New[blameKey, string](size)
	if err != nil {
		return nil, err
	}
	commits, err := lru.New[blame.CommitID, blame.Commit](size * 4)
	if err != nil {
		return nil, err
	}
	return &CachedRepo{Repo: repo, blames: blames, commits: commits}, nil
}

// Blame returns cached blame output, querying git on a miss.
func (c *CachedRepo) Blame(path string, commit blame.CommitID) (string, error) {
	key := blameKey{path: path, commit: commit}
	if raw, ok := c.blames.Get(key); ok {
		return raw, nil
	}
	raw, err := c.Repo.Blame(path, commit)
	if err != nil {
		return "", err
	}
	c.blames.ContainsOrAdd(key, raw)
	return raw, nil
}

// Commits returns metadata for ids, fetching only the ones not cached.
func (c *CachedRepo) Commits(ids ...blame.CommitID) (map[blame.CommitID]blame.Commit, error) {
	result := make(map[blame.CommitID]blame.Commit, len(ids))
	var missing []blame.CommitID
	for _, id := range ids {
		if commit, ok := c.commits.Get(id); ok {
			result[id] = commit
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := c.Repo.Commits(missing...)
	if err != nil {
		return nil, err
	}
	for id, commit := range fetched {
		c.commits.ContainsOrAdd(id, commit)
		result[id] = commit
	}
	return result, nil
}

// Parent answers from the commit cache when it can.
func (c *CachedRepo) Parent(commit blame.CommitID) (blame.CommitID, bool, error) {
	commits, err := c.Commits(commit)
	if err != nil {
		return "", false, err
	}
	meta, ok := commits[commit]
	if !ok {
		return "", false, &QueryError{Args: []string{"show", string(commit)}, Stderr: "commit not found"}
	}
	parent, ok := meta.FirstParent()
	return parent, ok, nil
}
