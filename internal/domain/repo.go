package domain

import "time"

// Repo is a git repository managed (or merely tracked) by loom.
// Managed repos live under the loom home dir and support worktree creation.
type Repo struct {
	ID            string     `json:"repo_id"`
	Slug          string     `json:"slug"`
	Name          string     `json:"name"`
	RemoteURL     string     `json:"remote_url,omitempty"`
	LocalPath     string     `json:"local_path"`
	Managed       bool       `json:"managed"`
	DefaultBranch string     `json:"default_branch,omitempty"`
	Worktrees     []Worktree `json:"worktrees"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"last_updated"`
}

// Worktree describes one branch-isolated working copy of a repo.
// NumericID is unique among the repo's live worktrees and is reused after
// deletion (lowest unused positive integer). Path is unique system-wide.
type Worktree struct {
	Name           string    `json:"name"`
	Path           string    `json:"path"`
	Ref            string    `json:"ref"`
	NewBranch      bool      `json:"new_branch"`
	NumericID      int       `json:"unique_numeric_id"`
	TrackingBranch string    `json:"tracking_branch,omitempty"`
	Sessions       []string  `json:"sessions"`
	LastCommitSHA  string    `json:"last_commit_sha,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastUsed       time.Time `json:"last_used"`
}

// FindWorktree returns the worktree with the given name, or nil.
func (r *Repo) FindWorktree(name string) *Worktree {
	for i := range r.Worktrees {
		if r.Worktrees[i].Name == name {
			return &r.Worktrees[i]
		}
	}
	return nil
}

// NextWorktreeID allocates the lowest unused positive numeric ID among the
// repo's live worktrees. IDs freed by deletion are reused, so the result is
// a scan rather than a stored counter.
func (r *Repo) NextWorktreeID() int {
	used := make(map[int]bool, len(r.Worktrees))
	for _, wt := range r.Worktrees {
		used[wt.NumericID] = true
	}
	id := 1
	for used[id] {
		id++
	}
	return id
}
