package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Slugs name repos and worktrees: lowercase alphanumerics and hyphens,
// usable as directory names and CLI references.
var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidSlug reports whether s is a valid repo slug or worktree name.
func ValidSlug(s string) bool {
	return slugRe.MatchString(s)
}

// Slugify converts an arbitrary name into slug form.
func Slugify(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// RepoNameFromURL extracts the repository name from a git URL.
// "git@github.com:apache/superset.git" and
// "https://github.com/facebook/react.git" both work.
func RepoNameFromURL(url string) (string, error) {
	trimmed := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	idx := strings.LastIndexAny(trimmed, "/:")
	if idx < 0 || idx == len(trimmed)-1 {
		return "", fmt.Errorf("could not extract repo name from URL: %s", url)
	}
	return trimmed[idx+1:], nil
}

// ReposDir returns the directory managed repo clones live under.
func ReposDir(homeDir string) string {
	return filepath.Join(homeDir, "repos")
}

// RepoPath returns the deterministic clone path for a repo slug.
func RepoPath(homeDir, slug string) string {
	return filepath.Join(ReposDir(homeDir), slug)
}

// WorktreesDir returns the directory worktrees live under.
func WorktreesDir(homeDir string) string {
	return filepath.Join(homeDir, "worktrees")
}

// WorktreePath returns the deterministic path for a worktree.
func WorktreePath(homeDir, repoSlug, name string) string {
	return filepath.Join(WorktreesDir(homeDir), repoSlug, name)
}

// ConfigPath returns the global config file path.
func ConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.toml")
}

// DBPath returns the sqlite database path.
func DBPath(homeDir string) string {
	return filepath.Join(homeDir, "loom.db")
}

// LogsDir returns the log directory.
func LogsDir(homeDir string) string {
	return filepath.Join(homeDir, "logs")
}
