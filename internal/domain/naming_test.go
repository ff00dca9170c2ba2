package domain

import "testing"

func TestValidSlug(t *testing.T) {
	tests := []struct {
		name string
		slug string
		want bool
	}{
		{"simple", "superset", true},
		{"with hyphens", "my-feature-branch", true},
		{"digits", "wt2", true},
		{"leading digit", "2fast", true},
		{"empty", "", false},
		{"leading hyphen", "-oops", false},
		{"uppercase", "Superset", false},
		{"slash", "feature/foo", false},
		{"dot", "v1.2", false},
		{"space", "my repo", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidSlug(tt.slug); got != tt.want {
				t.Errorf("ValidSlug(%q) = %v, want %v", tt.slug, got, tt.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already slug", "superset", "superset"},
		{"uppercase", "Superset", "superset"},
		{"spaces", "my cool repo", "my-cool-repo"},
		{"symbols collapse", "user.name+tag", "user-name-tag"},
		{"leading symbols dropped", "--repo", "repo"},
		{"trailing symbols trimmed", "repo!!", "repo"},
		{"runs collapse", "a   b", "a-b"},
		{"empty", "", ""},
		{"only symbols", "+++", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRepoNameFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"https with .git", "https://github.com/facebook/react.git", "react", false},
		{"https without .git", "https://github.com/facebook/react", "react", false},
		{"trailing slash", "https://github.com/facebook/react/", "react", false},
		{"ssh scp form", "git@github.com:apache/superset.git", "superset", false},
		{"bare path", "/srv/git/tooling.git", "tooling", false},
		{"no separator", "react", "", true},
		{"trailing separator only", "https://github.com/", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RepoNameFromURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RepoNameFromURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("RepoNameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	home := "/home/user/.loom"

	if got, want := RepoPath(home, "superset"), "/home/user/.loom/repos/superset"; got != want {
		t.Errorf("RepoPath() = %q, want %q", got, want)
	}
	if got, want := WorktreePath(home, "superset", "fix-auth"), "/home/user/.loom/worktrees/superset/fix-auth"; got != want {
		t.Errorf("WorktreePath() = %q, want %q", got, want)
	}
	if got, want := ConfigPath(home), "/home/user/.loom/config.toml"; got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
	if got, want := DBPath(home), "/home/user/.loom/loom.db"; got != want {
		t.Errorf("DBPath() = %q, want %q", got, want)
	}
	if got, want := LogsDir(home), "/home/user/.loom/logs"; got != want {
		t.Errorf("LogsDir() = %q, want %q", got, want)
	}
}
