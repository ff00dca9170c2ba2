package domain

import "testing"

func wt(name string, id int) Worktree {
	return Worktree{Name: name, NumericID: id}
}

func TestNextWorktreeID(t *testing.T) {
	tests := []struct {
		name      string
		worktrees []Worktree
		want      int
	}{
		{"empty", nil, 1},
		{"sequential", []Worktree{wt("a", 1), wt("b", 2)}, 3},
		{"gap reused", []Worktree{wt("a", 1), wt("c", 3)}, 2},
		{"lowest gap first", []Worktree{wt("b", 2), wt("d", 4)}, 1},
		{"unordered", []Worktree{wt("c", 3), wt("a", 1), wt("b", 2)}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Repo{Worktrees: tt.worktrees}
			if got := r.NextWorktreeID(); got != tt.want {
				t.Errorf("NextWorktreeID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFindWorktree(t *testing.T) {
	r := &Repo{Worktrees: []Worktree{wt("a", 1), wt("b", 2)}}

	found := r.FindWorktree("b")
	if found == nil || found.NumericID != 2 {
		t.Fatalf("FindWorktree(\"b\") = %+v, want numeric ID 2", found)
	}

	// Returned pointer aliases the slice element.
	found.LastCommitSHA = "abc123"
	if r.Worktrees[1].LastCommitSHA != "abc123" {
		t.Error("FindWorktree result should alias the repo's slice")
	}

	if r.FindWorktree("missing") != nil {
		t.Error("FindWorktree for unknown name should return nil")
	}
}
