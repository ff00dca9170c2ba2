// Package cli provides the command-line interface for loom.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/loom-sh/loom/internal/app"
)

// Command group IDs.
const (
	groupRepo    = "repo"
	groupSession = "session"
)

// NewRootCommand creates the root command for loom. It receives the
// container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "loom",
		Short: "Orchestrate AI coding agents across branch-isolated worktrees",
		Long: `loom delegates coding work to AI agent sessions, each bound to its own
git worktree. Sessions form a genealogy: fork one to explore an
alternative, spawn one to delegate a subtask, and import finished
transcripts to keep the full history queryable.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c == nil || cmd.Name() == "help" {
				return nil
			}
			return c.StoreInitializer.Initialize(cmd.Context())
		},
	}

	root.AddGroup(
		&cobra.Group{ID: groupRepo, Title: "Repository commands:"},
		&cobra.Group{ID: groupSession, Title: "Session commands:"},
	)

	root.AddCommand(
		newRepoCommand(c),
		newWorktreeCommand(c),
		newSessionCommand(c),
		newTaskCommand(c),
		newImportCommand(c),
		newBoardCommand(c),
	)
	return root
}

// minRefLength guards interactive short-ID lookups: one or two character
// prefixes match unrelated entities too easily to accept from the shell.
const minRefLength = 4

func checkRef(ref string) error {
	if len(ref) < minRefLength {
		return fmt.Errorf("identifier %q too short (minimum %d characters)", ref, minRefLength)
	}
	return nil
}

// renderYAML writes v to w as YAML, the CLI's single output format.
func renderYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}
