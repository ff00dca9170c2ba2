package cli

import (
	"github.com/spf13/cobra"

	"github.com/loom-sh/loom/internal/app"
	"github.com/loom-sh/loom/internal/usecase"
)

func newWorktreeCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "worktree",
		Aliases: []string{"wt"},
		Short:   "Manage branch-isolated worktrees",
		GroupID: groupRepo,
	}
	cmd.AddCommand(
		newWorktreeAddCommand(c),
		newWorktreeRemoveCommand(c),
	)
	return cmd
}

func newWorktreeAddCommand(c *app.Container) *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:   "add <repo-id> <name>",
		Short: "Create a worktree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := c.Repos.Get(ctx, args[0])
			if err != nil {
				return err
			}

			// A ref with no matching remote branch means cutting a new one.
			branchRef := ref
			if branchRef == "" {
				branchRef = repo.DefaultBranch
			}
			exists, err := c.Git.HasRemoteBranch(ctx, repo.LocalPath, branchRef)
			if err != nil {
				return err
			}

			out, err := c.CreateWorktreeUseCase().Execute(ctx, usecase.CreateWorktreeInput{
				RepoID:       repo.ID,
				Name:         args[1],
				Ref:          branchRef,
				CreateBranch: !exists,
			})
			if err != nil {
				return err
			}
			return renderYAML(cmd.OutOrStdout(), out.Worktree)
		},
	}
	cmd.Flags().StringVar(&ref, "ref", "", "branch to check out or create (default: repo default branch)")
	return cmd
}

func newWorktreeRemoveCommand(c *app.Container) *cobra.Command {
	var deleteFiles, force bool
	cmd := &cobra.Command{
		Use:   "remove <repo-id> <name>",
		Short: "Remove a worktree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.RemoveWorktreeUseCase().Execute(cmd.Context(), usecase.RemoveWorktreeInput{
				RepoID:      args[0],
				Name:        args[1],
				DeleteFiles: deleteFiles,
				Force:       force,
			})
			if err != nil {
				return err
			}
			for _, msg := range out.FileErrors {
				cmd.PrintErrln("warning:", msg)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&deleteFiles, "delete-files", false, "also delete the worktree directory")
	cmd.Flags().BoolVar(&force, "force", false, "remove even with active sessions")
	return cmd
}
