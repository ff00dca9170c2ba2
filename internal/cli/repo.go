package cli

import (
	"github.com/spf13/cobra"

	"github.com/loom-sh/loom/internal/app"
	"github.com/loom-sh/loom/internal/usecase"
)

func newRepoCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "repo",
		Short:   "Manage repositories",
		GroupID: groupRepo,
	}
	cmd.AddCommand(
		newRepoCloneCommand(c),
		newRepoListCommand(c),
		newRepoDeleteCommand(c),
	)
	return cmd
}

func newRepoCloneCommand(c *app.Container) *cobra.Command {
	var slug string
	cmd := &cobra.Command{
		Use:   "clone <url>",
		Short: "Clone a repository into the managed repos directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.CloneRepoUseCase().Execute(cmd.Context(), usecase.CloneRepoInput{
				URL:  args[0],
				Slug: slug,
			})
			if err != nil {
				return err
			}
			return renderYAML(cmd.OutOrStdout(), out.Repo)
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "directory slug (default: derived from URL)")
	return cmd
}

func newRepoListCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repos, err := c.Repos.List(cmd.Context())
			if err != nil {
				return err
			}
			return renderYAML(cmd.OutOrStdout(), repos)
		},
	}
}

func newRepoDeleteCommand(c *app.Container) *cobra.Command {
	var deleteFiles bool
	cmd := &cobra.Command{
		Use:   "delete <repo-id>",
		Short: "Delete a repository descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.DeleteRepoUseCase().Execute(cmd.Context(), usecase.DeleteRepoInput{
				RepoID:      args[0],
				DeleteFiles: deleteFiles,
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
	cmd.Flags().BoolVar(&deleteFiles, "delete-files", false, "also delete the clone and worktree directories")
	return cmd
}
