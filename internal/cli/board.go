package cli

import (
	"github.com/spf13/cobra"

	"github.com/loom-sh/loom/internal/app"
	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
	"github.com/loom-sh/loom/internal/usecase"
)

func newBoardCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "board",
		Short:   "Group sessions onto boards",
		GroupID: groupSession,
	}
	cmd.AddCommand(
		newBoardCreateCommand(c),
		newBoardListCommand(c),
		newBoardAddCommand(c),
		newBoardRemoveCommand(c),
	)
	return cmd
}

func newBoardCreateCommand(c *app.Container) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := c.Clock.Now()
			board := &domain.Board{
				ID:          identity.New(),
				Slug:        domain.Slugify(args[0]),
				Name:        args[0],
				Description: description,
				Sessions:    []string{},
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := c.Boards.Insert(cmd.Context(), board); err != nil {
				return err
			}
			return renderYAML(cmd.OutOrStdout(), board)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "what the board collects")
	return cmd
}

func newBoardListCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			boards, err := c.Boards.List(cmd.Context())
			if err != nil {
				return err
			}
			return renderYAML(cmd.OutOrStdout(), boards)
		},
	}
}

func newBoardAddCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "add <board> <session-id>",
		Short: "Pin a session to a board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRef(args[1]); err != nil {
				return err
			}
			out, err := c.BoardSessionsUseCase().Add(cmd.Context(), usecase.BoardSessionsInput{
				BoardID:   args[0],
				SessionID: args[1],
			})
			if err != nil {
				return err
			}
			return renderYAML(cmd.OutOrStdout(), out.Board)
		},
	}
}

func newBoardRemoveCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <board> <session-id>",
		Short: "Unpin a session from a board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRef(args[1]); err != nil {
				return err
			}
			out, err := c.BoardSessionsUseCase().Remove(cmd.Context(), usecase.BoardSessionsInput{
				BoardID:   args[0],
				SessionID: args[1],
			})
			if err != nil {
				return err
			}
			return renderYAML(cmd.OutOrStdout(), out.Board)
		},
	}
}
