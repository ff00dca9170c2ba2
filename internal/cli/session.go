package cli

import (
	"github.com/spf13/cobra"

	"github.com/loom-sh/loom/internal/app"
	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
	"github.com/loom-sh/loom/internal/usecase"
)

func newSessionCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"s"},
		Short:   "Manage agent sessions",
		GroupID: groupSession,
	}
	cmd.AddCommand(
		newSessionNewCommand(c),
		newSessionListCommand(c),
		newSessionShowCommand(c),
		newSessionForkCommand(c),
		newSessionSpawnCommand(c),
		newSessionTreeCommand(c),
		newSessionDeleteCommand(c),
	)
	return cmd
}

// sessionRow is the compact list rendering of a session.
type sessionRow struct {
	ID          string `yaml:"id"`
	Status      string `yaml:"status"`
	Agent       string `yaml:"agent"`
	Description string `yaml:"description,omitempty"`
	Tasks       int    `yaml:"tasks"`
	Messages    int    `yaml:"messages"`
}

func toRow(s *domain.Session) sessionRow {
	return sessionRow{
		ID:          identity.Short(s.ID, identity.ShortLength),
		Status:      string(s.Status),
		Agent:       s.Agent,
		Description: s.Description,
		Tasks:       len(s.Tasks),
		Messages:    s.MessageCount,
	}
}

func newSessionNewCommand(c *app.Container) *cobra.Command {
	var agent, description string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a root session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.CreateSessionUseCase().Execute(cmd.Context(), usecase.CreateSessionInput{
				Agent:       agent,
				Description: description,
			})
			if err != nil {
				return err
			}
			return renderYAML(cmd.OutOrStdout(), out.Session)
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "agent kind (default claude-code)")
	cmd.Flags().StringVar(&description, "description", "", "what the session is for")
	return cmd
}

func newSessionListCommand(c *app.Container) *cobra.Command {
	var status, agent, board string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions, err := c.Sessions.List(cmd.Context(), domain.SessionFilter{
				Status: domain.SessionStatus(status),
				Agent:  agent,
				Board:  board,
			})
			if err != nil {
				return err
			}
			rows := make([]sessionRow, len(sessions))
			for i, s := range sessions {
				rows[i] = toRow(s)
			}
			return renderYAML(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&agent, "agent", "", "filter by agent")
	cmd.Flags().StringVar(&board, "board", "", "only sessions pinned to this board")
	return cmd
}

func newSessionShowCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRef(args[0]); err != nil {
				return err
			}
			s, err := c.Sessions.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderYAML(cmd.OutOrStdout(), s)
		},
	}
}

func newSessionForkCommand(c *app.Container) *cobra.Command {
	var prompt, taskID string
	cmd := &cobra.Command{
		Use:   "fork <session-id>",
		Short: "Fork a session to explore an alternative",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRef(args[0]); err != nil {
				return err
			}
			out, err := c.ForkSessionUseCase().Execute(cmd.Context(), usecase.ForkSessionInput{
				ParentID: args[0],
				Prompt:   prompt,
				TaskID:   taskID,
			})
			if err != nil {
				return err
			}
			return renderYAML(cmd.OutOrStdout(), out.Session)
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "", "description of the alternative")
	cmd.Flags().StringVar(&taskID, "task", "", "task the fork branches off from")
	return cmd
}

func newSessionSpawnCommand(c *app.Container) *cobra.Command {
	var prompt, agent, taskID string
	cmd := &cobra.Command{
		Use:   "spawn <session-id>",
		Short: "Spawn a child session to delegate a subtask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRef(args[0]); err != nil {
				return err
			}
			out, err := c.SpawnSessionUseCase().Execute(cmd.Context(), usecase.SpawnSessionInput{
				ParentID: args[0],
				Prompt:   prompt,
				Agent:    agent,
				TaskID:   taskID,
			})
			if err != nil {
				return err
			}
			return renderYAML(cmd.OutOrStdout(), out.Session)
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "", "description of the subtask")
	cmd.Flags().StringVar(&agent, "agent", "", "agent kind for the child (default: inherit)")
	cmd.Flags().StringVar(&taskID, "task", "", "task the subtask was delegated from")
	return cmd
}

func newSessionTreeCommand(c *app.Container) *cobra.Command {
	var ancestors bool
	cmd := &cobra.Command{
		Use:   "tree <session-id>",
		Short: "Show a session's descendants (or ancestors)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRef(args[0]); err != nil {
				return err
			}
			uc := c.SessionTreeUseCase()
			in := usecase.SessionTreeInput{SessionID: args[0]}
			var sessions []*domain.Session
			if ancestors {
				out, err := uc.Ancestors(cmd.Context(), in)
				if err != nil {
					return err
				}
				sessions = out.Ancestors
			} else {
				out, err := uc.Descendants(cmd.Context(), in)
				if err != nil {
					return err
				}
				sessions = out.Descendants
			}
			rows := make([]sessionRow, len(sessions))
			for i, s := range sessions {
				rows[i] = toRow(s)
			}
			return renderYAML(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().BoolVar(&ancestors, "ancestors", false, "walk upward instead of downward")
	return cmd
}

func newSessionDeleteCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session (children survive as new roots)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRef(args[0]); err != nil {
				return err
			}
			s, err := c.Sessions.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.Sessions.Delete(cmd.Context(), s.ID)
		},
	}
}
