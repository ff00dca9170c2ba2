package cli

import (
	"github.com/spf13/cobra"

	"github.com/loom-sh/loom/internal/app"
	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/usecase"
)

func newTaskCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Short:   "Manage tasks within sessions",
		GroupID: groupSession,
	}
	cmd.AddCommand(
		newTaskListCommand(c),
		newTaskCompleteCommand(c),
		newTaskFailCommand(c),
	)
	return cmd
}

func newTaskListCommand(c *app.Container) *cobra.Command {
	var sessionID, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := c.Tasks.List(cmd.Context(), domain.TaskFilter{
				SessionID: sessionID,
				Status:    domain.TaskStatus(status),
			})
			if err != nil {
				return err
			}
			return renderYAML(cmd.OutOrStdout(), tasks)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "filter by session ID")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	return cmd
}

func newTaskCompleteCommand(c *app.Container) *cobra.Command {
	var endSHA string
	cmd := &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRef(args[0]); err != nil {
				return err
			}
			out, err := c.CompleteTaskUseCase().Execute(cmd.Context(), usecase.CompleteTaskInput{
				TaskID: args[0],
				EndSHA: endSHA,
			})
			if err != nil {
				return err
			}
			return renderYAML(cmd.OutOrStdout(), out.Task)
		},
	}
	cmd.Flags().StringVar(&endSHA, "sha", "", "commit the task finished at")
	return cmd
}

func newTaskFailCommand(c *app.Container) *cobra.Command {
	var endSHA, message string
	cmd := &cobra.Command{
		Use:   "fail <task-id>",
		Short: "Mark a task failed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRef(args[0]); err != nil {
				return err
			}
			out, err := c.CompleteTaskUseCase().Execute(cmd.Context(), usecase.CompleteTaskInput{
				TaskID:   args[0],
				EndSHA:   endSHA,
				Failed:   true,
				ErrorMsg: message,
			})
			if err != nil {
				return err
			}
			return renderYAML(cmd.OutOrStdout(), out.Task)
		},
	}
	cmd.Flags().StringVar(&endSHA, "sha", "", "commit the task ended at")
	cmd.Flags().StringVar(&message, "message", "", "what went wrong")
	return cmd
}
