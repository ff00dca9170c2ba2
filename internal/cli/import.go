package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loom-sh/loom/internal/app"
	"github.com/loom-sh/loom/internal/usecase"
)

func newImportCommand(c *app.Container) *cobra.Command {
	var agent, originalID string
	cmd := &cobra.Command{
		Use:     "import <transcript.jsonl>",
		Short:   "Import an agent transcript as a completed session",
		GroupID: groupSession,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open transcript: %w", err)
			}
			defer f.Close()

			out, err := c.ImportTranscriptUseCase().Execute(cmd.Context(), usecase.ImportTranscriptInput{
				Reader:            f,
				Agent:             agent,
				OriginalSessionID: originalID,
			})
			if err != nil {
				var be *usecase.BatchError
				if errors.As(err, &be) {
					fmt.Fprintf(cmd.ErrOrStderr(),
						"import aborted at %s batch %d (items %d-%d); committed batches are kept\n",
						be.Kind, be.Batch, be.Start, be.End)
				}
				return err
			}

			return renderYAML(cmd.OutOrStdout(), map[string]any{
				"session_id":  out.Session.ID,
				"description": out.Session.Description,
				"tasks":       len(out.Tasks),
				"messages":    out.MessageCount,
				"tool_uses":   out.ToolUseCount,
				"batches":     out.Batches,
			})
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "agent kind that produced the transcript")
	cmd.Flags().StringVar(&originalID, "original-id", "", "the source tool's own session ID")
	return cmd
}
