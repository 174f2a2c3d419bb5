package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reelforge/reelforge-agent/internal/video"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [job-id]",
		Short: "Show the status of a rendering job (latest job when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			jobID := ""
			if len(args) == 1 {
				jobID = args[0]
			} else {
				latest, err := a.repo.LatestVideoJob(cmd.Context())
				if err != nil {
					return err
				}
				if latest == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "no video jobs yet")
					return nil
				}
				jobID = latest.JobID
			}

			update, err := a.poller.Once(cmd.Context(), jobID)
			if err != nil {
				return err
			}

			switch update.State {
			case video.StateNotFound:
				return fmt.Errorf("job %s not found on the backend", jobID)
			case video.StateError:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: failed: %s\n", jobID, update.Err)
			case video.StateDone:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: done (output: %s)\n", jobID, update.OutputPath)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %d%%\n", jobID, update.State, update.Progress)
			}
			return nil
		},
	}
}
