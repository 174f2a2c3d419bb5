package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reelforge/reelforge-agent/internal/video"
)

func newCreateCmd() *cobra.Command {
	var (
		templateID string
		format     string
		resolution string
		fps        int
		wait       bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start rendering a video from the session's photos",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			code, err := a.sessions.Current(cmd.Context())
			if err != nil {
				return err
			}

			result, err := a.orchestrator.Create(cmd.Context(), video.CreateParams{
				SessionCode: code,
				TemplateID:  templateID,
				Output: video.OutputOptions{
					Format:     format,
					Resolution: resolution,
					FPS:        fps,
				},
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "job %s accepted: %d photos, ~%.1fs video\n",
				result.JobID, result.PhotoCount, result.EstimatedDuration)

			if !wait {
				return nil
			}

			final, err := a.poller.Run(cmd.Context(), result.JobID, func(u video.Update) {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %d%%\n", u.State, u.Progress)
			})
			if err != nil {
				return err
			}
			if final.State != video.StateDone {
				return fmt.Errorf("job %s ended in state %s: %s", result.JobID, final.State, final.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s complete\n", result.JobID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&templateID, "template", "t", "", "template id (required)")
	cmd.Flags().StringVar(&format, "format", "", "output format (default mp4)")
	cmd.Flags().StringVar(&resolution, "resolution", "", "output resolution (default 1080p)")
	cmd.Flags().IntVar(&fps, "fps", 0, "output frame rate (default 30)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "poll until the job finishes")
	cmd.MarkFlagRequired("template")

	return cmd
}
