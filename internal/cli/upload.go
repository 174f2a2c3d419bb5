package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reelforge/reelforge-agent/internal/uploader"
)

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload photos to the current session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				name := filepath.Base(path)
				a.queue.Enqueue(name, uploader.DetectContentType(name), data)
			}

			result, err := a.queue.Process(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "session %s: %d uploaded, %d failed\n",
				result.SessionCode, result.Succeeded, result.Failed)

			for _, item := range a.queue.Items() {
				if item.Status == uploader.StatusError {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", item.FileName, item.Err)
				}
			}

			if result.Failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", result.Failed, result.Total)
			}
			return nil
		},
	}
}
