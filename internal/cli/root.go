// Package cli implements the reelforge-agent command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reelforge/reelforge-agent/internal/config"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reelforge-agent",
		Short: "Local studio agent for Reelforge photo-to-video sessions",
		Long: `reelforge-agent manages a photo session against the Reelforge backend:
it uploads photos, tracks the gallery, launches video rendering jobs and
downloads finished videos. Run "serve" for the long-lived agent with the
local HTTP API and system tray, or use the one-shot commands directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newSessionCmd(),
		newUploadCmd(),
		newPhotosCmd(),
		newTemplatesCmd(),
		newCreateCmd(),
		newStatusCmd(),
		newDownloadCmd(),
		newVersionCmd(),
	)

	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reelforge-agent %s (commit %s, built %s)\n",
				config.Version, config.GitCommit, config.BuildTime)
		},
	}
}
