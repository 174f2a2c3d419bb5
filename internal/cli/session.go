package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the current photo session",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the current session code",
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
				if code == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "no active session")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), code)
				return nil
			},
		},
		&cobra.Command{
			Use:   "new",
			Short: "Discard the current session and start a fresh one",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp()
				if err != nil {
					return err
				}
				defer a.Close()

				if err := a.sessions.Reset(cmd.Context()); err != nil {
					return err
				}
				code, err := a.sessions.Ensure(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "session started: %s\n", code)
				return nil
			},
		},
	)

	return cmd
}
