package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reelforge/reelforge-agent/internal/backend"
)

func newPhotosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Inspect and rearrange the session gallery",
	}

	cmd.AddCommand(newPhotosListCmd(), newPhotosMoveCmd(), newPhotosDeleteCmd())
	return cmd
}

func newPhotosListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the session's photos in display order",
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

			photos, err := a.gallery.Refresh(cmd.Context(), code)
			if err != nil {
				return err
			}

			if len(photos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no photos uploaded yet")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ORDER\tID\tFILENAME\tSTATUS\tSIZE")
			for _, p := range photos {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\n", p.OrderIndex, p.ID, p.Filename, p.Status, p.SizeBytes)
			}
			return tw.Flush()
		},
	}
}

func newPhotosMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <photo-id> <up|down>",
		Short: "Move a photo one position up or down",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid photo id %q", args[0])
			}

			var direction backend.Direction
			switch args[1] {
			case "up":
				direction = backend.DirectionUp
			case "down":
				direction = backend.DirectionDown
			default:
				return fmt.Errorf("direction must be up or down, got %q", args[1])
			}

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
				return fmt.Errorf("no active session")
			}

			outcome, err := a.gallery.Reorder(cmd.Context(), code, fileID, direction)
			if err != nil {
				return err
			}

			if !outcome.Moved {
				fmt.Fprintf(cmd.OutOrStdout(), "photo %d is already at the %s boundary\n", fileID, args[1])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "photo %d moved %s\n", fileID, args[1])
			return nil
		},
	}
}

func newPhotosDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <photo-id>",
		Short: "Remove a photo from the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid photo id %q", args[0])
			}

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
				return fmt.Errorf("no active session")
			}

			resp, err := a.gallery.Delete(cmd.Context(), code, fileID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted photo %d (%s)\n", resp.DeletedFileID, resp.DeletedObjectKey)
			return nil
		},
	}
}
