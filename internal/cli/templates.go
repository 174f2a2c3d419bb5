package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reelforge/reelforge-agent/internal/template"
)

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List available video templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			templates, err := a.templates.Templates(cmd.Context())
			if err != nil {
				return err
			}

			// Duration estimates reflect the current gallery when a
			// session is active.
			photoCount := 0
			if code, err := a.sessions.Current(cmd.Context()); err == nil && code != "" {
				if photos, err := a.gallery.Photos(cmd.Context(), code); err == nil {
					photoCount = len(photos)
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tMAX PHOTOS\tDURATION")
			for _, tmpl := range templates {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.1fs\n",
					tmpl.ID, tmpl.Name, tmpl.MaxPhotos,
					template.EstimateDuration(&tmpl, photoCount))
			}
			return tw.Flush()
		},
	}
}
