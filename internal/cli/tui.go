package cli

import (
	"github.com/spf13/cobra"

	"github.com/jask/cortracker/internal/tui"
)

func newTUICommand(s *session) *cobra.Command {
	var exportDir string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive tracker (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), tui.Options{
				Store: s.app.Store,
				Services: tui.Services{
					Import: s.app.Import,
					Export: s.app.Export,
				},
				UI:        s.app.Config.UI,
				Log:       s.log.With("component", "tui"),
				Now:       s.now,
				ExportDir: exportDir,
			})
		},
	}
	cmd.Flags().StringVar(&exportDir, "export-dir", ".", "Directory for CSV exports")
	return cmd
}
