package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jask/cortracker/internal/service"
)

func newImportCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>...",
		Short: "Import CSV files ahead of the existing records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			total := 0
			for _, path := range args {
				res, err := s.app.Import.ImportFile(cmd.Context(), path)
				if err != nil {
					// The cause is in the log; the user sees one message.
					if errors.Is(err, service.ErrImportFailed) {
						return fmt.Errorf("%s: %w", path, service.ErrImportFailed)
					}
					return err
				}
				total += res.Imported
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d records from %s\n", res.Imported, path)
			}
			if len(args) > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d records in total\n", total)
			}
			return nil
		},
	}
}

func newExportCommand(s *session) *cobra.Command {
	var (
		dir    string
		stdout bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every record as CORs-YYYY-MM-DD.csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stdout {
				if err := s.app.Export.ExportTo(cmd.OutOrStdout()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout())
				return err
			}
			path, err := s.app.Export.ExportFile(cmd.Context(), dir, s.now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", len(s.app.Store.Snapshot().Records), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write the export into")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Write CSV to standard output instead of a file")
	return cmd
}

func newMetricsCommand(s *session) *cobra.Command {
	var textfile string
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print tracker KPIs in Prometheus text format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.app.Metrics.Observe(s.app.Store.Snapshot(), s.now())
			if textfile != "" {
				if err := s.app.Metrics.WriteTextfile(textfile); err != nil {
					return fmt.Errorf("write textfile: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", textfile)
				return nil
			}
			return s.app.Metrics.WriteText(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&textfile, "textfile", "", "Write to this file for the node-exporter textfile collector")
	return cmd
}

func newResetCommand(s *session) *cobra.Command {
	var (
		yes   bool
		empty bool
	)
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard all records and restore the demo set (or nothing with --empty)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset discards every record; re-run with --yes to confirm")
			}
			if err := s.app.Maintenance.Reset(cmd.Context(), !empty, s.now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset: %d records\n", len(s.app.Store.Snapshot().Records))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	cmd.Flags().BoolVar(&empty, "empty", false, "Start with no records instead of the demo set")
	return cmd
}
