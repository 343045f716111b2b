package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jask/cortracker/internal/config"
)

func newConfigCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or persist the effective configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), s.configPath())
				return err
			},
		},
		&cobra.Command{
			Use:   "save",
			Short: "Write the effective configuration, flags and env included, to the config file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path := s.configPath()
				if err := config.Save(path, s.app.Config); err != nil {
					return err
				}
				s.log.Info("config saved", "path", path)
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return err
			},
		},
	)
	return cmd
}

func (s *session) configPath() string {
	if p := s.v.ConfigFileUsed(); p != "" {
		return p
	}
	return config.Path()
}
