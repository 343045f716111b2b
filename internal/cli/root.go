// Package cli is the cortracker command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jask/cortracker/internal/config"
	"github.com/jask/cortracker/internal/logger"
)

// Env carries the process surroundings into the command tree.
type Env struct {
	Out io.Writer
	Err io.Writer
	Now func() time.Time
	// Viper is the configuration source; nil uses config.New().
	Viper *viper.Viper
}

// session is the per-invocation state shared by subcommands.
type session struct {
	env     Env
	v       *viper.Viper
	cfgFile string
	debug   bool
	app     *App
	log     *logger.Logger
}

func (s *session) now() time.Time { return s.env.Now() }

// Execute runs the command tree with args and releases resources afterwards.
func Execute(ctx context.Context, env Env, args []string) error {
	root, s := newRoot(env)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := s.close(); err == nil {
		err = cerr
	}
	return err
}

// newRoot creates the root command and the session its subcommands share.
func newRoot(env Env) (*cobra.Command, *session) {
	if env.Out == nil {
		env.Out = os.Stdout
	}
	if env.Err == nil {
		env.Err = os.Stderr
	}
	if env.Now == nil {
		env.Now = time.Now
	}
	s := &session{env: env, v: env.Viper}
	if s.v == nil {
		s.v = config.New()
	}

	rootCmd := &cobra.Command{
		Use:           "cortracker",
		Short:         "Track construction Change Order Requests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(env.Out)
	rootCmd.SetErr(env.Err)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&s.cfgFile, "config", "", "config file (default $HOME/.config/cortracker/config.toml)")
	flags.BoolVarP(&s.debug, "debug", "d", false, "Enable debug logging")
	flags.String("driver", "", "Storage driver: sqlite or file")
	flags.String("path", "", "Storage path: database file for sqlite, directory for file")
	_ = s.v.BindPFlag("storage.driver", flags.Lookup("driver"))
	_ = s.v.BindPFlag("storage.path", flags.Lookup("path"))

	tuiCmd := newTUICommand(s)
	rootCmd.RunE = tuiCmd.RunE

	rootCmd.AddCommand(
		tuiCmd,
		newListCommand(s),
		newBoardCommand(s),
		newAddCommand(s),
		newAdvanceCommand(s),
		newPriorityCommand(s),
		newAmountCommand(s),
		newDeleteCommand(s),
		newImportCommand(s),
		newExportCommand(s),
		newMetricsCommand(s),
		newResetCommand(s),
		newConfigCommand(s),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return s.open(cmd.Context(), cmd == tuiCmd || cmd == rootCmd)
	}
	return rootCmd, s
}

// open loads config, builds the logger and wires the app. Interactive runs
// never log to stderr so the terminal stays clean.
func (s *session) open(ctx context.Context, interactive bool) error {
	if s.cfgFile != "" {
		s.v.SetConfigFile(s.cfgFile)
	}
	cfg, err := config.LoadFrom(s.v)
	if err != nil {
		return err
	}
	if s.debug {
		cfg.Log.Level = "debug"
	}

	logFile := cfg.Log.File
	if interactive && logFile == "" {
		s.log = logger.Nop()
	} else {
		s.log, err = logger.New(cfg.Log.Level, logFile)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	s.app, err = OpenApp(ctx, cfg, s.log, s.now)
	if err != nil {
		return err
	}
	return nil
}

func (s *session) close() error {
	var err error
	if s.app != nil {
		err = s.app.Close()
		s.app = nil
	}
	if s.log != nil {
		s.log.Sync()
	}
	return err
}
