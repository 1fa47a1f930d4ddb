package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"pydocket/internal/config"
	"pydocket/internal/slogutil"
	"pydocket/internal/version"
)

var (
	verbosity int
	quiet     bool
	configDir string
	logFile   string
	cfg       *config.Config
	logger    = slogutil.NewDiscardLogger()
	closeLog  = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "pydocket",
	Short: "pydocket - documentation records and example checks for Python",
	Long: `pydocket reads Python source and builds documentation records from trailing
comments, type annotations and YAML docstrings. It also runs the usage examples
embedded in those docstrings and checks them against their documented values.`,
	Version:            version.Info(),
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: func(*cobra.Command, []string) error { return closeLog() },
}

func init() {
	rootCmd.SetVersionTemplate("pydocket version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory holding "+config.FileName+" (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append debug logs to this file")
}

// setup loads configuration and builds the logger before every command.
func setup(cmd *cobra.Command, _ []string) error {
	dir := configDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		dir = wd
	}

	loaded, err := config.LoadConfig(dir)
	if err != nil {
		return err
	}
	cfg = loaded

	file := cfg.Logging.File
	if logFile != "" {
		file = logFile
	}
	level := slogutil.LevelFromVerbosity(slogutil.LevelFromString(cfg.Logging.Level), verbosity, quiet)
	l, closer, err := slogutil.Setup(cmd.ErrOrStderr(), slogutil.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		File:   file,
	})
	if err != nil {
		return err
	}
	logger, closeLog = l, closer
	slog.SetDefault(logger)

	logger.Debug("configuration loaded",
		slog.String("dir", dir),
		slog.String("level", level.String()),
	)
	return nil
}
