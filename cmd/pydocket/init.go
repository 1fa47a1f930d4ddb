package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pydocket/internal/config"
	"pydocket/internal/errors"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default " + config.FileName,
	Long:  "Creates " + config.FileName + " with default settings in the current directory",
	// The file being created may not exist or may be invalid, so the
	// root's configuration loading is skipped.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE:              runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	dir := configDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.New(errors.InternalError, "Failed to get current directory", err)
		}
		dir = wd
	}

	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Fprintf(cmd.OutOrStdout(), "pydocket already initialized.\nConfiguration at: %s\n\nRun 'pydocket init --force' to overwrite.\n", path)
		return nil
	}

	if err := config.DefaultConfig().Save(dir); err != nil {
		return errors.New(errors.InternalError, "Failed to write config file", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to: %s\n", path)
	return nil
}
