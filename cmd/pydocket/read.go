package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"pydocket/internal/reader"
)

var readFormat string

var readCmd = &cobra.Command{
	Use:   "read <file.py> [symbol]",
	Short: "Print the documentation record of a module, class or function",
	Long: `Read a Python file and print its documentation record.

Without a symbol the whole module is read. Nested definitions are addressed
with dots.

Examples:
  pydocket read pkg/widgets.py
  pydocket read pkg/widgets.py Widget
  pydocket read pkg/widgets.py Widget.make --format json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRead,
}

func init() {
	readCmd.Flags().StringVar(&readFormat, "format", "", "Output format: yaml or json (default from config)")
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	format := OutputFormat(cfg.Read.Format)
	if readFormat != "" {
		format = OutputFormat(readFormat)
	}
	if format != FormatYAML && format != FormatJSON {
		return fmt.Errorf("unsupported format: %s", format)
	}

	dotted := ""
	if len(args) == 2 {
		dotted = args[1]
	}

	sym, err := reader.New(logger).Read(cmd.Context(), args[0], dotted)
	if err != nil {
		return err
	}
	logger.Info("read symbol",
		slog.String("file", args[0]),
		slog.String("symbol", sym.Name),
		slog.String("kind", string(sym.Kind)),
	)
	return writeFormatted(cmd.OutOrStdout(), sym, format)
}
