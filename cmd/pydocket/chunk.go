package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"pydocket/internal/example"
)

var (
	chunkFormat string
	chunkRaw    bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Show how a usage passage splits into example blocks",
	Long: `Extract the literal blocks of a usage passage and print the example blocks
they form. Reads standard input when no file is given.

Examples:
  pydocket chunk usage.rst
  pydocket chunk --raw script.txt     # input is already example code
  pydocket chunk --format json < usage.rst`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().StringVar(&chunkFormat, "format", "yaml", "Output format: yaml or json")
	chunkCmd.Flags().BoolVar(&chunkRaw, "raw", false, "Treat the input as example code instead of a passage")
	rootCmd.AddCommand(chunkCmd)
}

type chunkBlock struct {
	Code  string  `yaml:"code" json:"code"`
	Value *string `yaml:"value,omitempty" json:"value,omitempty"`
}

func runChunk(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		in = f
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	code := string(data)
	if !chunkRaw {
		code = example.Parse(code)
	}
	blocks := example.Chunk(code)

	out := make([]chunkBlock, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, chunkBlock{Code: b.Code, Value: b.Value})
	}
	logger.Debug("chunked passage", "blocks", len(out))
	return writeFormatted(cmd.OutOrStdout(), out, OutputFormat(chunkFormat))
}
