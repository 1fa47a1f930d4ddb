package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"pydocket/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !stderrors.Is(err, errVerifyFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
			for _, fix := range errors.GetSuggestedFixes(errors.CodeOf(err)) {
				if fix.Command != "" {
					fmt.Fprintf(os.Stderr, "  try: %s  # %s\n", fix.Command, fix.Description)
				} else {
					fmt.Fprintf(os.Stderr, "  hint: %s\n", fix.Description)
				}
			}
		}
		os.Exit(1)
	}
}
