package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// resolveTargetDir resolves the --dir flag or falls back to cwd.
func resolveTargetDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir != "" {
		return dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return cwd, nil
}

// selectorArg returns the optional selector argument.
func selectorArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
