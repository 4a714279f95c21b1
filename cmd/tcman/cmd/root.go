package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/barysiuk/tcman/internal/core/platform"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "tcman",
	Short: "Install, switch between and update compiler toolchains",
	Long: `tcman manages several versions of a compiler toolchain on one machine.

Versions are stable releases (6.0.1) or snapshots of a branch
(main-snapshot-2024-05-01, 6.0-snapshot-2024-04-30). One toolchain is
active globally; a .toolchain-version file pins a version for a directory
tree and takes precedence over the global choice.

Selectors accept partial versions: "6" and "6.0" name the newest matching
stable release, "main-snapshot" and "6.0-snapshot" the newest snapshot of a
branch, "latest" the newest stable release and "all" every installed
toolchain (uninstall only).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tcman %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug logs to stderr")
	rootCmd.PersistentFlags().StringP("dir", "d", "", "Directory to look up the pin file from (default: current directory)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	platform.UserAgent = "tcman/" + Version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
