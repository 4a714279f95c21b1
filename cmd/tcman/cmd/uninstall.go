package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/barysiuk/tcman/internal/core"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <selector>",
	Short: "Remove installed toolchains",
	Long: `Remove every installed toolchain matching the selector.

  tcman uninstall 6.0.1          One toolchain
  tcman uninstall 5              Every installed 5.x.y release
  tcman uninstall main-snapshot  Every installed main snapshot
  tcman uninstall all            Everything

When the active toolchain is removed, tcman switches to the newest
remaining toolchain on the same line (or the newest stable release)
before deleting its files. Pin files are left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}

		assumeYes, _ := cmd.Flags().GetBool("assume-yes")
		result, err := d.orch.Uninstall(cmd.Context(), args[0], core.UninstallOptions{
			AssumeYes: assumeYes,
			Confirm:   confirmFunc(cmd),
		})
		if result != nil && len(result.Targets) > 0 && !result.Aborted {
			fmt.Fprintf(os.Stdout, "\nUninstalled %d of %d toolchain(s).\n", len(result.Removed), len(result.Targets))
		}
		return err
	},
}

func init() {
	uninstallCmd.Flags().BoolP("assume-yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(uninstallCmd)
}
