package cmd

import (
	"github.com/spf13/cobra"

	"github.com/barysiuk/tcman/internal/core"
)

var updateCmd = &cobra.Command{
	Use:   "update [selector]",
	Short: "Update a toolchain to the newest release on its line",
	Long: `Replace an installed toolchain with the newest available version.

Without a selector the toolchain in use is updated. The selector decides
how far the update may go:

  tcman update 6.0               Newest 6.0.z patch release
  tcman update 6                 Newest 6.y.z release
  tcman update latest            Newest stable release
  tcman update main-snapshot     Newest main snapshot

If the old toolchain was active, or named by the pin file, the new one
takes its place. The old toolchain is then uninstalled.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}

		assumeYes, _ := cmd.Flags().GetBool("assume-yes")
		noVerify, _ := cmd.Flags().GetBool("no-verify")
		targetDir, err := resolveTargetDir(cmd)
		if err != nil {
			return err
		}

		_, err = d.orch.Update(cmd.Context(), selectorArg(args), core.UpdateOptions{
			AssumeYes: assumeYes,
			Verify:    !noVerify,
			Confirm:   confirmFunc(cmd),
			Dir:       targetDir,
		})
		return err
	},
}

func init() {
	updateCmd.Flags().BoolP("assume-yes", "y", false, "Do not ask for confirmation")
	updateCmd.Flags().Bool("no-verify", false, "Skip checksum and signature verification")
	rootCmd.AddCommand(updateCmd)
}
