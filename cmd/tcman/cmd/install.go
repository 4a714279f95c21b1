package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/barysiuk/tcman/internal/core"
)

var installCmd = &cobra.Command{
	Use:   "install <selector>",
	Short: "Install a toolchain",
	Long: `Install the newest available toolchain matching the selector.

Examples:
  tcman install 6.0.1            An exact release
  tcman install 6                The newest 6.x.y release
  tcman install latest           The newest stable release
  tcman install main-snapshot    The newest snapshot of main

The archive's checksum and, when gpg is available, its signature are
verified before extraction unless --no-verify is given. The installed
toolchain only becomes active with --use.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}

		use, _ := cmd.Flags().GetBool("use")
		noVerify, _ := cmd.Flags().GetBool("no-verify")
		targetDir, err := resolveTargetDir(cmd)
		if err != nil {
			return err
		}

		result, err := d.orch.Install(cmd.Context(), args[0], core.InstallOptions{
			Verify: !noVerify,
			Use:    use,
			Dir:    targetDir,
		})
		if err != nil {
			return err
		}
		if result.Use != nil {
			printUseResult(result.Use)
		}
		if result.Path != "" {
			d.log.Debug("install path", "path", result.Path)
			fmt.Fprintf(os.Stdout, "  Location: %s\n", result.Path)
		}
		return nil
	},
}

func init() {
	installCmd.Flags().Bool("use", false, "Make the installed toolchain active")
	installCmd.Flags().Bool("no-verify", false, "Skip checksum and signature verification")
	rootCmd.AddCommand(installCmd)
}
