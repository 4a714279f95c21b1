package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/barysiuk/tcman/internal/core"
)

var useCmd = &cobra.Command{
	Use:   "use [selector]",
	Short: "Switch the toolchain in use, or show it",
	Long: `Make an installed toolchain the one in use.

By default the global active toolchain is changed. --pin writes the
version to the nearest .toolchain-version file instead, creating one in
the current directory when none exists. Combine --pin with --global to
change both.

Without a selector, prints the toolchain in use and where the choice
comes from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		targetDir, err := resolveTargetDir(cmd)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			current, err := d.orch.Current(targetDir)
			if err != nil {
				return err
			}
			if current == nil {
				return &core.NotFoundError{}
			}
			printCurrent(current)
			return nil
		}

		global, _ := cmd.Flags().GetBool("global")
		pin, _ := cmd.Flags().GetBool("pin")
		result, err := d.orch.UseSelector(cmd.Context(), args[0], core.UseOptions{
			Global:   global,
			WritePin: pin,
			Dir:      targetDir,
		})
		if err != nil {
			return err
		}
		printUseResult(result)
		return nil
	},
}

func printCurrent(c *core.CurrentToolchain) {
	var origin string
	switch c.Source {
	case core.SourcePin:
		origin = "pinned in " + c.PinPath
	default:
		origin = "global default"
	}
	line := fmt.Sprintf("%s (%s)", activeStyle.Render(c.Version.String()), origin)
	if !c.Installed {
		line += " " + warningStyle.Render("not installed")
	}
	fmt.Fprintln(os.Stdout, line)
}

func printUseResult(r *core.UseResult) {
	if !r.GlobalChanged && !r.PinChanged {
		fmt.Fprintf(os.Stdout, "%s is already in use\n", r.Version)
		return
	}
	if r.GlobalChanged {
		if r.Previous != nil {
			fmt.Fprintf(os.Stdout, "Set the active toolchain to %s (was %s)\n", r.Version, *r.Previous)
		} else {
			fmt.Fprintf(os.Stdout, "Set the active toolchain to %s\n", r.Version)
		}
	}
	if r.PinChanged {
		fmt.Fprintf(os.Stdout, "Pinned %s in %s\n", r.Version, r.PinPath)
	}
}

func init() {
	useCmd.Flags().Bool("global", false, "Change the global active toolchain")
	useCmd.Flags().Bool("pin", false, "Write the version to the pin file")
	rootCmd.AddCommand(useCmd)
}
