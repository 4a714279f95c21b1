package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/barysiuk/tcman/internal/core"
)

var listCmd = &cobra.Command{
	Use:   "list [selector]",
	Short: "List installed toolchains",
	Long: `List installed toolchains, stable releases first, then snapshots.

The active toolchain and the one named by the nearest pin file are marked.`,
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

		entries, err := d.orch.List(selectorArg(args), targetDir)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			if len(args) > 0 {
				fmt.Fprintf(os.Stdout, "No installed toolchains match %q\n", args[0])
			} else {
				fmt.Fprintln(os.Stdout, "No toolchains installed.")
			}
			return nil
		}

		var stable, snapshots []core.ListEntry
		for _, e := range entries {
			if e.Version.IsStable() {
				stable = append(stable, e)
			} else {
				snapshots = append(snapshots, e)
			}
		}
		printSection("Installed stable toolchains", stable)
		if len(stable) > 0 && len(snapshots) > 0 {
			fmt.Fprintln(os.Stdout)
		}
		printSection("Installed snapshot toolchains", snapshots)
		return nil
	},
}

func printSection(title string, entries []core.ListEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(os.Stdout, sectionHeaderStyle.Render(title))
	for _, e := range entries {
		name := e.Version.String()
		marker := "  "
		if e.Active {
			marker = "* "
			name = activeStyle.Render(name)
		}
		line := marker + name
		if e.Active {
			line += mutedStyle.Render(" (active)")
		}
		if e.Pinned {
			line += mutedStyle.Render(" (pinned)")
		}
		fmt.Fprintln(os.Stdout, line)
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
