package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <package>",
		Short: "Install a package and print its manifest entry",
		Long: `Install a package and print the line to add to mops.toml.

The package is a registry name (base, base@0.10.2), a GitHub URL
(https://github.com/org/repo#ref) or a local path (./libs/utils).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dep, err := c.app.Add(cmd.Context(), args[0], options(cmd))
			if err != nil {
				return err
			}

			section := "dependencies"
			if dev, _ := cmd.Flags().GetBool("dev"); dev {
				section = "dev-dependencies"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n%s = %q\n", section, dep.Name, dep.ManifestValue())
			return nil
		},
	}
	cmd.Flags().BoolP("dev", "D", false, "Print the entry for [dev-dependencies]")
	return cmd
}
