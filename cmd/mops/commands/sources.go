package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Print the --package flags of every installed dependency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := c.app.Sources(cmd.Context(), options(cmd))
			if err != nil {
				return err
			}
			for _, e := range entries {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), e.String())
			}
			return nil
		},
	}
}
