package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Validate the package and upload it to the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Publish(cmd.Context(), options(cmd))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Published %s@%s (%d files)\n", res.Name, res.Version, len(res.Files))
			return nil
		},
	}
}
