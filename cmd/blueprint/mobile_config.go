package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func (c *cli) mobileConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mobile-config",
		Short: "Print the runtime configuration handed to the mobile client",
		Long: `Prints the resolved EXPO_PUBLIC_* settings as JSON, using the same
defaults the API serves from /api/config/mobile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(c.mobile)
		},
	}
}
