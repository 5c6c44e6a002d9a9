package commands

import (
	"github.com/spf13/cobra"

	accountv1 "github.com/Lorenzzoczn/Aumigo/api/account/v1"
)

func profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <identity-id>",
		Short: "Show the public profile of an active identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.conn.Close()
			ctx, cancel := callContext(cmd)
			defer cancel()

			resp, err := c.account.GetPublicProfile(ctx, &accountv1.GetPublicProfileRequest{ID: args[0]})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Profile)
		},
	}
}
