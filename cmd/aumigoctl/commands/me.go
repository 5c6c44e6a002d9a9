package commands

import (
	"github.com/spf13/cobra"

	accountv1 "github.com/Lorenzzoczn/Aumigo/api/account/v1"
)

func meCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the identity behind the bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireToken(); err != nil {
				return err
			}
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.conn.Close()
			ctx, cancel := callContext(cmd)
			defer cancel()

			resp, err := c.account.Me(ctx, &accountv1.MeRequest{})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Identity)
		},
	}
}
