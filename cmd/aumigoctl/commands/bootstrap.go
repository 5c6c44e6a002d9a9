package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	accountv1 "github.com/Lorenzzoczn/Aumigo/api/account/v1"
)

func bootstrapCmd() *cobra.Command {
	var email, password, masterKey string
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create or promote the master account with the server's master key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if masterKey == "" {
				masterKey = os.Getenv("MASTER_KEY")
			}
			if masterKey == "" {
				return fmt.Errorf("a master key is required: pass --master-key or set MASTER_KEY")
			}
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.conn.Close()
			ctx, cancel := callContext(cmd)
			defer cancel()

			resp, err := c.account.MasterLogin(ctx, &accountv1.MasterLoginRequest{
				Email:     email,
				Password:  password,
				MasterKey: masterKey,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "master account email")
	cmd.Flags().StringVar(&password, "password", "", "master account password")
	cmd.Flags().StringVar(&masterKey, "master-key", "", "server master key (default $MASTER_KEY)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
