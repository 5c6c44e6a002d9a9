package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	accountv1 "github.com/Lorenzzoczn/Aumigo/api/account/v1"
)

func loginCmd() *cobra.Command {
	var email, password string
	var quiet bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password and print the bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.conn.Close()
			ctx, cancel := callContext(cmd)
			defer cancel()

			resp, err := c.account.Login(ctx, &accountv1.LoginRequest{Email: email, Password: password})
			if err != nil {
				return err
			}
			if quiet {
				fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
				return nil
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the token")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
