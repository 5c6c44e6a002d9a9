package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	adminv1 "github.com/Lorenzzoczn/Aumigo/api/admin/v1"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administer identities (admin or master token required)",
	}
	cmd.AddCommand(usersListCmd(), usersRoleCmd(), usersDeactivateCmd())
	return cmd
}

func usersListCmd() *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active identities, newest first",
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

			resp, err := c.admin.ListUsers(ctx, &adminv1.ListUsersRequest{Page: page, Limit: limit})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tTYPE")
			for _, u := range resp.Users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role, u.AccountType)
			}
			fmt.Fprintf(w, "page %d of %d (%d total)\n", resp.Page, resp.Pages, resp.Total)
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number, from 1")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size, 1..100")
	return cmd
}

func usersRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "role [user-id] [user|admin|master]",
		Short:     "Change an identity's role (master token required)",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"user", "admin", "master"},
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

			resp, err := c.admin.ChangeRole(ctx, &adminv1.ChangeRoleRequest{UserID: args[0], Role: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", resp.User.Email, resp.User.Role)
			return nil
		},
	}
}

func usersDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate [user-id]",
		Short: "Deactivate an identity",
		Args:  cobra.ExactArgs(1),
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

			resp, err := c.admin.DeactivateUser(ctx, &adminv1.DeactivateUserRequest{UserID: args[0]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deactivated\n", resp.User.Email)
			return nil
		},
	}
}
