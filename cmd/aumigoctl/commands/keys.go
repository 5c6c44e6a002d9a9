package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lorenzzoczn/Aumigo/internal/security"
)

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage token signing keys",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Print a new ES256 key pair as JWT_PRIVATE_KEY / JWT_PUBLIC_KEY PEM blocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, pub, err := security.GenerateKeyPair()
			if err != nil {
				return err
			}
			priv, err := security.EncodePrivateKeyPEM(signer)
			if err != nil {
				return err
			}
			pubPEM, err := security.EncodePublicKeyPEM(pub)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), priv, pubPEM)
			return nil
		},
	})
	return cmd
}
