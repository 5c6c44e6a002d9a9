// Package commands implements the aumigoctl command tree.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	accountv1 "github.com/Lorenzzoczn/Aumigo/api/account/v1"
	adminv1 "github.com/Lorenzzoczn/Aumigo/api/admin/v1"
)

var (
	addr    string
	token   string
	timeout time.Duration
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "aumigoctl",
		Short:        "Command-line client for the Aumigo account and admin services",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", envOr("AUMIGO_ADDR", "localhost:8080"), "gRPC server address")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("AUMIGO_TOKEN"), "bearer token (or set AUMIGO_TOKEN)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "per-call timeout")

	root.AddCommand(documentCmd(), loginCmd(), meCmd(), profileCmd(), usersCmd(), bootstrapCmd(), keysCmd())
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// clients dials addr and returns both service clients. The caller closes the connection.
type clients struct {
	conn    *grpc.ClientConn
	account accountv1.AccountServiceClient
	admin   adminv1.AdminServiceClient
}

func dial() (*clients, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &clients{
		conn:    conn,
		account: accountv1.NewAccountServiceClient(conn),
		admin:   adminv1.NewAdminServiceClient(conn),
	}, nil
}

// callContext returns a context bounded by --timeout carrying the bearer token, if any.
func callContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}
	return ctx, cancel
}

func requireToken() error {
	if token == "" {
		return fmt.Errorf("a bearer token is required: pass --token or set AUMIGO_TOKEN")
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
