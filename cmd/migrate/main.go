// migrate runs DB migrations from embedded SQL: go run ./cmd/migrate [up|down|version].
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Lorenzzoczn/Aumigo/internal/config"
	"github.com/Lorenzzoczn/Aumigo/internal/db/migrate"
)

func main() {
	command := migrate.DirectionUp
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, migrate.ErrMissingDSN)
		os.Exit(1)
	}

	switch command {
	case migrate.DirectionUp, migrate.DirectionDown:
		if err := migrate.Run(cfg.DatabaseURL, command); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(1)
		}
	case "version":
		v, dirty, err := migrate.Version(cfg.DatabaseURL)
		if err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(1)
		}
		fmt.Printf("version %d (dirty=%t)\n", v, dirty)
	default:
		fmt.Fprintf(os.Stderr, "usage: migrate [up|down|version], got %q\n", command)
		os.Exit(2)
	}
}
