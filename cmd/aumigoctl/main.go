package main

import (
	"os"

	"github.com/Lorenzzoczn/Aumigo/cmd/aumigoctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
