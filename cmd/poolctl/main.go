package main

import (
	"os"

	"github.com/tbessa/game-wager-platform-poc/cmd/poolctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
