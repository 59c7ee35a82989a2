package main

import (
	"os"

	"marketplace/cmd/marketctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
