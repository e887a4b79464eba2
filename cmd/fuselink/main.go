package main

import (
	"os"

	"fuselink/cmd/fuselink/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
