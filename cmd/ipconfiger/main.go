package main

import (
	"os"

	"github.com/ipconfiger/ipconfiger/cmd/ipconfiger/commands"
)

// Version is the current version of ipconfiger
// This must match the git tag when creating releases
const Version = "v0.3.0"

func main() {
	commands.SetVersion(Version)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
