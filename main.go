package main

import (
	"log/slog"
	"os"

	"github.com/USA-RedDragon/pinpoint-server/cmd"
)

//nolint:golint,gochecknoglobals
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	rootCmd := cmd.NewCommand(version, commit)
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command errored", "error", err.Error())
		os.Exit(1)
	}
}
