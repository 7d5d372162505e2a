package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/warden-sh/warden/internal/interfaces/cli/migrate"
	"github.com/warden-sh/warden/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "warden",
		Short: "Warden - enforcement decision engine for AI tool calls",
		Long:  `Warden evaluates tool-call access requests against allowlists, time rules, emergency overrides, PIN-gated overrides, and policy engines, with a full audit trail.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
