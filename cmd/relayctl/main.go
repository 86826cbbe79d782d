package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"geladeira/api/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "relayctl",
		Short: "Operator tool for the geladeira payment relay",
		Long: `relayctl manages the payment relay from the command line.

It reads the same environment (and optional .env file) as the API server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newHashPasswordCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newUnlockCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newTailCmd())
	return root
}

func main() {
	config.LoadEnvFile()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
