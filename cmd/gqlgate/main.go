package main

import (
	"os"

	"github.com/fanout-labs/gqlgate/cmd"
	"github.com/fanout-labs/gqlgate/cmd/credentials"
	"github.com/fanout-labs/gqlgate/cmd/migrate"
	"github.com/fanout-labs/gqlgate/cmd/run"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	rootCmd.AddCommand(run.NewRunCommand())
	rootCmd.AddCommand(migrate.NewMigrateCommand())
	rootCmd.AddCommand(credentials.NewCredentialsCommand())
	rootCmd.AddCommand(cmd.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
