package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hatchery-inc/hatchery/internal/interfaces/cli/migrate"
	"github.com/hatchery-inc/hatchery/internal/interfaces/cli/monitor"
	"github.com/hatchery-inc/hatchery/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hatchery",
		Short: "Hatchery - tenant instance provisioning",
		Long:  `Hatchery provisions tenant bot instances on the control plane after payment and tracks their deployments.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		monitor.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
