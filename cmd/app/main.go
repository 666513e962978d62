// File: cmd/app/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"course-settlement/internal/config"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

type rootFlags struct {
	configPath string
	dev        bool
}

func (f *rootFlags) load() (*config.Config, error) {
	return config.LoadConfig(f.configPath, f.dev)
}

func main() {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "settlement",
		Short:         "Payment settlement and coupon engine for the course platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "config.yaml", "path to YAML config file")
	root.PersistentFlags().BoolVar(&flags.dev, "dev", false, "enable developer mode (console logs, no redaction)")

	root.AddCommand(
		newServeCmd(flags),
		newMigrateCmd(flags),
		newSeedCmd(flags),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
