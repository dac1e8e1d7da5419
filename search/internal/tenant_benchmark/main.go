package main

import (
	"fmt"
	"os"

	"github.com/larose/sharedtext/search/config"
	"github.com/larose/sharedtext/search/logging"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cpuProfile string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tenant_benchmark",
		Short:         "Benchmark a shared text index over a synthetic multi-tenant corpus",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "", "Write a CPU profile to file")

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())

	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
