package main

import (
	"os"

	"github.com/spf13/cobra"
)

type rootCmdConfig struct {
	verbose bool
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "graft",
		Short: "graft is a tool to extract decision-tree surrogates from opaque models",
		Long:  `A tool to extract decision trees that imitate opaque classification models, inspect and prune them, and measure how stable the models are under feature ablation`,
	}
	config := &rootCmdConfig{}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "")
	rootCmd.AddCommand(versionCmd(), extractCmd(config), reportCmd(config), ablateCmd(config), datasetCmd(config))
	return rootCmd
}
