package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"
)

type datasetCmdConfig struct {
	dataCmdConfig
	output string
}

type splitCmdConfig struct {
	*datasetCmdConfig
	splitOutput   string
	splitFraction float64
	seed          int64
}

func datasetCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &datasetCmdConfig{dataCmdConfig: dataCmdConfig{rootCmdConfig: rootConfig}}
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage datasets of samples",
		Long:  `Copy datasets of samples between backends and split them into train and test sets. Inputs and outputs can be CSV files, SQLite3 files, or PostgreSQL and MongoDB databases.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			ctx := context.Background()
			features, label, err := config.features()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			ds, err := config.dataset(ctx, features, label)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			config.Logf("Copying %d samples...", ds.Count())
			err = writeDataset(ctx, config.rootCmdConfig, config.output, config.maxDBConns, ds)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			config.Logf("Done")
		},
	}
	config.declareFlags(cmd)
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "CSV (.csv) or SQLite3 (.db) file path, or PostgreSQL or MongoDB connection URL to dump samples to (defaults to STDOUT, as CSV)")
	cmd.AddCommand(splitCmd(config))
	return cmd
}

func splitCmd(datasetConfig *datasetCmdConfig) *cobra.Command {
	config := &splitCmdConfig{datasetCmdConfig: datasetConfig}
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a dataset in two",
		Long:  `Split a dataset into two random disjoint parts, such as a train and a test set.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			ctx := context.Background()
			features, label, err := config.features()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			ds, err := config.dataset(ctx, features, label)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			rng := rand.New(rand.NewSource(config.seed))
			out, splitOut, err := ds.Split(rng, 1-config.splitFraction)
			if err != nil {
				fmt.Fprintf(os.Stderr, "splitting dataset: %v\n", err)
				os.Exit(4)
			}
			config.Logf("Splitting %d samples into %d output and %d split output samples...", ds.Count(), out.Count(), splitOut.Count())
			err = writeDataset(ctx, config.rootCmdConfig, config.output, config.maxDBConns, out)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			err = writeDataset(ctx, config.rootCmdConfig, config.splitOutput, config.maxDBConns, splitOut)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(6)
			}
			config.Logf("Done")
		},
	}
	cmd.Flags().StringVar(&(config.splitOutput), "split-output", "", "CSV (.csv) or SQLite3 (.db) file path, or PostgreSQL or MongoDB connection URL to dump the split-away samples to (required)")
	cmd.Flags().Float64VarP(&(config.splitFraction), "split-fraction", "p", 0.3, "fraction of samples to split away")
	cmd.Flags().Int64VarP(&(config.seed), "seed", "s", 0, "seed for the random split")
	return cmd
}

func (scc *splitCmdConfig) Validate() error {
	err := scc.datasetCmdConfig.Validate()
	if err != nil {
		return err
	}
	if scc.splitOutput == "" {
		return fmt.Errorf("required split-output flag was not set")
	}
	if scc.splitFraction <= 0 || scc.splitFraction >= 1 {
		return fmt.Errorf("split-fraction flag must be in (0, 1)")
	}
	return nil
}
