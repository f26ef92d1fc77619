package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/graftml/graft"
	"github.com/graftml/graft/learner"
	"github.com/spf13/cobra"
)

type ablateCmdConfig struct {
	dataCmdConfig
	oracleInput    string
	output         string
	rounds         int
	trainFraction  float64
	iterations     int
	sampleFraction float64
	maxDepth       int
	maxLeaves      int
	minSamplesLeaf int
	seed           int64
	workers        int
}

func ablateCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &ablateCmdConfig{dataCmdConfig: dataCmdConfig{rootCmdConfig: rootConfig}}
	cmd := &cobra.Command{
		Use:   "ablate",
		Short: "Measure an opaque model's stability under feature ablation",
		Long:  `Repeatedly extract a surrogate from an opaque model, remove the feature the surrogate relies on most and extract again, reporting how the model's performance and the surrogate's fidelity degrade as features disappear.`,
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
			oracle, err := buildOracle(config.oracleInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			rng := rand.New(rand.NewSource(config.seed))
			train, test, err := ds.Split(rng, config.trainFraction)
			if err != nil {
				fmt.Fprintf(os.Stderr, "splitting dataset: %v\n", err)
				os.Exit(5)
			}
			config.Logf("Running up to %d ablation rounds over %d train and %d test samples...", config.rounds, train.Count(), test.Count())
			analyzer := &graft.Analyzer{
				Engine: &graft.Engine{Logger: config.Logf},
				Logger: config.Logf,
			}
			records, err := analyzer.Run(ctx, train, test, oracle, config.rounds, graft.Config{
				NumIterations:  config.iterations,
				SampleFraction: config.sampleFraction,
				Constraints: learner.Constraints{
					MaxDepth:       config.maxDepth,
					MaxLeafNodes:   config.maxLeaves,
					MinSamplesLeaf: config.minSamplesLeaf,
				},
				Seed:    config.seed,
				Workers: config.workers,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "running ablation: %v\n", err)
				os.Exit(6)
			}
			config.Logf("Done after %d rounds", len(records))
			err = outputRecords(config.output, records)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(7)
			}
		},
	}
	config.declareFlags(cmd)
	cmd.Flags().StringVarP(&(config.oracleInput), "oracle", "O", "", "path to a JSON file with the opaque model's own decision tree to imitate (defaults to imitating the dataset labels)")
	cmd.Flags().StringVarP(&(config.output), "output", "o", "", "path to a file to which the ablation records will be written in JSON format (defaults to STDOUT)")
	cmd.Flags().IntVarP(&(config.rounds), "rounds", "r", 5, "maximum number of ablation rounds to run")
	cmd.Flags().Float64Var(&(config.trainFraction), "train-fraction", 0.7, "fraction of the dataset reserved for extraction, with the rest used for scoring")
	cmd.Flags().IntVarP(&(config.iterations), "iterations", "n", 50, "number of extraction iterations per round")
	cmd.Flags().Float64VarP(&(config.sampleFraction), "sample-fraction", "f", 0.5, "fraction of the train set each iteration trains its candidate on")
	cmd.Flags().IntVar(&(config.maxDepth), "max-depth", 0, "maximum depth allowed for candidate trees (defaults to 0: no limit)")
	cmd.Flags().IntVar(&(config.maxLeaves), "max-leaves", 0, "maximum number of leaves allowed for candidate trees (defaults to 0: no limit)")
	cmd.Flags().IntVar(&(config.minSamplesLeaf), "min-samples-leaf", 1, "minimum number of samples a candidate tree leaf must hold")
	cmd.Flags().Int64VarP(&(config.seed), "seed", "s", 0, "base seed for splitting and sampling")
	cmd.Flags().IntVarP(&(config.workers), "workers", "w", 1, "number of goroutines working iterations off the queue")
	return cmd
}

func (acc *ablateCmdConfig) Validate() error {
	err := acc.dataCmdConfig.Validate()
	if err != nil {
		return err
	}
	if acc.rounds < 1 {
		return fmt.Errorf("rounds flag must be at least 1")
	}
	if acc.trainFraction <= 0 || acc.trainFraction >= 1 {
		return fmt.Errorf("train-fraction flag must be in (0, 1)")
	}
	if acc.iterations < 1 {
		return fmt.Errorf("iterations flag must be at least 1")
	}
	if acc.sampleFraction <= 0 || acc.sampleFraction > 1 {
		return fmt.Errorf("sample-fraction flag must be in (0, 1]")
	}
	return nil
}

func outputRecords(outputPath string, records []graft.AblationRecord) error {
	var f *os.File
	var err error
	if outputPath == "" {
		f = os.Stdout
	} else {
		f, err = os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
