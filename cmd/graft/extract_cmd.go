package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/graftml/graft"
	"github.com/graftml/graft/learner"
	"github.com/graftml/graft/queue"
	qjson "github.com/graftml/graft/queue/json"
	"github.com/graftml/graft/queue/redisq"
	"github.com/graftml/graft/redisresults"
	"github.com/spf13/cobra"
	redis "gopkg.in/redis.v5"
)

type extractCmdConfig struct {
	dataCmdConfig
	oracleInput    string
	output         string
	iterations     int
	sampleFraction float64
	maxDepth       int
	maxLeaves      int
	minSamplesLeaf int
	seed           int64
	workers        int
	redisURL       string
	runID          string
	taskMaxRun     time.Duration
	join           bool
}

func extractCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &extractCmdConfig{dataCmdConfig: dataCmdConfig{rootCmdConfig: rootConfig}}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract a decision-tree surrogate from an opaque model",
		Long:  `Extract a decision tree that imitates an opaque model: repeatedly sample the input data, label it with the model, fit a candidate tree and keep the candidate most faithful to the model.`,
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
			engine := &graft.Engine{Logger: config.Logf}
			cfg := config.extractionConfig()
			if config.redisURL != "" {
				q, results, err := config.redisBackends()
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(5)
				}
				defer q.Stop(ctx)
				engine.Queue = q
				engine.Results = results
				if config.join {
					config.Logf("Joining extraction run %s...", cfg.RunID)
					err := engine.Work(ctx, q, results, ds, oracle, cfg)
					if err != nil {
						fmt.Fprintln(os.Stderr, err)
						os.Exit(6)
					}
					return
				}
			}
			config.Logf("Extracting surrogate from a dataset with %d samples and %d features to predict %s ...", ds.Count(), ds.NumFeatures(), label.Name())
			history, err := engine.Fit(ctx, ds, oracle, cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "extracting surrogate: %v\n", err)
				os.Exit(7)
			}
			best, err := graft.Explain(history)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(8)
			}
			config.Logf("Done")
			config.Logf("Best candidate from iteration %d with fidelity %.4f: %s", best.Iteration, best.Reward, graft.VerdictOf(best.Reward))
			err = outputTree(config.output, best.Tree)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(9)
			}
		},
	}
	config.declareFlags(cmd)
	cmd.PersistentFlags().StringVarP(&(config.oracleInput), "oracle", "O", "", "path to a JSON file with the opaque model's own decision tree to imitate (defaults to imitating the dataset labels)")
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a file to which the extracted tree will be written in JSON format (defaults to STDOUT)")
	cmd.PersistentFlags().IntVarP(&(config.iterations), "iterations", "n", 50, "number of extraction iterations to run")
	cmd.PersistentFlags().Float64VarP(&(config.sampleFraction), "sample-fraction", "f", 0.5, "fraction of the dataset each iteration trains its candidate on")
	cmd.PersistentFlags().IntVar(&(config.maxDepth), "max-depth", 0, "maximum depth allowed for candidate trees (defaults to 0: no limit)")
	cmd.PersistentFlags().IntVar(&(config.maxLeaves), "max-leaves", 0, "maximum number of leaves allowed for candidate trees (defaults to 0: no limit)")
	cmd.PersistentFlags().IntVar(&(config.minSamplesLeaf), "min-samples-leaf", 1, "minimum number of samples a candidate tree leaf must hold")
	cmd.PersistentFlags().Int64VarP(&(config.seed), "seed", "s", 0, "base seed for the run's sampling")
	cmd.PersistentFlags().IntVarP(&(config.workers), "workers", "w", 1, "number of goroutines working iterations off the queue")
	cmd.PersistentFlags().StringVar(&(config.redisURL), "redis", "", "redis connection URL to distribute the run's iterations through (defaults to running in-process)")
	cmd.PersistentFlags().StringVar(&(config.runID), "run-id", "", "identifier for the run on the redis backends (defaults to a random one)")
	cmd.PersistentFlags().DurationVar(&(config.taskMaxRun), "task-max-run", 5*time.Minute, "time after which an iteration claimed by a dead worker is requeued on redis runs")
	cmd.PersistentFlags().BoolVar(&(config.join), "join", false, "join an extraction run driven elsewhere instead of starting one, working its iterations off the redis queue")
	return cmd
}

func (ecc *extractCmdConfig) Validate() error {
	err := ecc.dataCmdConfig.Validate()
	if err != nil {
		return err
	}
	if ecc.iterations < 1 {
		return fmt.Errorf("iterations flag must be at least 1")
	}
	if ecc.sampleFraction <= 0 || ecc.sampleFraction > 1 {
		return fmt.Errorf("sample-fraction flag must be in (0, 1]")
	}
	if ecc.join && ecc.redisURL == "" {
		return fmt.Errorf("join flag requires the redis flag")
	}
	if ecc.join && ecc.runID == "" {
		return fmt.Errorf("join flag requires the run-id flag")
	}
	return nil
}

func (ecc *extractCmdConfig) extractionConfig() graft.Config {
	if ecc.runID == "" {
		ecc.runID = queue.RandomRunID()
		ecc.Logf("Using run id %s", ecc.runID)
	}
	return graft.Config{
		NumIterations:  ecc.iterations,
		SampleFraction: ecc.sampleFraction,
		Constraints: learner.Constraints{
			MaxDepth:       ecc.maxDepth,
			MaxLeafNodes:   ecc.maxLeaves,
			MinSamplesLeaf: ecc.minSamplesLeaf,
		},
		Seed:    ecc.seed,
		Workers: ecc.workers,
		RunID:   ecc.runID,
	}
}

func (ecc *extractCmdConfig) redisBackends() (queue.Queue, graft.ResultStore, error) {
	opts, err := redis.ParseURL(ecc.redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis URL: %v", err)
	}
	rc := redis.NewClient(opts)
	q := redisq.New(ecc.runID, rc, ecc.taskMaxRun, 10*time.Second, qjson.New())
	results := redisresults.New(ecc.runID, rc, 0)
	return q, results, nil
}
