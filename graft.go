/*
Package graft extracts decision-tree surrogates that imitate opaque
classification models.

An extraction run repeats an imitate-and-score iteration a number of
times: draw a random sample of the available data, ask the oracle
(the opaque model under study) to label it, fit a decision tree on
those labels and score how faithfully the tree reproduces the
oracle's behavior on held-out rows. Every iteration publishes its
candidate tree and reward to a result store; Explain picks the best
candidate from the run history.

Iterations are independent tasks distributed through a queue, so a
run can be served by one process with several worker goroutines or by
several collaborating processes sharing a redis-backed queue and
result store.
*/
package graft

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/graftml/graft/dataset"
	"github.com/graftml/graft/learner"
	"github.com/graftml/graft/queue"
)

/*
Config gathers the parameters of an extraction run.
*/
type Config struct {
	// NumIterations is the number of imitate-and-score iterations
	// the run performs. It must be at least 1.
	NumIterations int
	// SampleFraction is the fraction of the dataset each iteration
	// draws (without replacement) to train its candidate on. It
	// must be greater than 0 and no greater than 1. When it is 1
	// the candidate trains and scores on the full dataset.
	SampleFraction float64
	// Constraints bound the decision trees the learner may grow.
	Constraints learner.Constraints
	// Seed is the base seed for the run. Iteration i samples with
	// seed Seed+i, so a run's results depend only on its seed and
	// not on how iterations were scheduled among workers.
	Seed int64
	// Workers is the number of goroutines pulling iteration tasks
	// from the queue. Values below 1 are taken as 1.
	Workers int
	// RunID identifies the run on shared queues and result
	// stores. When empty a random one is generated.
	RunID string
}

/*
Engine runs extraction: it pushes one task per iteration to its
queue, works them off and collects the results on its result store.

A zero Learner defaults to the CART learner, a zero Queue to an
in-memory queue and a zero Results to an in-memory result store. Set
Queue and Results to redis-backed implementations to distribute a run
among several processes.
*/
type Engine struct {
	Learner learner.Learner
	Queue   queue.Queue
	Results ResultStore
	Logger  func(format string, a ...interface{})
}

const pullRetryDelay = 50 * time.Millisecond

/*
Fit runs a full extraction of the given oracle over the given dataset
and returns the run history, ordered by iteration index.

Iterations whose oracle calls fail are logged and skipped; they leave
no entry in the history. Fit returns ErrNoCandidate when no iteration
produced a candidate. When the context is cancelled mid-run, Fit
returns the partial history gathered so far if there is any,
otherwise the context's error.
*/
func (e *Engine) Fit(ctx context.Context, ds *dataset.Dataset, o Oracle, cfg Config) ([]Result, error) {
	if ds == nil || ds.Count() == 0 {
		return nil, ConfigError("cannot extract from an empty dataset")
	}
	if o == nil {
		return nil, ConfigError("cannot extract without an oracle")
	}
	if cfg.NumIterations < 1 {
		return nil, ConfigError(fmt.Sprintf("invalid number of iterations: %d", cfg.NumIterations))
	}
	if cfg.SampleFraction <= 0 || cfg.SampleFraction > 1 {
		return nil, ConfigError(fmt.Sprintf("invalid sample fraction: %g", cfg.SampleFraction))
	}
	l := e.Learner
	if l == nil {
		l = learner.NewCART()
	}
	q := e.Queue
	if q == nil {
		q = queue.New()
	}
	results := e.Results
	if results == nil {
		results = NewMemoryResultStore()
	}
	runID := cfg.RunID
	if runID == "" {
		runID = queue.RandomRunID()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < cfg.NumIterations; i++ {
		t := &queue.Task{RunID: runID, Iteration: i, Seed: cfg.Seed + int64(i)}
		err := q.Push(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("queueing iteration %d: %v", i, err)
		}
	}
	workErrs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			workErrs <- e.work(ctx, q, results, l, ds, o, cfg)
		}()
	}
	var runErr error
	for i := 0; i < workers; i++ {
		err := <-workErrs
		if err != nil && runErr == nil {
			runErr = err
		}
	}
	history, err := results.History(ctx)
	if err != nil {
		if runErr != nil {
			return nil, runErr
		}
		return nil, fmt.Errorf("retrieving run history: %v", err)
	}
	if runErr != nil && len(history) == 0 {
		return nil, runErr
	}
	if len(history) == 0 {
		return nil, ErrNoCandidate
	}
	return history, nil
}

/*
Work pulls iteration tasks for the given dataset and oracle from the
given queue until it is drained, publishing each iteration's result
to the given store. It lets a process join an extraction run driven
elsewhere, through a queue and store shared among processes.
*/
func (e *Engine) Work(ctx context.Context, q queue.Queue, results ResultStore, ds *dataset.Dataset, o Oracle, cfg Config) error {
	l := e.Learner
	if l == nil {
		l = learner.NewCART()
	}
	return e.work(ctx, q, results, l, ds, o, cfg)
}

func (e *Engine) work(ctx context.Context, q queue.Queue, results ResultStore, l learner.Learner, ds *dataset.Dataset, o Oracle, cfg Config) error {
	for {
		t, tctx, tcf, err := q.Pull(ctx)
		if err != nil {
			return fmt.Errorf("pulling iteration task: %v", err)
		}
		if t == nil {
			pending, running, err := q.Count(ctx)
			if err != nil {
				return fmt.Errorf("counting iteration tasks: %v", err)
			}
			if pending == 0 && running == 0 {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pullRetryDelay):
			}
			continue
		}
		err = e.iterate(tctx, results, l, ds, o, cfg, t)
		tcf()
		if err != nil {
			if ctx.Err() != nil {
				q.Drop(context.Background(), t.ID())
				return ctx.Err()
			}
			e.logf("iteration %d failed: %v", t.Iteration, err)
		}
		err = q.Complete(ctx, t.ID())
		if err != nil {
			return fmt.Errorf("completing iteration task %s: %v", t.ID(), err)
		}
	}
}

/*
iterate performs one imitate-and-score iteration: it samples the
dataset with the task's seed, labels the sample with the oracle, fits
a candidate tree on those labels and scores the candidate's fidelity
to the oracle on the held-out rest of the dataset.
*/
func (e *Engine) iterate(ctx context.Context, results ResultStore, l learner.Learner, ds *dataset.Dataset, o Oracle, cfg Config, t *queue.Task) error {
	rng := rand.New(rand.NewSource(t.Seed))
	sample, rest, err := ds.Sample(rng, cfg.SampleFraction)
	if err != nil {
		return fmt.Errorf("sampling dataset: %v", err)
	}
	yImitate, err := o.Predict(ctx, sample)
	if err != nil {
		return &OracleError{Iteration: t.Iteration, Err: err}
	}
	candidate, err := l.Fit(ctx, sample.X(), yImitate, ds.NumClasses(), cfg.Constraints)
	if err != nil {
		return fmt.Errorf("fitting candidate tree: %v", err)
	}
	holdout := rest
	if holdout.Count() == 0 {
		holdout = ds
	}
	yOracle, err := o.Predict(ctx, holdout)
	if err != nil {
		return &OracleError{Iteration: t.Iteration, Err: err}
	}
	yCandidate, err := candidate.PredictAll(holdout.X())
	if err != nil {
		return fmt.Errorf("scoring candidate tree: %v", err)
	}
	reward := MacroF1(yOracle, yCandidate, ds.NumClasses())
	e.logf("iteration %d: candidate with %d nodes, reward %.4f", t.Iteration, candidate.NodeCount(), reward)
	err = results.Put(ctx, Result{Tree: candidate, Reward: reward, Iteration: t.Iteration})
	if err != nil {
		return fmt.Errorf("publishing iteration result: %v", err)
	}
	return nil
}

func (e *Engine) logf(format string, a ...interface{}) {
	if e.Logger == nil {
		return
	}
	e.Logger(format, a...)
}
