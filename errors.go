package graft

import "fmt"

/*
ConfigError is the error returned for invalid extraction, pruning or
ablation parameters: a non-positive iteration count, an out-of-range
sample fraction, an invalid top-k. Configuration errors are surfaced
immediately and never retried.
*/
type ConfigError string

func (e ConfigError) Error() string {
	return string(e)
}

// ExtractionError represents an error produced by the extraction
// loop itself rather than by its collaborators.
type ExtractionError string

func (e ExtractionError) Error() string {
	return string(e)
}

/*
ErrNoCandidate is the error returned by Fit when no iteration
produced a usable candidate tree, and by Explain when given an empty
history.
*/
const ErrNoCandidate = ExtractionError("no extraction iteration produced a candidate tree")

/*
OracleError reports that the blackbox oracle failed during a predict
call on a given extraction iteration. The engine recovers from it
locally by skipping the iteration, unless no iteration succeeds.
*/
type OracleError struct {
	Iteration int
	Err       error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle prediction failed on iteration %d: %v", e.Iteration, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}
