package queue

import "fmt"

// Task represents one extraction iteration to run: which run it
// belongs to, its index within the run and the seed its sampling
// draw must use. Workers pulling a task are expected to hold the
// run's dataset and oracle themselves: the task only schedules.
type Task struct {
	// The identifier of the extraction run the iteration
	// belongs to.
	RunID string
	// The index of the iteration within the run.
	Iteration int
	// The seed for the iteration's bootstrap sampling draw.
	Seed int64
}

// ID returns a string that identifies the task within and across
// runs.
func (t *Task) ID() string {
	return fmt.Sprintf("%s:%d", t.RunID, t.Iteration)
}

func (t *Task) String() string {
	return fmt.Sprintf("{Task %s}", t.ID())
}
