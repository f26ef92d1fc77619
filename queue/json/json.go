/*
Package json provides an encoder-decoder to serialize queue tasks as
JSON, so that they can be stored and shared through a redis-backed
queue.
*/
package json

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/graftml/graft/queue"
)

type taskCodec struct{}

type encodedTask struct {
	RunID     string `json:"runId"`
	Iteration int    `json:"iteration"`
	Seed      int64  `json:"seed"`
}

/*
New returns an encoder-decoder that serializes tasks as JSON
documents.
*/
func New() *taskCodec {
	return &taskCodec{}
}

func (tc *taskCodec) Encode(ctx context.Context, t *queue.Task) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("encoding task: nil task")
	}
	data, err := json.Marshal(&encodedTask{RunID: t.RunID, Iteration: t.Iteration, Seed: t.Seed})
	if err != nil {
		return nil, fmt.Errorf("encoding task %s: %v", t.ID(), err)
	}
	return data, nil
}

func (tc *taskCodec) Decode(ctx context.Context, data []byte) (*queue.Task, error) {
	et := &encodedTask{}
	err := json.Unmarshal(data, et)
	if err != nil {
		return nil, fmt.Errorf("decoding task: %v", err)
	}
	return &queue.Task{RunID: et.RunID, Iteration: et.Iteration, Seed: et.Seed}, nil
}
