package json_test

import (
	"context"
	"testing"

	"github.com/graftml/graft/queue"
	"github.com/graftml/graft/queue/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskCodecRoundTrip(t *testing.T) {
	ctx := context.Background()
	codec := json.New()
	task := &queue.Task{RunID: "run1", Iteration: 7, Seed: -3}
	data, err := codec.Encode(ctx, task)
	require.NoError(t, err)
	assert.JSONEq(t, `{"runId":"run1","iteration":7,"seed":-3}`, string(data))

	decoded, err := codec.Decode(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, task, decoded)
}

func TestTaskCodecRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	codec := json.New()
	_, err := codec.Encode(ctx, nil)
	assert.Error(t, err)
	_, err = codec.Decode(ctx, []byte("{broken"))
	assert.Error(t, err)
}
