package graft_test

import (
	"testing"

	"github.com/graftml/graft"
	"github.com/stretchr/testify/assert"
)

func TestMacroF1(t *testing.T) {
	assert.Equal(t, 1.0, graft.MacroF1([]int{0, 1, 2, 1}, []int{0, 1, 2, 1}, 3))

	// class 0: F1 = 2*1/(2+1), class 1: F1 = 2*2/(2+3)
	got := graft.MacroF1([]int{0, 0, 1, 1}, []int{0, 1, 1, 1}, 2)
	assert.InDelta(t, (2.0/3.0+4.0/5.0)/2.0, got, 1e-9)

	// absent classes do not drag the average down
	assert.Equal(t, 1.0, graft.MacroF1([]int{0, 0}, []int{0, 0}, 5))

	// a class present only in the predictions still counts, with
	// zero F1
	got = graft.MacroF1([]int{0, 0}, []int{0, 1}, 2)
	assert.InDelta(t, (2.0/3.0+0.0)/2.0, got, 1e-9)

	assert.Equal(t, 0.0, graft.MacroF1(nil, nil, 2))
	assert.Equal(t, 0.0, graft.MacroF1([]int{0}, []int{0, 1}, 2))
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 1.0, graft.Accuracy([]int{1, 2}, []int{1, 2}))
	assert.Equal(t, 0.75, graft.Accuracy([]int{0, 0, 1, 1}, []int{0, 1, 1, 1}))
	assert.Equal(t, 0.0, graft.Accuracy(nil, nil))
	assert.Equal(t, 0.0, graft.Accuracy([]int{0}, []int{0, 1}))
}
