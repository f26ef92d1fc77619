package graft_test

import (
	"testing"

	"github.com/graftml/graft"
	"github.com/stretchr/testify/assert"
)

func TestVerdictOf(t *testing.T) {
	assert.Equal(t, graft.Trustworthy, graft.VerdictOf(1.0))
	assert.Equal(t, graft.Trustworthy, graft.VerdictOf(0.8))
	assert.Equal(t, graft.Inconclusive, graft.VerdictOf(0.79))
	assert.Equal(t, graft.Inconclusive, graft.VerdictOf(0.4))
	assert.Equal(t, graft.Untrustworthy, graft.VerdictOf(0.39))
	assert.Equal(t, graft.Untrustworthy, graft.VerdictOf(0))
}

func TestVerdictDisplay(t *testing.T) {
	assert.Equal(t, "TRUSTWORTHY", graft.Trustworthy.String())
	assert.Equal(t, "green", graft.Trustworthy.Color())
	assert.Equal(t, "INCONCLUSIVE", graft.Inconclusive.String())
	assert.Equal(t, "yellow", graft.Inconclusive.Color())
	assert.Equal(t, "UNTRUSTWORTHY", graft.Untrustworthy.String())
	assert.Equal(t, "red", graft.Untrustworthy.Color())
	assert.Equal(t, "UNKNOWN", graft.Verdict(0).String())
	assert.Equal(t, "", graft.Verdict(0).Color())
}
