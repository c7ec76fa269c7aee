package cases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoninbas/stepmark/pkg/mark"
)

func TestLoops(t *testing.T) {
	testCases := []struct {
		op     mark.Operation
		count  interface{}
		expect int
	}{
		{op: whileLoop, count: 8, expect: 8},
		{op: forLoop, count: 8, expect: 8},
		{op: gotoLoop, count: 8, expect: 8},
		{op: whileLoop, count: "3", expect: 3},
		{op: appendLoop, count: int64(5), expect: 5},
		{op: sortInts, count: 4, expect: 4},
	}
	for _, tc := range testCases {
		result, err := tc.op(tc.count)
		require.NoError(t, err)
		assert.Equal(t, tc.expect, result)
	}
	_, err := forLoop()
	assert.Error(t, err)
	_, err = gotoLoop("eight")
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	r, err := mark.New(mark.Config{RunCount: 2, Steps: []string{"loop"}})
	require.NoError(t, err)
	for _, name := range []string{"while", "for", "goto"} {
		c, err := r.AddCase(name)
		require.NoError(t, err)
		require.NoError(t, Apply(c, name, map[string]interface{}{"count": 16}, r.Steps()))
	}

	store, err := r.Run(context.Background())
	require.NoError(t, err)
	for _, name := range []string{"while", "for", "goto"} {
		for _, s := range store.Samples(name, "loop") {
			assert.Equal(t, 16, s.Result)
		}
	}
}

func TestApplyMissingStep(t *testing.T) {
	r, err := mark.New(mark.Config{RunCount: 1, Steps: []string{"loop", "sort"}})
	require.NoError(t, err)
	c, err := r.AddCase("while")
	require.NoError(t, err)
	require.NoError(t, Apply(c, "while", nil, r.Steps()))
	assert.True(t, c.HasStep("loop"))
	assert.False(t, c.HasStep("sort"))
	assert.ErrorIs(t, r.ValidateSetup(), mark.ErrIncompleteBenchmark)
}

func TestApplyErrors(t *testing.T) {
	r, err := mark.New(mark.Config{Steps: []string{"loop"}})
	require.NoError(t, err)
	c, err := r.AddCase("x")
	require.NoError(t, err)
	assert.ErrorIs(t, Apply(c, "recursion", nil, r.Steps()), ErrUnknownPayload)
	assert.Error(t, Apply(c, "for", map[string]interface{}{"count": "many"}, r.Steps()))

	_, err = Steps("recursion")
	assert.ErrorIs(t, err, ErrUnknownPayload)
	steps, err := Steps("slice")
	require.NoError(t, err)
	assert.Equal(t, []string{"loop", "sort"}, steps)
	assert.Equal(t, []string{"for", "goto", "slice", "while"}, Names())
}
