package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeqStagesDoNotAlias(t *testing.T) {
	base := FromSlice([]int{5, 3, 1, 4, 2}).Where(func(v int) bool { return v != 4 })
	asc := base.OrderBy(func(a, b int) int { return a - b }, Ascending)
	desc := base.OrderBy(func(a, b int) int { return a - b }, Descending)

	got, err := asc.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 5}, got)

	got, err = desc.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{5, 3, 2, 1}, got)

	got, err = base.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{5, 3, 1, 2}, got)
}

func TestSeqOrderByDoesNotMutateSource(t *testing.T) {
	src := []int{3, 1, 2}
	_, err := FromSlice(src).OrderBy(func(a, b int) int { return a - b }, Ascending).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, src)
}

func TestSeqCollectDoesNotShareSourceArray(t *testing.T) {
	src := []int{1, 2, 3, 4}
	got, err := FromSlice(src).Skip(1).Take(2).Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, got)

	got[0] = 99
	assert.Equal(t, []int{1, 2, 3, 4}, src)
}

func TestSeqSkipTake(t *testing.T) {
	seq := FromSlice([]int{1, 2, 3, 4, 5})

	got, err := seq.Skip(2).Take(2).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, got)

	got, err = seq.Skip(10).Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = seq.Take(10).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)

	count, err := seq.Skip(1).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
