package resolve

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticKeys(prefix string, n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s %03d", prefix, i)
	}
	return keys
}

func TestGreedy_ParallelMatchesSequential(t *testing.T) {
	a := syntheticKeys("ahmed yoosuf", 40)
	b := syntheticKeys("ahmed yousuf", parallelMinPool+50)

	seq, err := (&Greedy{Workers: 1}).Assign(context.Background(), a, b, 0.7)
	require.NoError(t, err)
	par, err := (&Greedy{Workers: 4}).Assign(context.Background(), a, b, 0.7)
	require.NoError(t, err)

	assert.Equal(t, seq, par)
	assert.Len(t, seq, len(a))
}

func TestGreedy_TieGoesToEarliestCandidate(t *testing.T) {
	pairs, err := (&Greedy{}).Assign(context.Background(),
		[]string{"abc"}, []string{"abd", "abe"}, 0.5)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "abd", pairs[0].B)
}

func TestGreedy_OnlyBestIsConsidered(t *testing.T) {
	// The best candidate is below threshold, so nothing is assigned even
	// though nothing better exists.
	pairs, err := (&Greedy{}).Assign(context.Background(),
		[]string{"abcdef"}, []string{"abcxyz"}, 0.9)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestGreedy_EmptyPool(t *testing.T) {
	pairs, err := (&Greedy{}).Assign(context.Background(), []string{"abc"}, nil, 0.1)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestBestFirst_GlobalOrder(t *testing.T) {
	// Greedy hands the only B key to the first A key that clears the
	// threshold; best-first hands it to the highest-scoring A key.
	a := []string{"ahmed yoosuf xyz", "ahmed yoosufa"}
	b := []string{"ahmed yoosuf"}

	greedy, err := (&Greedy{}).Assign(context.Background(), a, b, 0.7)
	require.NoError(t, err)
	require.Len(t, greedy, 1)
	assert.Equal(t, "ahmed yoosuf xyz", greedy[0].A)

	best, err := (&BestFirst{Workers: 2}).Assign(context.Background(), a, b, 0.7)
	require.NoError(t, err)
	require.Len(t, best, 1)
	assert.Equal(t, "ahmed yoosufa", best[0].A)
	assert.InDelta(t, 0.96, best[0].Score, 1e-9)
}

func TestBestFirst_RespectsThreshold(t *testing.T) {
	pairs, err := (&BestFirst{}).Assign(context.Background(), []string{"abc"}, []string{"xyz"}, 0.1)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestBestFirst_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&BestFirst{}).Assign(ctx, []string{"abc"}, []string{"abd"}, 0.1)
	require.Error(t, err)
}

func TestNewAssigner(t *testing.T) {
	a, err := NewAssigner("", 2)
	require.NoError(t, err)
	assert.IsType(t, &Greedy{}, a)

	a, err = NewAssigner(StrategyBestFirst, 2)
	require.NoError(t, err)
	assert.IsType(t, &BestFirst{}, a)

	_, err = NewAssigner("optimal", 2)
	assert.Error(t, err)
}
