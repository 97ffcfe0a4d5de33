package jobs

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(size int) *Dispatcher {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewDispatcher(log, size)
}

func TestEnqueueDeduplicatesByKey(t *testing.T) {
	d := newTestDispatcher(8)

	require.NoError(t, d.Enqueue(ClaimBattlepassJob("p1")))
	// duplicate key is absorbed silently, not an error
	require.NoError(t, d.Enqueue(ClaimBattlepassJob("p1")))
	assert.Equal(t, 1, d.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	job, ok := d.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, "claimBattlepass-p1", job.IdempotencyKey)

	// key is still held until the job is consumed
	require.NoError(t, d.Enqueue(ClaimBattlepassJob("p1")))
	assert.Equal(t, 1, d.Pending())

	d.Done(job.IdempotencyKey)
	assert.Equal(t, 0, d.Pending())
	require.NoError(t, d.Enqueue(ClaimBattlepassJob("p1")))
	assert.Equal(t, 1, d.Pending())
}

func TestQueueIsFIFO(t *testing.T) {
	d := newTestDispatcher(8)

	require.NoError(t, d.Enqueue(ClaimBattlepassJob("p1")))
	require.NoError(t, d.Enqueue(SyncPointsJob("chain-1", "bp-1", "alice")))
	require.NoError(t, d.Enqueue(ClaimRewardJob("c1")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	want := []Type{TypeClaimBattlepass, TypeSyncPoints, TypeClaimReward}
	for _, typ := range want {
		job, ok := d.Next(ctx)
		require.True(t, ok)
		assert.Equal(t, typ, job.Type)
		d.Done(job.IdempotencyKey)
	}
}

func TestNextStopsOnCancel(t *testing.T) {
	d := newTestDispatcher(8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := d.Next(ctx)
	assert.False(t, ok)
}

func TestFullQueueReleasesKey(t *testing.T) {
	d := newTestDispatcher(1)

	require.NoError(t, d.Enqueue(ClaimBattlepassJob("p1")))
	// queue full: rejected with the sentinel, but the key must not
	// stay stuck
	assert.ErrorIs(t, d.Enqueue(ClaimBattlepassJob("p2")), ErrQueueFull)
	assert.Equal(t, 1, d.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	job, ok := d.Next(ctx)
	require.True(t, ok)
	d.Done(job.IdempotencyKey)

	require.NoError(t, d.Enqueue(ClaimBattlepassJob("p2")))
}

func TestIdempotencyKeysAreDeterministic(t *testing.T) {
	assert.Equal(t, "claimBattlepass-p1", ClaimBattlepassJob("p1").IdempotencyKey)
	assert.Equal(t, "points-chain-9-alice", SyncPointsJob("chain-9", "bp-9", "alice").IdempotencyKey)
	assert.Equal(t, "claimReward-c7", ClaimRewardJob("c7").IdempotencyKey)
	assert.Equal(t, "createReward-r3", CreateRewardJob("r3").IdempotencyKey)
	assert.Equal(t, "createLevels-bp-2", CreateLevelsJob("bp-2").IdempotencyKey)
}
