package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBucketRefills(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	bucket := NewMemoryBucket(fake)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := bucket.Allow(ctx, "k", 1, 3)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
	}

	res, err := bucket.Allow(ctx, "k", 1, 3)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Second, res.RetryAfter)
	assert.Equal(t, 3, res.Limit)

	other, err := bucket.Allow(ctx, "other", 1, 3)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	fake.Advance(time.Second)
	res, err = bucket.Allow(ctx, "k", 1, 3)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestMemoryBucketValidation(t *testing.T) {
	bucket := NewMemoryBucket(nil)
	ctx := context.Background()

	_, err := bucket.Allow(ctx, "", 1, 1)
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, err = bucket.Allow(ctx, "k", 0, 1)
	assert.ErrorIs(t, err, ErrInvalidRate)
	_, err = bucket.Allow(ctx, "k", 1, 0)
	assert.ErrorIs(t, err, ErrInvalidBurst)
}

func TestMemoryBucketEvictsIdleKeys(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	bucket := NewMemoryBucket(fake)
	ctx := context.Background()

	_, err := bucket.Allow(ctx, "idle", 1, 1)
	require.NoError(t, err)
	fake.Advance(time.Minute)
	_, err = bucket.Allow(ctx, "fresh", 1, 1)
	require.NoError(t, err)

	assert.NotContains(t, bucket.buckets, "idle")
	assert.Contains(t, bucket.buckets, "fresh")
}
