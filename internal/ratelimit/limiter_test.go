package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingBucket struct{}

func (failingBucket) Allow(context.Context, string, float64, int) (*RateLimitResult, error) {
	return nil, errors.New("connection refused")
}

func TestNewLimiterDisabled(t *testing.T) {
	l, err := NewLimiter(Params{Cfg: config.Config{}, Log: zap.NewNop()})
	require.NoError(t, err)
	assert.Nil(t, l)
	assert.False(t, l.Enabled())

	res, err := l.Allow(context.Background(), "user.token", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestNewLimiterRejectsBadConfig(t *testing.T) {
	_, err := NewLimiter(Params{
		Cfg: config.Config{RateLimit: config.RateLimitConfig{Enabled: true, TokenBurst: 1}},
		Log: zap.NewNop(),
	})
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestLimiterSeparatesClients(t *testing.T) {
	l, err := NewLimiter(Params{
		Cfg:     config.Config{RateLimit: config.RateLimitConfig{Enabled: true, TokenRate: 0.1, TokenBurst: 1}},
		Log:     zap.NewNop(),
		Clock:   clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		Metrics: metrics.NewNoop(),
	})
	require.NoError(t, err)
	ctx := context.Background()

	res, err := l.Allow(ctx, "user.token", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.Allow(ctx, "user.token", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 10*time.Second, res.RetryAfter)

	res, err = l.Allow(ctx, "user.token", "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLimiterFailsOpen(t *testing.T) {
	l := newLimiter(failingBucket{}, 1, 1, zap.NewNop(), nil)
	res, err := l.Allow(context.Background(), "user.token", "10.0.0.1")
	assert.Error(t, err)
	assert.True(t, res.Allowed)
}
