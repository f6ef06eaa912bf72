package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyEndpointClient = "storefront:ratelimit:%s:%s"

type Params struct {
	fx.In

	Lc      fx.Lifecycle `optional:"true"`
	Cfg     config.Config
	Log     *zap.Logger
	Clock   clock.Clock
	Metrics *metrics.Metrics `optional:"true"`
}

// Limiter throttles sensitive endpoints per client.
type Limiter struct {
	bucket  Bucket
	rate    float64
	burst   int
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewLimiter returns nil when rate limiting is disabled; a nil Limiter allows everything.
func NewLimiter(p Params) (*Limiter, error) {
	limitCfg := p.Cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if limitCfg.TokenRate <= 0 {
		return nil, ErrInvalidRate
	}
	if limitCfg.TokenBurst <= 0 {
		return nil, ErrInvalidBurst
	}

	log := p.Log.Named("ratelimit")
	var bucket Bucket
	if addr := strings.TrimSpace(limitCfg.RedisAddr); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: strings.TrimSpace(limitCfg.RedisPassword),
			DB:       limitCfg.RedisDB,
		})
		if p.Lc != nil {
			p.Lc.Append(fx.StopHook(client.Close))
		}
		bucket = NewTokenBucket(client)
		log.Info("using redis token bucket", zap.String("addr", addr))
	} else {
		bucket = NewMemoryBucket(p.Clock)
		log.Info("using in-memory token bucket")
	}

	return newLimiter(bucket, limitCfg.TokenRate, limitCfg.TokenBurst, log, p.Metrics), nil
}

func newLimiter(bucket Bucket, rate float64, burst int, log *zap.Logger, m *metrics.Metrics) *Limiter {
	return &Limiter{
		bucket:  bucket,
		rate:    rate,
		burst:   burst,
		log:     log,
		metrics: m,
	}
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow consumes one token for client on endpoint. Backend failures let the request through.
func (l *Limiter) Allow(ctx context.Context, endpoint, client string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyEndpointClient, strings.TrimSpace(endpoint), strings.TrimSpace(client))
	res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limiter unavailable", zap.String("endpoint", endpoint), zap.Error(err))
		return &RateLimitResult{Allowed: true, Limit: l.burst}, err
	}
	if !res.Allowed {
		l.metrics.RecordRateLimitDenied(ctx, endpoint, "exhausted")
		return res, nil
	}
	l.metrics.RecordRateLimitAllowed(ctx, endpoint)
	return res, nil
}
