// Package ratelimit bounds authentication attempts from a remote address
// at the relay entry (§5 "Rate limiting"), backed by Redis in multi-process deployments and falling back to an
// in-memory store for single-process/dev use.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/corsairlabs/meetcore/internal/logging"
	"github.com/corsairlabs/meetcore/internal/metrics"
)

// HandshakeLimiter bounds websocket handshake attempts per remote address.
type HandshakeLimiter struct {
	limiter *limiter.Limiter
}

// NewHandshakeLimiter builds a HandshakeLimiter from a formatted rate
// (ulule/limiter syntax, e.g. "5-M" for 5 per minute). The default rate,
// set in config as AUTH_RATE_LIMIT, is "5-M": five attempts per minute per
// remote address. redisClient may be nil, in which case an in-memory
// store is used.
func NewHandshakeLimiter(formattedRate string, redisClient *redis.Client) (*HandshakeLimiter, error) {
	rate, err := limiter.NewRateFromFormatted(formattedRate)
	if err != nil {
		return nil, err
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = sredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{
			Prefix:   "meetcore:ratelimit:handshake",
			MaxRetry: 3,
		})
		if err != nil {
			return nil, err
		}
	} else {
		store = memory.NewStore()
	}

	return &HandshakeLimiter{limiter: limiter.New(store, rate)}, nil
}

// Allow implements signaling.HandshakeLimiter.
func (l *HandshakeLimiter) Allow(remoteAddr string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	metrics.RateLimitRequests.WithLabelValues("ws_handshake").Inc()

	context_, err := l.limiter.Get(ctx, remoteAddr)
	if err != nil {
		logging.Warn(ctx, "rate limiter store unavailable, allowing request")
		return true // degrade open: a store outage must never lock out all users
	}
	if context_.Reached {
		metrics.RateLimitExceeded.WithLabelValues("ws_handshake").Inc()
		return false
	}
	return true
}
