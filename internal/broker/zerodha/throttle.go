package zerodha

import (
	"context"
	"sync"
	"time"

	"strategy-pnl/internal/interfaces"
	"strategy-pnl/internal/types"
)

// RateLimiter implements token bucket rate limiting
type RateLimiter struct {
	tokens         int
	maxTokens      int
	refillRate     time.Duration
	lastRefillTime time.Time
	mu             sync.Mutex
}

// NewRateLimiter creates a new rate limiter
// maxTokens: maximum number of tokens in the bucket
// refillRate: how often to add a token (e.g., 333ms = 3 requests/second)
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:         maxTokens,
		maxTokens:      maxTokens,
		refillRate:     refillRate,
		lastRefillTime: time.Now(),
	}
}

// Wait waits until a token is available
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.tryAcquire() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// tryAcquire attempts to acquire a token
func (rl *RateLimiter) tryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if tokensToAdd := int(now.Sub(rl.lastRefillTime) / rl.refillRate); tokensToAdd > 0 {
		rl.tokens += tokensToAdd
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefillTime = now
	}

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

type throttledClient struct {
	client  interfaces.BrokerClient
	limiter *RateLimiter
}

var _ interfaces.BrokerClient = (*throttledClient)(nil)

// Throttle paces every call of client through limiter.
func Throttle(client interfaces.BrokerClient, limiter *RateLimiter) interfaces.BrokerClient {
	return &throttledClient{client: client, limiter: limiter}
}

func (tc *throttledClient) Trades(ctx context.Context) ([]types.RawRecord, error) {
	if err := tc.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return tc.client.Trades(ctx)
}

func (tc *throttledClient) Orders(ctx context.Context) ([]types.RawRecord, error) {
	if err := tc.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return tc.client.Orders(ctx)
}

func (tc *throttledClient) DayPositions(ctx context.Context) ([]types.RawRecord, error) {
	if err := tc.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return tc.client.DayPositions(ctx)
}

func (tc *throttledClient) Profile(ctx context.Context) (types.RawRecord, error) {
	if err := tc.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return tc.client.Profile(ctx)
}
