package providers

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket refilled continuously at requestsPerMinute.
// The bucket starts full, so short bursts up to the per-minute limit go
// through without waiting.
type RateLimiter struct {
	mu sync.Mutex

	perMinute  int
	tokens     float64
	lastUpdate time.Time

	totalConsumed int64
	totalWaited   time.Duration
}

// RateLimiterStatus reports current limiter state.
type RateLimiterStatus struct {
	TokensAvailable int           `json:"tokens_available"`
	TokensLimit     int           `json:"tokens_limit"`
	TotalConsumed   int64         `json:"total_consumed"`
	TotalWaited     time.Duration `json:"total_waited"`
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &RateLimiter{
		perMinute:  requestsPerMinute,
		tokens:     float64(requestsPerMinute),
		lastUpdate: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refill()
		if r.tokens >= 1 {
			r.tokens--
			r.totalConsumed++
			r.mu.Unlock()
			return nil
		}
		wait := r.untilNextToken()
		r.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			r.mu.Lock()
			r.totalWaited += wait
			r.mu.Unlock()
		}
	}
}

// TryConsume takes a token without blocking and reports whether it got one.
func (r *RateLimiter) TryConsume() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	if r.tokens >= 1 {
		r.tokens--
		r.totalConsumed++
		return true
	}
	return false
}

// Status returns current limiter status.
func (r *RateLimiter) Status() RateLimiterStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return RateLimiterStatus{
		TokensAvailable: int(r.tokens),
		TokensLimit:     r.perMinute,
		TotalConsumed:   r.totalConsumed,
		TotalWaited:     r.totalWaited,
	}
}

// refill must be called with the lock held.
func (r *RateLimiter) refill() {
	now := time.Now()
	r.tokens += now.Sub(r.lastUpdate).Minutes() * float64(r.perMinute)
	r.lastUpdate = now
	if limit := float64(r.perMinute); r.tokens > limit {
		r.tokens = limit
	}
}

// untilNextToken must be called with the lock held.
func (r *RateLimiter) untilNextToken() time.Duration {
	missing := 1 - r.tokens
	return time.Duration(missing / float64(r.perMinute) * float64(time.Minute))
}

// RateLimitedClient gates an LLMClient behind a RateLimiter.
type RateLimitedClient struct {
	LLMClient
	limiter *RateLimiter
}

// NewRateLimitedClient wraps client so that at most requestsPerMinute calls
// start per minute.
func NewRateLimitedClient(client LLMClient, requestsPerMinute int) *RateLimitedClient {
	return &RateLimitedClient{LLMClient: client, limiter: NewRateLimiter(requestsPerMinute)}
}

// Chat waits for a token, then delegates. A cancelled wait is a transport failure.
func (c *RateLimitedClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Provider: c.Name(), Err: err}
	}
	return c.LLMClient.Chat(ctx, req)
}

// Limiter exposes the underlying limiter for status reporting.
func (c *RateLimitedClient) Limiter() *RateLimiter {
	return c.limiter
}
