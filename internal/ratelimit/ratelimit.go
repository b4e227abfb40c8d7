// Package ratelimit bounds how often a caller may hit the signed API. Counts
// live in a shared store (Redis) with an in-process fallback that takes over
// while the shared store is failing.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tollgate/pkg/platform/circuit"
)

// Class separates cheap reads from state-changing writes.
type Class string

const (
	ClassRead  Class = "read"
	ClassWrite Class = "write"
)

// Limit is the number of requests allowed per sliding window.
type Limit struct {
	Requests int
	Window   time.Duration
}

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
	// Degraded is set when the decision came from the fallback store.
	Degraded bool
}

// Store counts requests per key over a sliding window.
type Store interface {
	AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (*Result, error)
}

// Limiter applies per-class limits against a primary store. When a fallback
// is configured, a circuit breaker routes checks to it after repeated
// primary failures and back once the primary recovers.
type Limiter struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	limits   map[Class]Limit
	logger   *slog.Logger
	metrics  *Metrics
}

type Option func(*Limiter)

func WithFallback(store Store) Option {
	return func(l *Limiter) { l.fallback = store }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(l *Limiter) {
		if b != nil {
			l.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(l *Limiter) { l.metrics = m }
}

func New(primary Store, limits map[Class]Limit, opts ...Option) (*Limiter, error) {
	if primary == nil {
		return nil, fmt.Errorf("rate limit store is required")
	}
	for class, limit := range limits {
		if limit.Requests <= 0 || limit.Window <= 0 {
			return nil, fmt.Errorf("limit for %s must be positive", class)
		}
	}
	l := &Limiter{
		primary: primary,
		breaker: circuit.New("ratelimit"),
		limits:  limits,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Check consumes one request for key in the given class.
func (l *Limiter) Check(ctx context.Context, key string, class Class) (*Result, error) {
	limit, ok := l.limits[class]
	if !ok {
		return nil, fmt.Errorf("no limit configured for class %q", class)
	}
	key = string(class) + ":" + key

	result, err := l.primary.AllowN(ctx, key, 1, limit.Requests, limit.Window)
	if l.fallback == nil {
		if err == nil {
			l.metrics.ObserveDecision(class, result.Allowed)
		}
		return result, err
	}

	if err != nil {
		useFallback, change := l.breaker.RecordFailure()
		if change.Opened {
			l.logger.WarnContext(ctx, "rate limit store failing, using in-process fallback", "error", err)
			l.metrics.ObserveBreakerOpen()
		}
		if !useFallback {
			return nil, err
		}
		return l.checkFallback(ctx, key, class, limit)
	}

	usePrimary, change := l.breaker.RecordSuccess()
	if change.Closed {
		l.logger.InfoContext(ctx, "rate limit store recovered")
	}
	if !usePrimary {
		return l.checkFallback(ctx, key, class, limit)
	}
	l.metrics.ObserveDecision(class, result.Allowed)
	return result, nil
}

func (l *Limiter) checkFallback(ctx context.Context, key string, class Class, limit Limit) (*Result, error) {
	result, err := l.fallback.AllowN(ctx, key, 1, limit.Requests, limit.Window)
	if err != nil {
		return nil, err
	}
	result.Degraded = true
	l.metrics.ObserveDecision(class, result.Allowed)
	return result, nil
}
