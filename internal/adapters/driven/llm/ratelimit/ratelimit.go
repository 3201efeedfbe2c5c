// Package ratelimit throttles outgoing LLM requests with a token bucket.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultBackoff is how long requests pause after the provider reports a 429.
const DefaultBackoff = 10 * time.Second

// Config holds rate limiting configuration for a provider.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size. Defaults to 1.
	BurstSize int
	// Backoff is the pause after a provider rate limit error. Defaults to DefaultBackoff.
	Backoff time.Duration
}

// LLMService wraps another LLMService and blocks each Chat until the
// token bucket and any provider backoff allow it.
type LLMService struct {
	inner   driven.LLMService
	limiter *rate.Limiter
	backoff time.Duration

	mu      sync.Mutex
	retryAt time.Time
}

// Wrap returns inner throttled by cfg. A non-positive rate returns inner unchanged.
func Wrap(inner driven.LLMService, cfg Config) driven.LLMService {
	if inner == nil || cfg.RequestsPerSecond <= 0 {
		return inner
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	return &LLMService{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		backoff: cfg.Backoff,
	}
}

// Chat waits for a token, then forwards to the wrapped service.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := s.Wait(ctx); err != nil {
		return "", err
	}
	reply, err := s.inner.Chat(ctx, messages, opts)
	if err != nil && isProviderRateLimit(err) {
		s.RecordRateLimitError(0)
	}
	return reply, err
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (s *LLMService) Wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s backing off: %w", domain.ErrRateLimited, s.inner.ModelName(), ctx.Err())
		case <-time.After(time.Until(retryAt)):
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrRateLimited, s.inner.ModelName(), err)
	}
	return nil
}

// RecordRateLimitError pauses requests for d, or the configured backoff when d is zero.
func (s *LLMService) RecordRateLimitError(d time.Duration) {
	if d <= 0 {
		d = s.backoff
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryAt = time.Now().Add(d)
}

// ModelName returns the wrapped model name.
func (s *LLMService) ModelName() string {
	return s.inner.ModelName()
}

// Ping is not throttled.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (s *LLMService) Close() error {
	return s.inner.Close()
}

func isProviderRateLimit(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "status 429") ||
		strings.Contains(msg, "429 too many requests") ||
		strings.Contains(msg, "rate_limit")
}
