// Package fallback chains multiple embedding backends so a quota-exhausted
// or rate-limited primary does not take query processing down with it.
package fallback

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/medex-ai/medex/internal/core/domain"
	"github.com/medex-ai/medex/internal/core/ports"
)

// Status describes the last observed availability of a backend.
type Status int

const (
	StatusAvailable Status = iota
	StatusRateLimited
	StatusAuthError
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusRateLimited:
		return "rate_limited"
	case StatusAuthError:
		return "auth_error"
	default:
		return "unavailable"
	}
}

// Classifier maps a backend error to a Status used for skip decisions.
type Classifier func(err error) Status

// ClassifyEmbedError is the default classifier. Rate and quota failures are
// treated as recoverable after a cooldown, credential failures are sticky.
func ClassifyEmbedError(err error) Status {
	if err == nil {
		return StatusAvailable
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "balance"):
		return StatusRateLimited
	case strings.Contains(msg, "401"),
		strings.Contains(msg, "403"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "forbidden"):
		return StatusAuthError
	default:
		return StatusUnavailable
	}
}

// Backend pairs an embedder with a name used in status reporting.
type Backend struct {
	Name     string
	Embedder ports.Embedder
}

// BackendStatus is a point-in-time view of one backend in the chain.
type BackendStatus struct {
	Name   string
	Status Status
}

type backendState struct {
	status  Status
	retryAt time.Time
}

// Chain tries backends in declaration order and remembers which ones
// recently failed so later calls skip them until their cooldown expires.
// Auth failures are never retried. Chain implements ports.Embedder.
type Chain struct {
	backends []Backend
	classify Classifier
	cooldown time.Duration
	now      func() time.Time

	mu     sync.Mutex
	states []backendState
}

const defaultCooldown = 30 * time.Second

// NewChain builds a chain over the given backends. The first backend is the
// primary. A nil classifier falls back to ClassifyEmbedError.
func NewChain(backends []Backend, classify Classifier, cooldown time.Duration) *Chain {
	if classify == nil {
		classify = ClassifyEmbedError
	}
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &Chain{
		backends: backends,
		classify: classify,
		cooldown: cooldown,
		now:      time.Now,
		states:   make([]backendState, len(backends)),
	}
}

// Embed tries each usable backend in order until one succeeds.
func (c *Chain) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := c.execute(ctx, func(ctx context.Context, e ports.Embedder) ([][]float32, error) {
		return e.Embed(ctx, texts)
	})
	return vectors, err
}

// EmbedQuery tries each usable backend in order until one succeeds.
func (c *Chain) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.execute(ctx, func(ctx context.Context, e ports.Embedder) ([][]float32, error) {
		vector, err := e.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		return [][]float32{vector}, nil
	})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Chain) execute(ctx context.Context, call func(context.Context, ports.Embedder) ([][]float32, error)) ([][]float32, error) {
	if len(c.backends) == 0 {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "fallback.execute", errors.New("no embedding backends configured"))
	}

	var lastErr error
	for i, backend := range c.backends {
		if !c.usable(i) {
			continue
		}
		vectors, err := call(ctx, backend.Embedder)
		if err == nil {
			c.markAvailable(i)
			return vectors, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		c.markFailed(i, c.classify(err))
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("all embedding backends are cooling down")
	}
	if errors.Is(lastErr, domain.ErrModelUnavailable) {
		return nil, lastErr
	}
	return nil, domain.WrapError(domain.ErrModelUnavailable, "fallback.execute", lastErr)
}

func (c *Chain) usable(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.states[i]
	switch state.status {
	case StatusAvailable:
		return true
	case StatusAuthError:
		return false
	default:
		return !c.now().Before(state.retryAt)
	}
}

func (c *Chain) markAvailable(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[i] = backendState{status: StatusAvailable}
}

func (c *Chain) markFailed(i int, status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := backendState{status: status}
	if status != StatusAuthError {
		state.retryAt = c.now().Add(c.cooldown)
	}
	c.states[i] = state
}

// Statuses reports the current state of every backend in chain order.
func (c *Chain) Statuses() []BackendStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	statuses := make([]BackendStatus, len(c.backends))
	for i, backend := range c.backends {
		statuses[i] = BackendStatus{Name: backend.Name, Status: c.states[i].status}
	}
	return statuses
}
