package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

var ErrBreakerOpen = errors.New("circuit breaker is open")

type BreakerConfig struct {
	Name             string        `json:"name"`
	MaxFailures      int           `json:"max_failures"`
	Timeout          time.Duration `json:"timeout"`
	HalfOpenMaxCalls int           `json:"half_open_max_calls"`

	// IsFailure decides whether an error trips the breaker. Nil counts every
	// error except context cancellation.
	IsFailure func(error) bool

	OnStateChange func(name string, from, to State)
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// Breaker guards calls to a flaky dependency such as the image provider or
// the redis cache tier.
type Breaker struct {
	mu sync.Mutex

	cfg             BreakerConfig
	state           State
	failureCount    int
	halfOpenCalls   int
	halfOpenSuccess int
	openedAt        time.Time
	now             func() time.Time
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool {
			return !errors.Is(err, context.Canceled)
		}
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Execute runs fn unless the breaker is open. Errors returned by fn are passed
// through unchanged.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := fn(ctx)
	b.after(err)
	return err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Timeout {
			return ErrBreakerOpen
		}
		b.transition(StateHalfOpen)
		b.halfOpenCalls = 1
		return nil
	case StateHalfOpen:
		if b.halfOpenCalls >= b.cfg.HalfOpenMaxCalls {
			return ErrBreakerOpen
		}
		b.halfOpenCalls++
	}
	return nil
}

func (b *Breaker) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := err != nil && b.cfg.IsFailure(err)

	switch b.state {
	case StateClosed:
		if !failed {
			b.failureCount = 0
			return
		}
		b.failureCount++
		if b.failureCount >= b.cfg.MaxFailures {
			b.trip()
		}
	case StateHalfOpen:
		if failed {
			b.trip()
			return
		}
		b.halfOpenSuccess++
		if b.halfOpenSuccess >= b.cfg.HalfOpenMaxCalls {
			b.transition(StateClosed)
		}
	}
}

func (b *Breaker) trip() {
	b.openedAt = b.now()
	b.transition(StateOpen)
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	b.failureCount = 0
	b.halfOpenCalls = 0
	b.halfOpenSuccess = 0
	if from != to && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.cfg.Name, from, to)
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Stats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	return map[string]interface{}{
		"name":            b.cfg.Name,
		"state":           b.state.String(),
		"failure_count":   b.failureCount,
		"opened_at":       b.openedAt.Unix(),
		"max_failures":    b.cfg.MaxFailures,
		"timeout_seconds": b.cfg.Timeout.Seconds(),
	}
}
