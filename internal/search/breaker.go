package search

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Breaker stops calling a provider after repeated failures and lets a
// probe through once the cooldown has passed.
type Breaker struct {
	next Provider
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(next Provider, maxFailures uint32, cooldown time.Duration, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxFailures == 0 {
		maxFailures = 5
	}
	log := logger.Named("breaker")
	return &Breaker{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        next.Name(),
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= maxFailures
			},
			// A caller giving up is not the backend's fault.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit state changed",
					zap.String("provider", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
}

func (b *Breaker) Name() string { return b.next.Name() }

// State exposes the breaker state for health reporting.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func (b *Breaker) Search(ctx context.Context, query string) ([]Result, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Search(ctx, query)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &SearchError{Backend: b.Name(), Err: err}
		}
		return nil, err
	}
	results, _ := out.([]Result)
	return results, nil
}
