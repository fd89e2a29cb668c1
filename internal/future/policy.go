package future

import (
	"context"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Pacer suspends a single wait between two status checks.
type Pacer interface {
	// Pause returns early with ctx.Err() if ctx is done.
	Pause(ctx context.Context) error
}

// PollPolicy builds a fresh Pacer for each call to Wait.
type PollPolicy func() Pacer

// Yield re-checks immediately, only giving up the processor between polls.
func Yield() PollPolicy {
	return func() Pacer { return yieldPacer{} }
}

type yieldPacer struct{}

func (yieldPacer) Pause(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

// BackoffConfig configures exponential backoff between polls.
type BackoffConfig struct {
	InitialInterval     time.Duration // First pause (default 10ms)
	MaxInterval         time.Duration // Cap on a single pause (default 1s)
	Multiplier          float64       // Growth per poll (default 2.0)
	RandomizationFactor float64       // Jitter factor (default 0.2)
}

// DefaultBackoffConfig returns the default backoff configuration.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialInterval:     10 * time.Millisecond,
		MaxInterval:         time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.2,
	}
}

// Backoff sleeps with exponentially growing pauses between polls.
// It never gives up by itself; the wait still ends only on a terminal
// status, a query error, or ctx.
func Backoff(cfg BackoffConfig) PollPolicy {
	def := DefaultBackoffConfig()
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = def.Multiplier
	}
	if cfg.RandomizationFactor < 0 || cfg.RandomizationFactor >= 1 {
		cfg.RandomizationFactor = def.RandomizationFactor
	}

	return func() Pacer {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = cfg.InitialInterval
		b.MaxInterval = cfg.MaxInterval
		b.Multiplier = cfg.Multiplier
		b.RandomizationFactor = cfg.RandomizationFactor
		b.MaxElapsedTime = 0
		b.Reset()
		return &backoffPacer{policy: b}
	}
}

type backoffPacer struct {
	policy *backoff.ExponentialBackOff
}

func (p *backoffPacer) Pause(ctx context.Context) error {
	d := p.policy.NextBackOff()
	if d == backoff.Stop {
		d = p.policy.MaxInterval
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
