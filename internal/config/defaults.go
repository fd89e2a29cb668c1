package config

import (
	"fmt"
	"time"

	"github.com/aristath/taskfuture/internal/future"
	"github.com/aristath/taskfuture/internal/guard"
)

// DefaultConfig returns the default configuration: zero-delay polling,
// breaker off, journal off.
func DefaultConfig() *Config {
	backoff := future.DefaultBackoffConfig()
	breaker := guard.DefaultBreakerConfig()

	return &Config{
		Poll: PollConfig{
			Mode:                PollYield,
			InitialInterval:     Duration(backoff.InitialInterval),
			MaxInterval:         Duration(backoff.MaxInterval),
			Multiplier:          backoff.Multiplier,
			RandomizationFactor: backoff.RandomizationFactor,
		},
		Breaker: BreakerConfig{
			Enabled:             false,
			MaxRequests:         breaker.MaxRequests,
			ConsecutiveFailures: breaker.ConsecutiveFailures,
			OpenTimeout:         Duration(breaker.OpenTimeout),
		},
		Journal: JournalConfig{
			Enabled: false,
			Path:    ".taskfuture/journal.db",
		},
	}
}

// PollPolicy converts the poll section into a wait policy.
func (c *Config) PollPolicy() (future.PollPolicy, error) {
	switch c.Poll.Mode {
	case "", PollYield:
		return future.Yield(), nil
	case PollBackoff:
		return future.Backoff(future.BackoffConfig{
			InitialInterval:     time.Duration(c.Poll.InitialInterval),
			MaxInterval:         time.Duration(c.Poll.MaxInterval),
			Multiplier:          c.Poll.Multiplier,
			RandomizationFactor: c.Poll.RandomizationFactor,
		}), nil
	default:
		return nil, fmt.Errorf("unknown poll mode %q (want %q or %q)", c.Poll.Mode, PollYield, PollBackoff)
	}
}

// BreakerSettings converts the breaker section for guard.NewBreakerRegistry.
func (c *Config) BreakerSettings() guard.BreakerConfig {
	return guard.BreakerConfig{
		MaxRequests:         c.Breaker.MaxRequests,
		ConsecutiveFailures: c.Breaker.ConsecutiveFailures,
		OpenTimeout:         time.Duration(c.Breaker.OpenTimeout),
	}
}
