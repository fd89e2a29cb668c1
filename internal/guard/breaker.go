package guard

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/aristath/taskfuture/internal/future"
	"github.com/aristath/taskfuture/internal/status"
)

// BreakerConfig configures the per-engine circuit breakers.
type BreakerConfig struct {
	MaxRequests         uint32        // Probe queries allowed while half-open (default 1)
	ConsecutiveFailures uint32        // Failures in a row that open the circuit (default 5)
	OpenTimeout         time.Duration // How long the circuit stays open (default 5s)
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		ConsecutiveFailures: 5,
		OpenTimeout:         5 * time.Second,
	}
}

// BreakerRegistry hands out one circuit breaker per engine name.
type BreakerRegistry struct {
	cfg      BreakerConfig
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakerRegistry creates a registry. Zero fields in cfg take defaults.
func NewBreakerRegistry(cfg BreakerConfig) *BreakerRegistry {
	def := DefaultBreakerConfig()
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = def.MaxRequests
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = def.ConsecutiveFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}

	return &BreakerRegistry{
		cfg:      cfg,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Get returns the breaker for engine, creating it on first use.
func (r *BreakerRegistry) Get(engine string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[engine]; ok {
		return cb
	}

	threshold := r.cfg.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        engine,
		MaxRequests: r.cfg.MaxRequests,
		Interval:    0, // Never clear counts while closed
		Timeout:     r.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("engine circuit breaker state change", "engine", name, "from", from.String(), "to", to.String())
		},
	})

	r.breakers[engine] = cb
	return cb
}

// Guard wraps q so that its calls go through the breaker for engine.
// Once open, queries fail with gobreaker.ErrOpenState without reaching q.
func (r *BreakerRegistry) Guard(engine string, q future.StatusQuery) future.StatusQuery {
	return &guardedQuery{cb: r.Get(engine), query: q}
}

type guardedQuery struct {
	cb    *gobreaker.CircuitBreaker
	query future.StatusQuery
}

func (g *guardedQuery) QueryStatus(id future.TaskID) (int32, error) {
	result, err := g.cb.Execute(func() (interface{}, error) {
		raw, err := g.query.QueryStatus(id)
		if err != nil {
			return raw, err
		}
		// A code outside the contract is as much an engine fault as an error
		if _, err := status.FromRaw(raw); err != nil {
			return raw, err
		}
		return raw, nil
	})
	if err != nil {
		if errors.Is(err, status.ErrInvalidStatus) {
			return result.(int32), nil
		}
		return 0, err
	}
	return result.(int32), nil
}
