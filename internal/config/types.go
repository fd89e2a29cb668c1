package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration is a time.Duration written as a Go duration string ("250ms").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"250ms\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Poll modes
const (
	PollYield   = "yield"   // Re-check immediately, yielding the processor
	PollBackoff = "backoff" // Exponential pauses between checks
)

// PollConfig controls how waits pace their status checks.
type PollConfig struct {
	Mode                string   `json:"mode"`                           // "yield" or "backoff"
	InitialInterval     Duration `json:"initial_interval,omitempty"`     // First backoff pause
	MaxInterval         Duration `json:"max_interval,omitempty"`         // Cap on a single pause
	Multiplier          float64  `json:"multiplier,omitempty"`           // Growth per poll
	RandomizationFactor float64  `json:"randomization_factor,omitempty"` // Jitter, 0 <= f < 1
}

// BreakerConfig controls the circuit breaker placed in front of the engine.
type BreakerConfig struct {
	Enabled             bool     `json:"enabled"`
	MaxRequests         uint32   `json:"max_requests,omitempty"`
	ConsecutiveFailures uint32   `json:"consecutive_failures,omitempty"`
	OpenTimeout         Duration `json:"open_timeout,omitempty"`
}

// JournalConfig controls the SQLite status journal.
type JournalConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	Poll    PollConfig    `json:"poll"`
	Breaker BreakerConfig `json:"breaker"`
	Journal JournalConfig `json:"journal"`
}
