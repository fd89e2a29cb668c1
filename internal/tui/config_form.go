package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/aristath/taskfuture/internal/config"
)

// ConfigForm edits the poll, breaker, and journal sections of a config.
type ConfigForm struct {
	form *huh.Form
	cfg  *config.Config

	// Form field bindings (strings for Huh)
	pollMode        string
	initialInterval string
	maxInterval     string
	breakerEnabled  bool
	journalEnabled  bool
	journalPath     string
}

// NewConfigForm builds a form pre-filled from cfg. cfg is updated by Apply.
func NewConfigForm(cfg *config.Config) *ConfigForm {
	f := &ConfigForm{
		cfg:             cfg,
		pollMode:        cfg.Poll.Mode,
		initialInterval: time.Duration(cfg.Poll.InitialInterval).String(),
		maxInterval:     time.Duration(cfg.Poll.MaxInterval).String(),
		breakerEnabled:  cfg.Breaker.Enabled,
		journalEnabled:  cfg.Journal.Enabled,
		journalPath:     cfg.Journal.Path,
	}
	if f.pollMode == "" {
		f.pollMode = config.PollYield
	}

	f.buildForm()
	return f
}

// buildForm constructs the Huh form with all settings fields.
func (f *ConfigForm) buildForm() {
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("pollMode").
				Title("Poll Mode").
				Options(
					huh.NewOption("Yield (re-check immediately)", config.PollYield),
					huh.NewOption("Backoff (exponential pauses)", config.PollBackoff),
				).
				Value(&f.pollMode),
		).Title("Polling"),

		huh.NewGroup(
			huh.NewInput().
				Key("initialInterval").
				Title("Initial Interval").
				Value(&f.initialInterval).
				Placeholder("10ms").
				Validate(validateDuration),

			huh.NewInput().
				Key("maxInterval").
				Title("Max Interval").
				Value(&f.maxInterval).
				Placeholder("1s").
				Validate(validateDuration),
		).Title("Backoff").
			WithHideFunc(func() bool { return f.pollMode != config.PollBackoff }),

		huh.NewGroup(
			huh.NewConfirm().
				Key("breakerEnabled").
				Title("Guard the engine with a circuit breaker?").
				Value(&f.breakerEnabled),

			huh.NewConfirm().
				Key("journalEnabled").
				Title("Journal watch sessions to SQLite?").
				Value(&f.journalEnabled),

			huh.NewInput().
				Key("journalPath").
				Title("Journal Path").
				Value(&f.journalPath).
				Placeholder(".taskfuture/journal.db"),
		).Title("Breaker and Journal"),
	)
}

// Run shows the form on the terminal and applies the answers.
func (f *ConfigForm) Run(ctx context.Context) error {
	if err := f.form.RunWithContext(ctx); err != nil {
		return err
	}
	return f.Apply()
}

// Apply copies the form's field values into the config.
func (f *ConfigForm) Apply() error {
	switch f.pollMode {
	case config.PollYield, config.PollBackoff:
	default:
		return fmt.Errorf("unknown poll mode %q", f.pollMode)
	}

	initial, err := parsePositive(f.initialInterval)
	if err != nil {
		return fmt.Errorf("initial interval: %w", err)
	}
	maxInterval, err := parsePositive(f.maxInterval)
	if err != nil {
		return fmt.Errorf("max interval: %w", err)
	}
	if f.journalEnabled && f.journalPath == "" {
		return fmt.Errorf("journal path is required when the journal is enabled")
	}

	f.cfg.Poll.Mode = f.pollMode
	f.cfg.Poll.InitialInterval = config.Duration(initial)
	f.cfg.Poll.MaxInterval = config.Duration(maxInterval)
	f.cfg.Breaker.Enabled = f.breakerEnabled
	f.cfg.Journal.Enabled = f.journalEnabled
	if f.journalPath != "" {
		f.cfg.Journal.Path = f.journalPath
	}
	return nil
}

func validateDuration(s string) error {
	_, err := parsePositive(s)
	return err
}

func parsePositive(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}
