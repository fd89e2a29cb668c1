package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/aristath/taskfuture/internal/config"
	"github.com/aristath/taskfuture/internal/engine"
	"github.com/aristath/taskfuture/internal/events"
	"github.com/aristath/taskfuture/internal/future"
	"github.com/aristath/taskfuture/internal/guard"
	"github.com/aristath/taskfuture/internal/journal"
	"github.com/aristath/taskfuture/internal/render"
	"github.com/aristath/taskfuture/internal/tui"
)

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "taskfuture",
		Usage: "Wait on engine tasks and report their outcome",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Project config file (overrides .taskfuture/config.json)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			newWatchCommand(),
			newHistoryCommand(),
			newConfigCommand(),
		},
	}
}

func newWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Submit scripted tasks to the simulated engine and wait for all of them",
		// Each script is the comma-separated statuses one task reports
		ArgsUsage: "<script> [<script>...]  e.g. pending,running,success",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "journal",
				Usage: "Record observations to this SQLite file (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show a live full-screen view instead of printing lines",
			},
		},
		Action: runWatch,
	}
}

func newHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List journaled task outcomes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "session",
				Usage: "Only show outcomes from this watch session",
			},
			&cli.StringFlag{
				Name:  "journal",
				Usage: "SQLite journal to read (overrides config)",
			},
		},
		Action: runHistory,
	}
}

func newConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the default configuration to the project config path",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
					&cli.BoolFlag{
						Name:    "interactive",
						Aliases: []string{"i"},
						Usage:   "Edit the settings in a form before writing",
					},
				},
				Action: runConfigInit,
			},
		},
	}
}

// configPaths resolves global and project config paths, honoring --config.
func configPaths(cmd *cli.Command) (string, string, error) {
	globalPath, projectPath, err := config.DefaultPaths()
	if err != nil {
		return "", "", err
	}
	if p := cmd.String("config"); p != "" {
		projectPath = p
	}
	return globalPath, projectPath, nil
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	globalPath, projectPath, err := configPaths(cmd)
	if err != nil {
		return nil, err
	}
	return config.Load(globalPath, projectPath)
}

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	policy, err := cfg.PollPolicy()
	if err != nil {
		return err
	}

	scripts := cmd.Args().Slice()
	if len(scripts) == 0 {
		return fmt.Errorf("at least one status script is required")
	}
	parsed := make([][]int32, 0, len(scripts))
	for _, spec := range scripts {
		codes, err := engine.ParseScript(spec)
		if err != nil {
			return err
		}
		parsed = append(parsed, codes)
	}

	eng := engine.NewScriptedEngine()
	var query future.StatusQuery = eng
	if cfg.Breaker.Enabled {
		query = guard.NewBreakerRegistry(cfg.BreakerSettings()).Guard("scripted", eng)
	}

	bus := events.NewBus()
	defer bus.Close()

	// Quitting the live view abandons the waits
	waitCtx, cancelWait := context.WithCancel(ctx)
	defer cancelWait()

	var wg sync.WaitGroup

	// Journal
	journalPath := cfg.Journal.Path
	journalOn := cfg.Journal.Enabled
	if p := cmd.String("journal"); p != "" {
		journalPath, journalOn = p, true
	}
	if journalOn {
		store, err := journal.NewSQLiteStore(ctx, journalPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer store.Close()

		session, err := store.StartSession(ctx)
		if err != nil {
			return fmt.Errorf("start journal session: %w", err)
		}
		slog.Info("journaling watch session", "session", session, "path", journalPath)

		journalCh := bus.SubscribeAllQueued()
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Drain to the end even after a signal so the session stays complete
			journal.Record(context.WithoutCancel(ctx), store, session, journalCh)
		}()
	}

	out := output(cmd)

	if cmd.Bool("tui") {
		model := tui.NewWatchModel(bus.SubscribeAll(0), len(parsed))
		p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(out), tea.WithAltScreen())
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancelWait()
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				slog.Warn("live view stopped", "error", err)
			}
		}()
	} else {
		printCh := bus.SubscribeAllQueued()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range printCh {
				switch e := ev.(type) {
				case events.StatusObservedEvent:
					fmt.Fprintln(out, render.Transition(e.ID, e.Status))
				case events.TaskSettledEvent:
					fmt.Fprintln(out, render.Outcome(e.ID, e.Success, e.Elapsed))
				}
			}
		}()
	}

	publish := events.Publisher(bus)
	handles := make([]*future.Handle, 0, len(parsed))
	for i, codes := range parsed {
		id, err := eng.Submit(codes...)
		if err != nil {
			return err
		}
		slog.Debug("task submitted", "task_id", id, "script", scripts[i])
		handles = append(handles, future.New(id, query,
			future.WithPollPolicy(policy),
			future.WithObserver(publish),
		))
	}

	results, waitErr := future.WaitAll(waitCtx, handles...)

	bus.Close()
	wg.Wait()

	if n := bus.Dropped(); n > 0 {
		slog.Warn("live view missed events", "dropped", n)
	}

	if waitErr != nil {
		return waitErr
	}

	failed := 0
	for _, ok := range results {
		if !ok {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tasks failed", failed, len(results))
	}
	return nil
}

func runHistory(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	path := cfg.Journal.Path
	if p := cmd.String("journal"); p != "" {
		path = p
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("journal %s: %w", path, err)
	}

	store, err := journal.NewSQLiteStore(ctx, path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	outcomes, err := store.ListOutcomes(ctx, cmd.String("session"))
	if err != nil {
		return err
	}

	out := output(cmd)
	if len(outcomes) == 0 {
		fmt.Fprintln(out, "No outcomes recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tTASK\tRESULT\tELAPSED")
	for _, o := range outcomes {
		result := "failure"
		if o.Success {
			result = "success"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", o.SessionID, o.TaskID, result, o.Elapsed)
	}
	return w.Flush()
}

func runConfigInit(ctx context.Context, cmd *cli.Command) error {
	_, projectPath, err := configPaths(cmd)
	if err != nil {
		return err
	}

	if _, err := os.Stat(projectPath); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", projectPath)
	}

	cfg := config.DefaultConfig()
	if cmd.Bool("interactive") {
		if err := tui.NewConfigForm(cfg).Run(ctx); err != nil {
			return err
		}
	}

	if err := config.Save(cfg, projectPath); err != nil {
		return err
	}
	fmt.Fprintf(output(cmd), "Wrote %s\n", projectPath)
	return nil
}
