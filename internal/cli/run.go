package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/bankwatch/internal/engine"
	"github.com/roach88/bankwatch/internal/logger"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Once bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sync accounts and send notifications",
		Long: `Run sync and notify cycles.

In continuous mode a cycle runs, then the process sleeps for
update_interval_min and starts the next one, until SIGINT or SIGTERM.
In once mode (mode: once, or --once) a single cycle runs and its
outcome becomes the exit code.

Example:
  bankwatch run
  bankwatch run --once --config /etc/bankwatch.yaml --log-format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Once, "once", false, "run a single cycle and exit (overrides mode)")

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	mode, err := engine.ParseMode(cfg.Mode)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if opts.Once {
		mode = engine.ModeOnce
	}

	log, err := logger.New(logger.Options{
		Format:  opts.LogFormat,
		Verbose: opts.Verbose,
		Out:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "create logger", err)
	}

	var last *engine.CycleResult
	a, err := buildApp(cfg, mode, log, func(res engine.CycleResult) {
		last = &res
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("error closing database")
		}
	}()

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(logger.WithContext(parentCtx, log))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Info().
		Str("mode", string(mode)).
		Str("database", cfg.Database).
		Str("channel", a.channel.Name()).
		Int("accounts", len(cfg.Accounts)).
		Msg("engine starting")

	runErr := a.scheduler.Run(ctx)

	if mode == engine.ModeOnce && last != nil {
		if err := newFormatter(opts.RootOptions, cmd).Success(newRunSummary(*last)); err != nil {
			return err
		}
	}

	if runErr != nil {
		return WrapExitError(ExitFailure, "engine error", runErr)
	}
	log.Info().Msg("engine stopped")
	return nil
}

// runSummary is the output of a one-shot run.
type runSummary struct {
	engine.CycleResult
	Error string `json:"error,omitempty"`
}

func newRunSummary(res engine.CycleResult) runSummary {
	s := runSummary{CycleResult: res}
	if res.Err != nil {
		s.Error = res.Err.Error()
	}
	return s
}

func (s runSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cycle %d (%s)\n", s.Cycle, s.RunID)
	for _, a := range s.Sync.Accounts {
		if a.FailureKind != "" {
			fmt.Fprintf(&b, "  %-20s failed: %s\n", a.Account, a.FailureKind)
			continue
		}
		fmt.Fprintf(&b, "  %-20s fetched %d, new %d, known %d, ignored %d\n",
			a.Account, a.Fetched, a.Inserted, a.Known+a.Duplicates, a.Ignored)
	}
	fmt.Fprintf(&b, "notifications: %d sent, %d failed, %d skipped",
		s.Notify.Sent, s.Notify.Failed, s.Notify.Skipped)
	if s.Error != "" {
		fmt.Fprintf(&b, "\nerror: %s", s.Error)
	}
	return b.String()
}
