package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/open-teleop/teleop-console/domain/console"
	"github.com/spf13/cobra"
)

func addServe(topLevel *cobra.Command, opts *RootOptions) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the console headless, driven over HTTP and the command socket.",
		Example: `
teleop-console serve --log-level debug
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return runServe(cmd, opts)
		},
	}

	topLevel.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, opts *RootOptions) error {
	cfg, _, err := loadBootstrap(cmd, opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, nil)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return err
	}
	rt.bus.Start()
	app, apiErr := rt.startAPI(os.Stdout)
	defer rt.close(app)

	sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancelCause(sigCtx)
	defer cancel(nil)

	go func() {
		select {
		case err := <-apiErr:
			cancel(err)
		case <-ctx.Done():
		}
	}()

	logger.Infof("Console running headless, tick every %v", rt.period())
	if err := tickLoop(ctx, rt.period(), rt.bus, rt.console.Tick); err != nil {
		logger.Errorf("Console stopped: %v", err)
		return err
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		logger.Errorf("Console stopped: %v", cause)
		return cause
	}

	logger.Infof("Shutting down console...")
	return nil
}

type busStatus interface {
	OK() bool
	Err() error
}

// tickLoop calls tick every period until ctx ends or the bus goes down.
func tickLoop[T any](ctx context.Context, period time.Duration, bus busStatus, tick func() T) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !bus.OK() {
				if err := bus.Err(); err != nil {
					return fmt.Errorf("%w: %w", console.ErrBusClosed, err)
				}
				return console.ErrBusClosed
			}
			tick()
		}
	}
}
