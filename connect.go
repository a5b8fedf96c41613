package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Open an interactive REPL on the board",
		Long: `Connect to the board and forward every line typed to its REPL.

Besides REPL input the console understands:
  .exit        soft reset the board and quit
  .softreboot  soft reboot the board
CTRL-C interrupts the program running on the board.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			console, err := NewConsole()
			if err != nil {
				return err
			}
			defer console.Close()

			logger := slog.New(slog.NewTextHandler(console.Stderr(), &slog.HandlerOptions{Level: parseLevel(config.LogLevel)}))

			s, err := newSession(config, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := s.Start(ctx); err != nil {
				console.Render(s.Events(), s.Done())
				return reported(err)
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				// The session ending, for whatever reason, ends the console
				defer cancel()
				return reported(s.Loop(gctx))
			})
			g.Go(func() error {
				console.Render(s.Events(), s.Done())
				return nil
			})
			g.Go(func() error {
				return console.Run(gctx, s)
			})
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
