package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"i4.energy/across/picorepl/repl"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to the board and expose it over HTTP",
		Long: `Connect to the board and serve a small HTTP API:

  POST /line               {"line": "print(1)"}
  POST /control/{command}  soft-reset, hard-reset, soft-reboot,
                           interrupt, raw-repl, normal-repl
  GET  /state              REPL state and port
  GET  /output             recent REPL output lines`,
		RunE: runServe,
	}
	cmd.Flags().String("bind-address", "127.0.0.1:8080", "Bind address for the HTTP server")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(config.LogLevel)}))

	s, err := newSession(config, logger)
	if err != nil {
		logger.Error("Failed to create session", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting picorepl server")
	if err := s.Start(ctx); err != nil {
		return err
	}

	transcript := NewTranscript(defaultTranscriptLines)
	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger:     logger.With("component", "server"),
			Session:    s,
			Transcript: transcript,
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// a broken connection was logged as a session fault
		return reported(s.Loop(gctx))
	})
	g.Go(func() error {
		pumpEvents(logger, s.Events(), s.Done(), transcript)
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			return reported(err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-s.Done():
		}
		logger.Info("Closing HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("Closing board connection")
	if derr := s.Disconnect(); derr != nil {
		logger.Error("Failed to close board connection", "error", derr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// pumpEvents records REPL output and logs everything else until done is
// closed and the remaining events are drained.
func pumpEvents(logger *slog.Logger, events <-chan repl.Event, done <-chan struct{}, transcript *Transcript) {
	handle := func(e repl.Event) {
		switch e.Kind {
		case repl.EventText:
			transcript.Write([]byte(e.Text))
		case repl.EventState:
			logger.Info("REPL state changed", "state", e.State.String())
		case repl.EventShort:
			logger.Warn("Short message", "byte", e.Raw)
		case repl.EventFault:
			logger.Error("Session fault", "error", e.Err)
		}
	}

	for {
		select {
		case e := <-events:
			handle(e)
		case <-done:
			for {
				select {
				case e := <-events:
					handle(e)
				default:
					return
				}
			}
		}
	}
}
