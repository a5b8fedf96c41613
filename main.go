package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"i4.energy/across/picorepl/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
}

// reportedError marks an error the command already showed to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// report prints err unless a command already did.
func report(w io.Writer, err error) {
	var r *reportedError
	if errors.As(err, &r) {
		return
	}
	fmt.Fprintln(w, "Error:", err)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "picorepl",
		Short: "Talk to the MicroPython REPL of a Raspberry Pi Pico over USB serial",
		Long: `picorepl finds a MicroPython board among the attached serial devices,
connects to its REPL and keeps track of whether the board sits in the normal
REPL, the raw REPL or is soft rebooting.

The port is picked by USB product id, then vendor id, then manufacturer,
unless one is given with --serial-port.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	bindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newConnectCmd(),
		newListCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// bindFlags registers the flags shared by all commands
func bindFlags(fs *pflag.FlagSet) {
	fs.StringP("serial-port", "p", "", "Serial port of the board, skips automatic selection")
	fs.StringSlice("manufacturers", nil, "USB manufacturers to look for, in priority order")
	fs.Bool("prime", false, "Interrupt running programs and force the normal REPL on connect")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
}

func loadConfig(cmd *cobra.Command) (*Config, error) {
	return LoadConfig(WithDefaults(), WithEnv(), WithFlags(cmd.Flags()))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newSession(config *Config, logger *slog.Logger) (*session.Session, error) {
	sessionConfig, err := session.NewConfigBuilder().
		WithDialer(session.SerialDialer{}).
		WithAddress(config.SerialPort).
		WithManufacturers(config.Manufacturers).
		WithPrime(config.Prime).
		WithLogger(logger).
		Build()
	if err != nil {
		return nil, err
	}
	return session.New(sessionConfig)
}
