package session

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"i4.energy/across/picorepl/port"
	"i4.energy/across/picorepl/repl"
)

// Outcome is the single result of a connect attempt. Transport is set only
// when Err is nil.
type Outcome struct {
	Port      string
	Transport Transport
	Err       error
}

// Supervisor drives the connect handshake: it picks a port, opens it
// against a timeout and primes the board once the port is open.
type Supervisor struct {
	dialer   Dialer
	selector port.Selector
	address  string
	prime    bool
	logger   *slog.Logger

	connectTimeout time.Duration
	goos           string
}

func NewSupervisor(config Config) *Supervisor {
	return &Supervisor{
		dialer:         config.dialer,
		selector:       port.Selector{Catalog: config.catalog, Policy: config.policy},
		address:        config.address,
		prime:          config.prime,
		logger:         config.logger.With("component", "supervisor"),
		connectTimeout: ConnectTimeout,
		goos:           runtime.GOOS,
	}
}

// Connect starts a connect attempt. The returned channel receives exactly
// one Outcome and is then closed. Failures are reported only through the
// Outcome.
//
// Opening the port races a timer. Whichever finishes first decides the
// outcome; a port that opens after the timeout is closed again.
func (s *Supervisor) Connect(ctx context.Context) <-chan Outcome {
	out := make(chan Outcome, 1)
	deliver := func(o Outcome) {
		out <- o
		close(out)
	}

	address := s.address
	if address == "" {
		path, err := s.selector.Resolve()
		if err != nil {
			s.logger.Debug("no serial port available", "error", err)
			deliver(Outcome{Err: fmt.Errorf("%w: %w", ErrNoPortAvailable, err)})
			return out
		}
		address = path
	}

	s.logger.Debug("trying to connect to serial port", "port", address)

	var once latch
	dialCtx, cancel := context.WithCancel(ctx)
	timer := time.NewTimer(s.connectTimeout)

	go func() {
		defer cancel()

		transport, err := s.dialer.Dial(dialCtx, address)
		if err != nil {
			if once.Fire() {
				timer.Stop()
				s.logger.Debug("serial port open failed", "port", address, "error", err)
				deliver(Outcome{Port: address, Err: fmt.Errorf("%w: %w", ErrOpenFailed, err)})
			}
			return
		}

		if !once.Fire() {
			s.logger.Debug("closing serial port opened after timeout", "port", address)
			if err := transport.Close(); err != nil {
				s.logger.Warn("could not close serial port connection", "port", address, "error", err)
			}
			return
		}
		timer.Stop()

		s.handshake(transport)
		s.logger.Debug("serial port connection established", "port", address)
		deliver(Outcome{Port: address, Transport: transport})
	}()

	go func() {
		select {
		case <-timer.C:
			if once.Fire() {
				s.logger.Debug("timeout while connecting", "port", address, "timeout", s.connectTimeout)
				cancel()
				deliver(Outcome{Port: address, Err: ErrTimeoutExceeded})
			}
		case <-dialCtx.Done():
			if ctx.Err() != nil && once.Fire() {
				timer.Stop()
				deliver(Outcome{Port: address, Err: ctx.Err()})
			}
		}
	}()

	return out
}

// handshake raises the control lines the host needs and sends the priming
// or prompt sequence. Failures here are logged; the port is already open.
func (s *Supervisor) handshake(t Transport) {
	// the board stays silent until DTR is asserted
	if err := t.SetDTR(true); err != nil {
		s.logger.Warn("could not set DTR", "error", err)
	}
	if s.goos == "windows" {
		// keeps the board out of the bootloader on a hardware restart
		if err := t.SetRTS(true); err != nil {
			s.logger.Warn("could not set RTS", "error", err)
		}
	}

	seq := repl.NudgeSequence
	if s.prime {
		seq = repl.PrimeSequence
	}
	if err := writeFull(t, []byte(seq)); err != nil {
		s.logger.Error(ErrWriteFailed.Error(), "error", err)
	}
}
