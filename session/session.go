package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"i4.energy/across/picorepl/repl"
)

const readBufferSize = 1024

// Console commands understood by HandleLine.
const (
	CmdExit       = ".exit"
	CmdSoftReboot = ".softreboot"
)

// Session is a single connection to a board's REPL. It connects through a
// Supervisor, classifies inbound data with a repl.Machine and writes through
// a Dispatcher.
//
// A Session is used once: after Disconnect, or after Start fails, it cannot
// be started again.
type Session struct {
	logger     *slog.Logger
	supervisor *Supervisor
	dispatcher *Dispatcher

	mu        sync.Mutex
	machine   *repl.Machine
	transport Transport
	port      string
	closed    bool
	// fault makes sure a broken connection is reported once
	fault latch

	events   chan repl.Event
	done     chan struct{}
	doneOnce sync.Once
}

// New creates a Session. It does not connect; call Start.
func New(config Config) (*Session, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	return &Session{
		logger:     config.logger.With("component", "session"),
		supervisor: NewSupervisor(config),
		dispatcher: NewDispatcher(config.logger),
		machine:    repl.NewMachine(config.prime, config.banners),
		events:     make(chan repl.Event, config.eventBuffer),
		done:       make(chan struct{}),
	}, nil
}

// Start connects to the board and blocks until the attempt has an outcome.
// On failure the session is closed and an EventFault is emitted in addition
// to the returned error.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.transport != nil {
		s.mu.Unlock()
		return nil
	}
	if s.machine.State() == repl.Connecting {
		s.mu.Unlock()
		return ErrConnectInProgress
	}
	s.machine.Reset(repl.Connecting)
	s.mu.Unlock()
	s.emit(repl.Event{Kind: repl.EventState, State: repl.Connecting})

	outcome := <-s.supervisor.Connect(ctx)

	s.mu.Lock()
	if s.closed {
		// Disconnect was called while connecting
		s.mu.Unlock()
		if outcome.Transport != nil {
			if err := outcome.Transport.Close(); err != nil {
				s.logger.Warn("could not close serial port connection", "error", err)
			}
		}
		return ErrSessionClosed
	}
	if outcome.Err != nil {
		s.closed = true
		s.machine.Reset(repl.Disconnected)
		s.mu.Unlock()

		s.fault.Fire()
		s.emit(repl.Event{Kind: repl.EventState, State: repl.Disconnected})
		s.emit(repl.Event{Kind: repl.EventFault, State: repl.Disconnected, Err: outcome.Err})
		s.finish()
		return outcome.Err
	}

	s.transport = outcome.Transport
	s.port = outcome.Port
	// attached before a concurrent Disconnect can detach
	s.dispatcher.Attach(outcome.Transport)
	s.mu.Unlock()

	s.logger.Info("connected", "port", outcome.Port)
	return nil
}

// Loop runs the session's I/O until the connection ends or ctx is
// cancelled: one goroutine reads and classifies inbound data, another
// services queued writes. Cancelling ctx disconnects the session.
//
// Loop returns nil after a deliberate Disconnect and the read error when
// the connection broke.
func (s *Session) Loop(ctx context.Context) error {
	s.mu.Lock()
	transport := s.transport
	s.mu.Unlock()
	if transport == nil {
		return ErrNotConnected
	}

	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, func() {
		_ = s.Disconnect()
	})
	defer stop()

	g.Go(func() error {
		return s.dispatcher.Run(gctx)
	})
	g.Go(func() error {
		return s.read(transport)
	})

	err := g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var readErr *readError
	if errors.As(err, &readErr) {
		return readErr.err
	}
	return nil
}

// readError marks the end of the read loop. err is nil when the session
// was disconnected on purpose.
type readError struct {
	err error
}

func (e *readError) Error() string {
	if e.err == nil {
		return "session disconnected"
	}
	return fmt.Sprintf("read error: %v", e.err)
}

func (e *readError) Unwrap() error { return e.err }

func (s *Session) read(t Transport) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := t.Read(buf)
		if n > 0 {
			s.feed(buf[:n])
		}
		if err == nil {
			continue
		}

		if s.isClosed() {
			return &readError{}
		}
		if s.fault.Fire() {
			s.logger.Debug("serial port stream error", "error", err)
			s.emit(repl.Event{Kind: repl.EventFault, State: s.State(), Err: err})
		}
		_ = s.Disconnect()
		return &readError{err: err}
	}
}

func (s *Session) feed(chunk []byte) {
	s.logger.Debug("received data from serial port", "data", string(chunk))

	s.mu.Lock()
	events := s.machine.Feed(chunk)
	s.mu.Unlock()

	for _, e := range events {
		if e.Kind == repl.EventShort {
			s.logger.Warn("received short message", "byte", e.Raw)
		}
		s.emit(e)
	}
}

// emit hands an event to the consumer. The channel is buffered, but events
// are dropped if it is not drained fast enough.
func (s *Session) emit(e repl.Event) {
	select {
	case s.events <- e:
	default:
		s.logger.Warn("event channel full, dropping event", "kind", e.Kind.String(), "state", e.State.String())
	}
}

// HandleLine routes one line of console input. CmdExit soft resets the
// board and ends the session, CmdSoftReboot soft reboots it. Everything
// else is forwarded with a trailing CRLF while the board is at a REPL
// prompt and dropped otherwise.
func (s *Session) HandleLine(ctx context.Context, line string) error {
	switch line {
	case CmdExit:
		if err := s.SoftReset(ctx); err != nil {
			return err
		}
		return s.Disconnect()
	case CmdSoftReboot:
		return s.SoftReboot(ctx)
	}

	switch state := s.State(); state {
	case repl.NormalRepl, repl.RawRepl:
		return s.dispatcher.Send(ctx, []byte(line+repl.CRLF))
	case repl.Disconnected, repl.Connecting, repl.SoftReboot:
		s.logger.Debug("dropping input", "state", state.String())
		return nil
	default:
		panic(fmt.Sprintf("session: unknown REPL state %d", int(state)))
	}
}

// Send writes raw bytes to the board. It is a no-op when not connected.
func (s *Session) Send(ctx context.Context, data []byte) error {
	return s.dispatcher.Send(ctx, data)
}

// SoftReset resets the interpreter without restarting the board.
func (s *Session) SoftReset(ctx context.Context) error {
	return s.control(ctx, repl.SoftResetStatement+repl.CRLF)
}

// HardReset restarts the board. The port disappears and the board
// re-enumerates, so the session will see a read error.
func (s *Session) HardReset(ctx context.Context) error {
	return s.control(ctx, repl.HardResetStatement+repl.CRLF)
}

// SoftReboot makes the firmware soft reboot and print its banner.
func (s *Session) SoftReboot(ctx context.Context) error {
	return s.control(ctx, repl.SoftRebootSequence)
}

func (s *Session) control(ctx context.Context, seq string) error {
	if !s.Connected() {
		return nil
	}
	return s.dispatcher.Send(ctx, []byte(seq))
}

// Disconnect closes the port and ends the session. Calling it again is a
// no-op.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if s.closed && s.transport == nil {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	transport := s.transport
	s.transport = nil
	s.machine.Reset(repl.Disconnected)
	s.mu.Unlock()

	s.dispatcher.Detach()
	defer s.finish()

	if transport == nil {
		return nil
	}
	s.emit(repl.Event{Kind: repl.EventState, State: repl.Disconnected})
	if err := transport.Close(); err != nil {
		s.logger.Warn("could not close serial port connection", "error", err)
		return fmt.Errorf("close: %w", err)
	}
	s.logger.Info("disconnected", "port", s.Port())
	return nil
}

func (s *Session) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Events returns the classified output of the board. The channel is
// buffered, but may drop events if not consumed fast enough.
func (s *Session) Events() <-chan repl.Event {
	return s.events
}

// Done is closed once the session has ended.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) State() repl.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// Connected reports whether the port is open.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport != nil
}

// Port returns the path of the port the session connected to.
func (s *Session) Port() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
