package session

import "errors"

var (
	// ErrNoDialer is returned when a Session is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// open the serial port.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNoPortAvailable is returned when no address override is configured
	// and port selection found no suitable endpoint. No connect timeout is
	// started in this case.
	ErrNoPortAvailable = errors.New("no serial port available")

	// ErrOpenFailed wraps a transport level error raised while opening the
	// port.
	ErrOpenFailed = errors.New("could not open serial port connection")

	// ErrTimeoutExceeded is returned when the port did not open within the
	// connect timeout. A transport that opens afterwards is closed.
	ErrTimeoutExceeded = errors.New("timeout while connecting")

	// ErrWriteFailed marks a failed write. It is logged by the Dispatcher and
	// never returned to senders.
	ErrWriteFailed = errors.New("error while writing to serial port")

	// ErrNotConnected is returned by Loop when Start has not connected the
	// session.
	ErrNotConnected = errors.New("session not connected")

	// ErrConnectInProgress is returned by Start while an earlier Start is
	// still waiting for its connect outcome.
	ErrConnectInProgress = errors.New("connect already in progress")

	// ErrSessionClosed is returned when Start is called on a Session that has
	// already been disconnected or failed to connect, or when Disconnect was
	// called while Start was connecting. Sessions are single use.
	ErrSessionClosed = errors.New("session already closed")
)
