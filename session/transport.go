package session

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Transport represents an open, bidirectional byte stream to the board.
//
// Besides plain I/O it exposes the modem control lines, which some hosts
// must raise before the board starts talking, and Drain, which blocks until
// buffered output has been transmitted.
type Transport interface {
	io.ReadWriteCloser
	Drain() error
	SetDTR(dtr bool) error
	SetRTS(rts bool) error
}

// Dialer opens a Transport to the board at a port path.
type Dialer interface {
	// Dial should respect cancellation of ctx. A Transport returned after
	// ctx is done is closed by the caller.
	Dial(ctx context.Context, path string) (Transport, error)
}

// SerialDialer opens the board's serial port using go.bug.st/serial.
type SerialDialer struct {
	// Mode overrides the default 115200 8N1 with DTR asserted and RTS
	// deasserted.
	Mode *serial.Mode
}

func defaultMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
		// USB CDC firmware only sends while the host holds DTR
		InitialStatusBits: &serial.ModemOutputBits{
			RTS: false,
			DTR: true,
		},
	}
}

func (d SerialDialer) Dial(ctx context.Context, path string) (Transport, error) {
	if path == "" {
		return nil, errors.New("picorepl: serial port path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		mode = defaultMode()
	}

	p, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// writeFull writes all of data, draining the transport whenever it accepts
// less than requested.
func writeFull(t Transport, data []byte) error {
	for len(data) > 0 {
		n, err := t.Write(data)
		if err != nil {
			return err
		}
		if n < len(data) {
			if n == 0 {
				return io.ErrShortWrite
			}
			if err := t.Drain(); err != nil {
				return fmt.Errorf("drain: %w", err)
			}
		}
		data = data[n:]
	}
	return nil
}
