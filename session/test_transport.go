package session

import (
	"bytes"
	"io"
	"sync"
)

// TestTransport is a test helper that simulates a blocking serial port using
// channels. Reads block until data is queued with SendData, like a real port
// would, so the Session's reader goroutine can run against it.
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	written  bytes.Buffer
	// maxWrite limits how many bytes a single Write accepts. Zero means no
	// limit.
	maxWrite int
	drains   int
	dtr, rts bool
	closed   bool
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 10),
	}
}

// LimitWrites makes every Write accept at most n bytes.
func (t *TestTransport) LimitWrites(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maxWrite = n
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}
	n = len(p)
	if t.maxWrite > 0 && n > t.maxWrite {
		n = t.maxWrite
	}
	t.written.Write(p[:n])
	return n, nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	data, ok := <-t.readChan
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

func (t *TestTransport) Drain() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.drains++
	return nil
}

func (t *TestTransport) SetDTR(dtr bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dtr = dtr
	return nil
}

func (t *TestTransport) SetRTS(rts bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rts = rts
	return nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport.
// This simulates receiving data from the board.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// Written returns everything written so far.
func (t *TestTransport) Written() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written.String()
}

// Drains returns how often Drain was called.
func (t *TestTransport) Drains() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.drains
}

// Lines returns the last values set on the DTR and RTS lines.
func (t *TestTransport) Lines() (dtr, rts bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dtr, t.rts
}

func (t *TestTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
