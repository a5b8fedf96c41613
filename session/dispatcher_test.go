package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runDispatcher(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestDispatcherSend(t *testing.T) {
	t.Run("Concurrent sends keep submission order", func(t *testing.T) {
		transport := NewTestTransport()
		// Force every payload through several short writes
		transport.LimitWrites(3)

		d := NewDispatcher(discardLogger())
		d.Attach(transport)

		var wg sync.WaitGroup
		var expected strings.Builder
		for i := 0; i < 10; i++ {
			payload := fmt.Sprintf("payload-%02d;", i)
			expected.WriteString(payload)

			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := d.Send(context.Background(), []byte(payload)); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}()

			// Wait until this sender is queued before starting the next one
			deadline := time.Now().Add(time.Second)
			for d.pending() != i+1 {
				if time.Now().After(deadline) {
					t.Fatalf("sender %d was not queued", i)
				}
				time.Sleep(time.Millisecond)
			}
		}

		runDispatcher(t, d)
		wg.Wait()

		if got := transport.Written(); got != expected.String() {
			t.Errorf("expected %q, got %q", expected.String(), got)
		}
		if transport.Drains() == 0 {
			t.Error("expected short writes to be drained")
		}
	})

	t.Run("Not attached is a no-op", func(t *testing.T) {
		d := NewDispatcher(discardLogger())

		// Run is not started; Send must not block
		if err := d.Send(context.Background(), []byte("print(1)\r\n")); err != nil {
			t.Errorf("expected nil, got: %v", err)
		}
		if d.pending() != 0 {
			t.Errorf("expected nothing queued, got %d", d.pending())
		}
	})

	t.Run("Detached transport is not written", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		// No expectations: any write fails the test
		mockTransport := NewMockTransport(ctrl)

		d := NewDispatcher(discardLogger())
		d.Attach(mockTransport)

		sent := make(chan error, 1)
		go func() { sent <- d.Send(context.Background(), []byte("x")) }()

		deadline := time.Now().Add(time.Second)
		for d.pending() != 1 {
			if time.Now().After(deadline) {
				t.Fatal("sender was not queued")
			}
			time.Sleep(time.Millisecond)
		}
		d.Detach()
		runDispatcher(t, d)

		if err := <-sent; err != nil {
			t.Errorf("expected nil, got: %v", err)
		}
	})

	t.Run("Write error is not returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockTransport := NewMockTransport(ctrl)
		mockTransport.EXPECT().Write([]byte("print(1)\r\n")).Return(0, errors.New("device gone"))

		d := NewDispatcher(discardLogger())
		d.Attach(mockTransport)
		runDispatcher(t, d)

		if err := d.Send(context.Background(), []byte("print(1)\r\n")); err != nil {
			t.Errorf("expected write error to be swallowed, got: %v", err)
		}
	})

	t.Run("Next send waits for drain", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockTransport := NewMockTransport(ctrl)
		gomock.InOrder(
			mockTransport.EXPECT().Write([]byte("\r\x04")).Return(1, nil),
			mockTransport.EXPECT().Drain().Return(nil),
			mockTransport.EXPECT().Write([]byte("\x04")).Return(1, nil),
			mockTransport.EXPECT().Write([]byte("ok\r\n")).Return(4, nil),
		)

		d := NewDispatcher(discardLogger())
		d.Attach(mockTransport)
		runDispatcher(t, d)

		if err := d.Send(context.Background(), []byte("\r\x04")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := d.Send(context.Background(), []byte("ok\r\n")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("Send after Run returned does not block", func(t *testing.T) {
		transport := NewTestTransport()
		d := NewDispatcher(discardLogger())
		d.Attach(transport)

		ctx, cancel := context.WithCancel(context.Background())
		stopped := make(chan struct{})
		go func() {
			defer close(stopped)
			d.Run(ctx)
		}()
		cancel()
		<-stopped

		sent := make(chan error, 1)
		go func() { sent <- d.Send(context.Background(), []byte("x\r\n")) }()

		select {
		case err := <-sent:
			if err != nil {
				t.Errorf("expected nil, got: %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Send blocked after Run returned")
		}
		if got := transport.Written(); got != "" {
			t.Errorf("expected nothing written, got %q", got)
		}
	})

	t.Run("Queued request is released when Run returns", func(t *testing.T) {
		transport := NewTestTransport()
		d := NewDispatcher(discardLogger())
		d.Attach(transport)

		sent := make(chan error, 1)
		go func() { sent <- d.Send(context.Background(), []byte("x\r\n")) }()

		deadline := time.Now().Add(time.Second)
		for d.pending() != 1 {
			if time.Now().After(deadline) {
				t.Fatal("sender was not queued")
			}
			time.Sleep(time.Millisecond)
		}

		// Run with a cancelled context must not service the queue
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		d.Run(ctx)

		select {
		case err := <-sent:
			if err != nil {
				t.Errorf("expected nil, got: %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("queued Send was not released")
		}
		if d.pending() != 0 {
			t.Errorf("expected queue to be drained, got %d", d.pending())
		}
		if got := transport.Written(); got != "" {
			t.Errorf("expected nothing written, got %q", got)
		}
	})

	t.Run("Cancelled while waiting", func(t *testing.T) {
		d := NewDispatcher(discardLogger())
		d.Attach(NewTestTransport())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		// Run is not started, so the request is never serviced
		if err := d.Send(ctx, []byte("x")); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded, got: %v", err)
		}
	})
}
