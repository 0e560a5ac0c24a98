package terrain

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestProgressFIFO(t *testing.T) {
	p := NewProgress(3)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		m := NewMatrix(1, 1)
		m.Data[0] = float64(i)
		if err := p.Publish(ctx, m); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if p.Len() != 3 || p.Cap() != 3 {
		t.Fatalf("Len/Cap = %d/%d, want 3/3", p.Len(), p.Cap())
	}
	for i := 0; i < 3; i++ {
		m, err := p.Receive(time.Second)
		if err != nil {
			t.Fatal(err)
		}
		if m.Data[0] != float64(i) {
			t.Errorf("received %f, want %d", m.Data[0], i)
		}
	}
}

func TestProgressDefaultCapacity(t *testing.T) {
	if got := NewProgress(0).Cap(); got != DefaultCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultCapacity, got)
	}
}

func TestProgressReceiveTimeout(t *testing.T) {
	p := NewProgress(1)
	start := time.Now()
	_, err := p.Receive(20 * time.Millisecond)
	if !errors.Is(err, ErrReceiveTimeout) {
		t.Fatalf("expected ErrReceiveTimeout, got %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Errorf("Receive returned before its timeout")
	}
	if _, ok := p.TryReceive(); ok {
		t.Errorf("TryReceive on an empty queue reported a value")
	}
}

// TestProgressBackpressure: with capacity 1 the second Publish must wait until
// the consumer takes the first snapshot.
func TestProgressBackpressure(t *testing.T) {
	p := NewProgress(1)
	ctx := context.Background()
	if err := p.Publish(ctx, NewMatrix(1, 1)); err != nil {
		t.Fatal(err)
	}

	published := make(chan time.Time, 1)
	go func() {
		_ = p.Publish(ctx, NewMatrix(1, 1))
		published <- time.Now()
	}()

	select {
	case <-published:
		t.Fatal("Publish did not block on a full queue")
	case <-time.After(50 * time.Millisecond):
	}

	drained := time.Now()
	if _, err := p.Receive(time.Second); err != nil {
		t.Fatal(err)
	}
	select {
	case at := <-published:
		if at.Before(drained) {
			t.Errorf("blocked Publish completed before the consumer drained")
		}
	case <-time.After(time.Second):
		t.Fatal("Publish stayed blocked after the queue drained")
	}
}

func TestProgressClosed(t *testing.T) {
	p := NewProgress(1)
	ctx := context.Background()
	if err := p.Publish(ctx, NewMatrix(1, 1)); err != nil {
		t.Fatal(err)
	}

	errc := make(chan error, 1)
	go func() { errc <- p.Publish(ctx, NewMatrix(1, 1)) }()
	time.Sleep(10 * time.Millisecond)
	p.Close()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrChannelClosed) {
			t.Errorf("blocked Publish: expected ErrChannelClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not release a blocked Publish")
	}
	if err := p.Publish(ctx, NewMatrix(1, 1)); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("Publish after Close: expected ErrChannelClosed, got %v", err)
	}
	p.Close()
}

func TestProgressPublishCanceled(t *testing.T) {
	p := NewProgress(1)
	_ = p.Publish(context.Background(), NewMatrix(1, 1))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.Publish(ctx, NewMatrix(1, 1)); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}
