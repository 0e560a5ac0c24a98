package terrain

import (
	"context"
	"errors"
	"time"
)

// Drain is the consumer side of a generation: it receives snapshots from sink
// with a bounded wait, hands each one to fn, and retries on timeout. It stops
// only once h has finished and sink is empty, so a snapshot published just
// before the producer returned is never lost. It returns h's result, or
// ctx.Err() if ctx ends first; in that case sink is closed so a producer
// blocked in Publish fails with ErrChannelClosed.
func Drain(ctx context.Context, h *Handle, sink *Progress, timeout time.Duration, fn func(*Matrix)) (*Matrix, error) {
	for !(h.Finished() && sink.Len() == 0) {
		if err := ctx.Err(); err != nil {
			sink.Close()
			return nil, err
		}
		m, err := sink.Receive(timeout)
		if errors.Is(err, ErrReceiveTimeout) {
			continue
		}
		if fn != nil {
			fn(m)
		}
	}
	return h.Wait()
}
