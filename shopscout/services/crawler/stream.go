package crawler

import (
	"context"
	"shopscout/shopscout/utils/types"
)

// Sink writes one event to a client and flushes it immediately.
type Sink interface {
	Send(ctx context.Context, ev types.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev types.Event) error

func (f SinkFunc) Send(ctx context.Context, ev types.Event) error { return f(ctx, ev) }

// Deliver forwards events to sink until the channel closes. Once the sink
// fails or ctx is done, events are drained without sending so the producing
// run is never blocked. The first error is returned.
func Deliver(ctx context.Context, events <-chan types.Event, sink Sink) error {
	var firstErr error
	for ev := range events {
		if firstErr != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			firstErr = err
			continue
		}
		if err := sink.Send(ctx, ev); err != nil {
			firstErr = err
		}
	}
	return firstErr
}
