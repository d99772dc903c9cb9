package crawler

import (
	"context"
	"errors"
	"shopscout/shopscout/utils/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func produce(n int) <-chan types.Event {
	ch := make(chan types.Event)
	go func() {
		defer close(ch)
		for i := 1; i <= n; i++ {
			ch <- types.PageEvent(i)
		}
		ch <- types.SummaryEvent(types.RunSummary{TotalPages: n})
	}()
	return ch
}

func TestDeliverInOrder(t *testing.T) {
	var got []types.Event
	err := Deliver(context.Background(), produce(3), SinkFunc(func(ctx context.Context, ev types.Event) error {
		got = append(got, ev)
		return nil
	}))
	assert.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, 1, got[0].Page)
	assert.True(t, got[3].IsSummary())
}

func TestDeliverDrainsAfterSinkError(t *testing.T) {
	boom := errors.New("client gone")
	sends := 0
	events := produce(5)
	err := Deliver(context.Background(), events, SinkFunc(func(ctx context.Context, ev types.Event) error {
		sends++
		return boom
	}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, sends)

	_, open := <-events
	assert.False(t, open)
}

func TestDeliverStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sends := 0
	err := Deliver(ctx, produce(2), SinkFunc(func(ctx context.Context, ev types.Event) error {
		sends++
		return nil
	}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, sends)
}
