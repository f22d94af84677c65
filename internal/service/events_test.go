package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversEvents(t *testing.T) {
	d := NewDispatcher(16)
	var got atomic.Int64
	d.Subscribe(func(ctx context.Context, evt OrderCreatedEvent) {
		if evt.OrderID == 7 {
			got.Add(1)
		}
	})
	stop := d.Start(2)
	defer func() { _ = stop(context.Background()) }()

	for i := 0; i < 5; i++ {
		d.Publish(OrderCreatedEvent{OrderID: 7, ProductID: 1})
	}

	require.Eventually(t, func() bool { return got.Load() == 5 }, 2*time.Second, 10*time.Millisecond)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	// no workers started: queue of 1 fills immediately
	d := NewDispatcher(1)
	d.Publish(OrderCreatedEvent{OrderID: 1})

	done := make(chan struct{})
	go func() {
		d.Publish(OrderCreatedEvent{OrderID: 2})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
	assert.Equal(t, 1, d.QueueLen())
}
