package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/errors"
	"tradedesk/internal/store"
)

func event(id string) store.ChangeEvent {
	return store.ChangeEvent{Op: store.OpInsert, Entity: store.EntityTrade, ID: id, At: time.Now()}
}

func recv(t *testing.T, ch <-chan store.ChangeEvent) store.ChangeEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return store.ChangeEvent{}
	}
}

func TestHubFansOutToAllSubscribers(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := make(chan store.ChangeEvent)
	h.Start(ctx, source)
	defer h.Stop()

	a, err := h.Subscribe("a")
	require.NoError(t, err)
	b, err := h.Subscribe("b")
	require.NoError(t, err)

	source <- event("trade-1")

	assert.Equal(t, "trade-1", recv(t, a).ID)
	assert.Equal(t, "trade-1", recv(t, b).ID)
}

func TestHubDuplicateSubscriber(t *testing.T) {
	h := NewHub()

	_, err := h.Subscribe("watch")
	require.NoError(t, err)

	_, err = h.Subscribe("watch")
	assert.ErrorIs(t, err, errors.ErrSubscriberExists)
}

func TestHubUnsubscribe(t *testing.T) {
	h := NewHub()

	ch, err := h.Subscribe("watch")
	require.NoError(t, err)
	require.NoError(t, h.Unsubscribe("watch"))

	_, open := <-ch
	assert.False(t, open, "channel should be closed")

	assert.ErrorIs(t, h.Unsubscribe("watch"), errors.ErrSubscriberUnknown)
}

func TestHubSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	h := NewHubWithConfig(HubConfig{
		BufferSize:           8,
		SubscriberBufferSize: 1,
		BroadcastTimeout:     time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := make(chan store.ChangeEvent)
	h.Start(ctx, source)
	defer h.Stop()

	// slow never reads; its one-slot buffer fills after the first event.
	_, err := h.Subscribe("slow")
	require.NoError(t, err)
	fast, err := h.Subscribe("fast")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		source <- event("trade-1")
		recv(t, fast)
	}

	assert.Eventually(t, func() bool {
		return h.Stats().EventsDropped > 0
	}, time.Second, 10*time.Millisecond)
}

func TestHubStats(t *testing.T) {
	h := NewHub()

	_, err := h.Subscribe("a")
	require.NoError(t, err)

	h.Publish(event("trade-1"))
	h.Publish(event("trade-2"))

	stats := h.Stats()
	assert.Equal(t, 1, stats.Subscribers)
	assert.Equal(t, uint64(2), stats.EventsReceived)
}

func TestHubStopIsIdempotent(t *testing.T) {
	h := NewHub()
	source := make(chan store.ChangeEvent)
	h.Start(context.Background(), source)

	h.Stop()
	h.Stop()
}
