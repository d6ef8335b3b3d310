package notifier

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestHub_FanOutInOrder verifies every subscriber gets every message in
// publish order.
func TestHub_FanOutInOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := NewHub()

	subs := []*Subscription{h.Subscribe(), h.Subscribe(), h.Subscribe()}

	for i := 0; i < 5; i++ {
		h.Publish(Message{Peer: "peer-" + strconv.Itoa(i)})
	}

	for _, sub := range subs {
		for i := 0; i < 5; i++ {
			m, err := sub.Recv(ctx)

			require.NoError(t, err)
			require.Equal(t, "peer-"+strconv.Itoa(i), m.Peer)
		}
	}
}

// TestHub_SubscribeSeesOnlyLaterMessages verifies subscription scope.
func TestHub_SubscribeSeesOnlyLaterMessages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := NewHub()

	h.Publish(Message{Peer: "before"})

	sub := h.Subscribe()
	h.Publish(Message{Peer: "after"})

	m, err := sub.Recv(ctx)

	require.NoError(t, err)
	require.Equal(t, "after", m.Peer)
}

// TestHub_LaggingSubscriberResynchronizes verifies the bounded retention
// window: overflow is reported once and reception resumes at the oldest
// retained message, without ever blocking the publisher.
func TestHub_LaggingSubscriberResynchronizes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := NewHub()
	sub := h.Subscribe()

	published := RetentionCapacity + 5
	for i := 0; i < published; i++ {
		h.Publish(Message{Peer: "peer-" + strconv.Itoa(i)})
	}

	_, err := sub.Recv(ctx)

	var lagged *LaggedError

	require.ErrorAs(t, err, &lagged)
	require.Equal(t, uint64(5), lagged.Count)

	// The retained window resumes right after the dropped prefix.
	for i := 5; i < published; i++ {
		m, err := sub.Recv(ctx)

		require.NoError(t, err)
		require.Equal(t, "peer-"+strconv.Itoa(i), m.Peer)
	}
}

// TestHub_ClosedSubscriptionStopsReceiving verifies Close removes the
// subscriber from the fan-out set.
func TestHub_ClosedSubscriptionStopsReceiving(t *testing.T) {
	t.Parallel()

	h := NewHub()
	sub := h.Subscribe()
	sub.Close()

	h.Publish(Message{Peer: "anyone"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := sub.Recv(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestMessage_Internal verifies the origin tag.
func TestMessage_Internal(t *testing.T) {
	t.Parallel()

	require.True(t, Message{}.Internal())
	require.False(t, Message{Peer: "127.0.0.1:9"}.Internal())
}
