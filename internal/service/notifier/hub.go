package notifier

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// RetentionCapacity is how many outstanding messages a subscriber may
// accumulate before the hub starts discarding its oldest ones.
const RetentionCapacity = 10

// Message is one trigger on the fan-out channel. Messages are ephemeral:
// they exist only in flight and are never persisted.
type Message struct {
	// Peer is the remote address that raised the trigger; empty for
	// triggers raised inside this process.
	Peer string
}

// Internal reports whether the trigger was raised inside this process.
func (m Message) Internal() bool {
	return m.Peer == ""
}

// LaggedError tells a subscriber it fell behind its retention window and
// lost messages. The subscription stays usable; the next Recv resumes at
// the oldest retained message.
type LaggedError struct {
	// Count is the number of messages discarded since the last Recv.
	Count uint64
}

// Error renders the lag condition.
func (e *LaggedError) Error() string {
	return fmt.Sprintf("subscriber lagged, %d messages dropped", e.Count)
}

// Hub fans every published message out to all current subscribers. Slow
// subscribers lose their oldest pending messages instead of stalling
// publishers or growing without bound.
type Hub struct {
	// mu guards subs.
	mu sync.Mutex
	// subs is the set of active subscriptions.
	subs map[*Subscription]struct{}
}

// Subscription receives messages published after Subscribe, in publish order.
type Subscription struct {
	// hub is the owning hub, used for Close.
	hub *Hub
	// ch buffers up to RetentionCapacity pending messages.
	ch chan Message
	// dropped counts messages discarded since the last Recv.
	dropped atomic.Uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new subscriber. It receives only messages published
// after this call.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		hub: h,
		ch:  make(chan Message, RetentionCapacity),
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	return s
}

// Publish delivers the message to every current subscriber. It never blocks:
// a full subscriber loses its oldest pending message instead.
func (h *Hub) Publish(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		s.offer(m)
	}
}

// offer enqueues the message, discarding the oldest pending one when the
// buffer is full. A concurrent Recv may free a slot between attempts, hence
// the retry loop.
func (s *Subscription) offer(m Message) {
	for {
		select {
		case s.ch <- m:
			return
		default:
		}

		select {
		case <-s.ch:
			s.dropped.Add(1)
		default:
		}
	}
}

// Recv returns the next message. When messages were discarded since the
// last call it returns a LaggedError instead; the caller resynchronizes by
// calling Recv again. Blocks until a message arrives or the context ends.
func (s *Subscription) Recv(ctx context.Context) (Message, error) {
	if n := s.dropped.Swap(0); n > 0 {
		return Message{}, &LaggedError{Count: n}
	}

	select {
	case m := <-s.ch:
		return m, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Close removes the subscription from the hub. Pending messages are dropped.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	delete(s.hub.subs, s)
	s.hub.mu.Unlock()
}
