package notifier

// Broadcaster lets internal producers publish triggers to every subscribed
// peer without depending on the server itself.
type Broadcaster struct {
	// hub is the shared fan-out channel.
	hub *Hub
}

// Trigger publishes an internally-raised trigger. Delivery is identical to
// a peer-originated one.
func (b *Broadcaster) Trigger() {
	b.hub.Publish(Message{})
}
