// Package realtime is the client's STOMP-over-WebSocket messaging layer.
// One Conn is one logical realtime session: a set of topic subscriptions
// plus a publish channel, scoped to the lifetime of whatever opened it.
package realtime

// Handler receives the body of one inbound MESSAGE frame. Handlers for a
// given topic run sequentially on the connection's read loop, in transport
// delivery order.
type Handler func(body []byte)

// Subscription is one active topic subscription.
type Subscription interface {
	// Destination returns the subscribed topic.
	Destination() string
	// Unsubscribe unregisters the handler synchronously before notifying
	// the broker; no handler invocation happens after it returns.
	Unsubscribe() error
}

// Conn is one logical realtime session. Implementations must make Close
// idempotent and must unregister all handlers synchronously inside Close,
// so that late frames on a dying socket are never observed.
type Conn interface {
	Subscribe(destination string, fn Handler) (Subscription, error)
	Send(destination string, body []byte) error
	Active() bool
	Close() error
}
