// Package realtimetest provides an in-memory realtime.Conn for controller
// tests: handlers run synchronously on Emit, frames sent are recorded.
package realtimetest

import (
	"sync"

	"github.com/openmeet/meetctl/pkg/realtime"
)

// SentFrame is one frame captured by FakeConn.Send.
type SentFrame struct {
	Destination string
	Body        []byte
}

// FakeConn implements realtime.Conn entirely in memory.
type FakeConn struct {
	mu     sync.Mutex
	subs   map[string][]*fakeSub // destination -> subscriptions
	sent   []SentFrame
	closed bool
}

type fakeSub struct {
	destination string
	fn          realtime.Handler
	conn        *FakeConn
}

func NewFakeConn() *FakeConn {
	return &FakeConn{subs: make(map[string][]*fakeSub)}
}

func (c *FakeConn) Subscribe(destination string, fn realtime.Handler) (realtime.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, realtime.ErrClosed
	}
	sub := &fakeSub{destination: destination, fn: fn, conn: c}
	c.subs[destination] = append(c.subs[destination], sub)
	return sub, nil
}

func (c *FakeConn) Send(destination string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return realtime.ErrClosed
	}
	c.sent = append(c.sent, SentFrame{Destination: destination, Body: append([]byte(nil), body...)})
	return nil
}

func (c *FakeConn) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.subs = make(map[string][]*fakeSub)
	return nil
}

func (s *fakeSub) Destination() string {
	return s.destination
}

func (s *fakeSub) Unsubscribe() error {
	c := s.conn
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.subs[s.destination][:0]
	for _, sub := range c.subs[s.destination] {
		if sub != s {
			remaining = append(remaining, sub)
		}
	}
	c.subs[s.destination] = remaining
	return nil
}

// Emit delivers a frame body to every handler subscribed to destination.
// Handlers registered at Close time are gone, so emitting against a closed
// connection is a no-op, matching the real client's teardown guarantee.
func (c *FakeConn) Emit(destination string, body []byte) {
	c.mu.Lock()
	handlers := make([]realtime.Handler, 0, len(c.subs[destination]))
	for _, sub := range c.subs[destination] {
		handlers = append(handlers, sub.fn)
	}
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(body)
	}
}

// Closed reports whether Close was called.
func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Sent returns all captured outbound frames.
func (c *FakeConn) Sent() []SentFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SentFrame(nil), c.sent...)
}

// Subscriptions returns the destinations with at least one live handler.
func (c *FakeConn) Subscriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for dest, subs := range c.subs {
		if len(subs) > 0 {
			out = append(out, dest)
		}
	}
	return out
}
