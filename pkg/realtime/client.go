package realtime

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/openmeet/meetctl/pkg/config"
	"github.com/openmeet/meetctl/pkg/log"
)

// Client is the STOMP-over-WebSocket implementation of Conn.
type Client struct {
	conn *websocket.Conn
	cfg  config.RealtimeConfig

	sendChan chan []byte
	stopChan chan struct{}

	mu     sync.RWMutex
	subs   map[string]*subscription // keyed by subscription id
	closed bool

	closeOnce sync.Once
}

type subscription struct {
	id          string
	destination string
	fn          Handler
	client      *Client
}

func (s *subscription) Destination() string {
	return s.destination
}

func (s *subscription) Unsubscribe() error {
	return s.client.unsubscribe(s.id)
}

// Dial opens the WebSocket, performs the STOMP CONNECT handshake and starts
// the read/write pumps. The returned client is ready to subscribe.
func Dial(ctx context.Context, brokerURL string, cfg config.RealtimeConfig) (*Client, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, brokerURL, nil)
	if err != nil {
		return nil, err
	}

	connect := NewFrame(CmdConnect,
		HeaderAcceptVersion, "1.0,1.1,1.2",
		HeaderHost, u.Host,
		HeaderHeartBeat, "0,0",
	)
	conn.SetWriteDeadline(time.Now().Add(cfg.DialTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, connect.Marshal()); err != nil {
		conn.Close()
		return nil, err
	}

	// Read until CONNECTED; the broker may precede it with heartbeats.
	conn.SetReadDeadline(time.Now().Add(cfg.DialTimeout))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return nil, err
		}
		frame, err := ParseFrame(data)
		if err != nil {
			conn.Close()
			return nil, err
		}
		if frame == nil {
			continue
		}
		if frame.Command == CmdError {
			conn.Close()
			log.Errorf("broker rejected connect: %s", frame.Headers[HeaderMessage])
			return nil, ErrBrokerRefused
		}
		if frame.Command == CmdConnected {
			break
		}
	}

	c := &Client{
		conn:     conn,
		cfg:      cfg,
		sendChan: make(chan []byte, 64),
		stopChan: make(chan struct{}),
		subs:     make(map[string]*subscription),
	}

	go c.writePump()
	go c.readPump()

	log.Debugf("realtime session established with %s", u.Host)
	return c, nil
}

// Subscribe registers the handler and asks the broker for the topic.
func (c *Client) Subscribe(destination string, fn Handler) (Subscription, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	sub := &subscription{
		id:          uuid.NewString(),
		destination: destination,
		fn:          fn,
		client:      c,
	}
	c.subs[sub.id] = sub
	c.mu.Unlock()

	frame := NewFrame(CmdSubscribe,
		HeaderID, sub.id,
		HeaderDestination, destination,
		HeaderAck, "auto",
	)
	if err := c.enqueue(frame); err != nil {
		c.mu.Lock()
		delete(c.subs, sub.id)
		c.mu.Unlock()
		return nil, err
	}

	log.Debugf("subscribed %s to %s", sub.id, destination)
	return sub, nil
}

func (c *Client) unsubscribe(id string) error {
	c.mu.Lock()
	sub, exists := c.subs[id]
	if exists {
		// Unregister before telling the broker so no handler runs after
		// Unsubscribe returns.
		delete(c.subs, id)
	}
	closed := c.closed
	c.mu.Unlock()

	if !exists || closed {
		return nil
	}

	frame := NewFrame(CmdUnsubscribe, HeaderID, id)
	if err := c.enqueue(frame); err != nil && err != ErrClosed {
		return err
	}
	log.Debugf("unsubscribed %s from %s", id, sub.destination)
	return nil
}

// Send publishes a frame to a destination.
func (c *Client) Send(destination string, body []byte) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	frame := NewFrame(CmdSend,
		HeaderDestination, destination,
		HeaderContentType, "application/json",
	)
	frame.Body = body
	return c.enqueue(frame)
}

// Active reports whether the session can still carry traffic.
func (c *Client) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// Close tears the session down from any state. Handlers are unregistered
// synchronously before the socket goes away; a frame already in flight when
// Close returns is dropped, never dispatched.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.subs = make(map[string]*subscription)
		c.mu.Unlock()
		close(c.stopChan)
	})
	return nil
}

func (c *Client) enqueue(f *Frame) error {
	select {
	case c.sendChan <- f.Marshal():
		return nil
	case <-c.stopChan:
		return ErrClosed
	}
}

// writePump owns all writes to the socket, including the final DISCONNECT.
func (c *Client) writePump() {
	pingTicker := time.NewTicker(c.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case data := <-c.sendChan:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Errorf("error writing frame: %v", err)
				c.Close()
				c.conn.Close()
				return
			}

		case <-pingTicker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Errorf("error sending ping: %v", err)
				c.Close()
				c.conn.Close()
				return
			}

		case <-c.stopChan:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			c.conn.WriteMessage(websocket.TextMessage, NewFrame(CmdDisconnect).Marshal())
			c.conn.Close()
			return
		}
	}
}

// readPump dispatches inbound MESSAGE frames to their subscription handlers.
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.Active() && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Errorf("realtime read error: %v", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))

		frame, err := ParseFrame(data)
		if err != nil {
			log.Warnf("dropping unparseable frame: %v", err)
			continue
		}
		if frame == nil {
			continue // heartbeat
		}

		switch frame.Command {
		case CmdMessage:
			c.mu.RLock()
			sub := c.subs[frame.Headers[HeaderSubscription]]
			c.mu.RUnlock()
			if sub != nil {
				sub.fn(frame.Body)
			}
		case CmdError:
			log.Errorf("broker error: %s", frame.Headers[HeaderMessage])
		case CmdReceipt:
			log.Debugf("broker receipt: %s", frame.Headers["receipt-id"])
		default:
			log.Debugf("ignoring %s frame", frame.Command)
		}
	}
}
