// Package chat is the in-meeting chat stream: history fetched once over
// REST, then extended by live frames in arrival order.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/openmeet/meetctl/pkg/api"
	"github.com/openmeet/meetctl/pkg/log"
	"github.com/openmeet/meetctl/pkg/realtime"
)

var ErrStreamClosed = errors.New("chat stream is closed")

// HistoryAPI is the slice of the REST client the stream needs.
type HistoryAPI interface {
	ChatHistory(ctx context.Context, code string) ([]api.ChatMessage, error)
}

// Sender identifies the local participant on outbound messages.
type Sender struct {
	ID   string
	Name string
}

// Stream owns one meeting's chat sequence. Messages are append-only in
// arrival order; the transport's ordering is trusted as-is.
type Stream struct {
	code       string
	historyAPI HistoryAPI
	sender     Sender

	onMessage func(api.ChatMessage)

	mu       sync.Mutex
	conn     realtime.Conn
	sub      realtime.Subscription
	messages []api.ChatMessage
	closed   bool
}

func NewStream(code string, historyAPI HistoryAPI, sender Sender) *Stream {
	return &Stream{code: code, historyAPI: historyAPI, sender: sender}
}

// OnMessage registers a callback invoked for each live inbound message.
// Set it before Start.
func (s *Stream) OnMessage(fn func(api.ChatMessage)) {
	s.onMessage = fn
}

// LoadHistory replaces the local sequence with the server's, oldest first.
func (s *Stream) LoadHistory(ctx context.Context) error {
	history, err := s.historyAPI.ChatHistory(ctx, s.code)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStreamClosed
	}
	s.messages = history
	s.mu.Unlock()
	return nil
}

// Start subscribes the meeting's chat topic on the given connection.
func (s *Stream) Start(conn realtime.Conn) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStreamClosed
	}
	s.conn = conn
	s.mu.Unlock()

	sub, err := conn.Subscribe(realtime.ChatTopic(s.code), s.handleInbound)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Unsubscribe()
		return ErrStreamClosed
	}
	s.sub = sub
	s.mu.Unlock()
	return nil
}

func (s *Stream) handleInbound(body []byte) {
	var msg api.ChatMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Warnf("dropping malformed chat frame: %v", err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	if s.onMessage != nil {
		s.onMessage(msg)
	}
}

// Send publishes a message to the meeting. Content that trims to empty is
// dropped, as is anything sent without an active connection. The message
// shows up locally only when the server echoes it back on the topic.
func (s *Stream) Send(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	s.mu.Lock()
	conn := s.conn
	closed := s.closed
	s.mu.Unlock()

	if closed || conn == nil || !conn.Active() {
		return nil
	}

	payload, err := json.Marshal(api.ChatMessage{
		SenderID:   s.sender.ID,
		SenderName: s.sender.Name,
		Content:    content,
	})
	if err != nil {
		return err
	}
	return conn.Send(realtime.ChatSendDestination(s.code), payload)
}

// Messages returns a snapshot of the sequence, oldest first.
func (s *Stream) Messages() []api.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.ChatMessage(nil), s.messages...)
}

// Close unsubscribes from the topic. The connection itself belongs to the
// view that opened it and is not closed here.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sub := s.sub
	s.sub = nil
	s.conn = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	return nil
}
