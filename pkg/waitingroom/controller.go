// Package waitingroom maintains the host's view of participants awaiting
// admission. The server is the source of truth: the list is always replaced
// wholesale from a fetch, never patched incrementally.
package waitingroom

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/openmeet/meetctl/pkg/api"
	"github.com/openmeet/meetctl/pkg/log"
	"github.com/openmeet/meetctl/pkg/realtime"
)

var ErrControllerClosed = errors.New("waiting room controller is closed")

// ListAPI is the slice of the REST client the controller needs.
type ListAPI interface {
	WaitingList(ctx context.Context, code string) ([]api.WaitingEntry, error)
	Decide(ctx context.Context, code string, participantID uuid.UUID, action api.ApprovalAction) error
}

// Controller owns one meeting's waiting list on behalf of its host.
type Controller struct {
	code    string
	listAPI ListAPI

	onChange func([]api.WaitingEntry)

	mu      sync.Mutex
	entries []api.WaitingEntry
	sub     realtime.Subscription
	closed  bool

	// notify coalesces admin-topic pokes: many rapid notifications may
	// collapse into one re-fetch, which is fine because every fetch
	// returns the full authoritative list.
	notify chan struct{}
	stop   chan struct{}
}

func NewController(code string, listAPI ListAPI) *Controller {
	return &Controller{
		code:    code,
		listAPI: listAPI,
		notify:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

// OnChange registers a callback invoked with a snapshot after every list
// replacement. Set it before Start.
func (c *Controller) OnChange(fn func([]api.WaitingEntry)) {
	c.onChange = fn
}

// Start subscribes the host-only admin topic and begins re-fetching the
// list whenever the backend pokes it. The notification carries no payload;
// its only meaning is "fetch again".
func (c *Controller) Start(ctx context.Context, conn realtime.Conn) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	c.mu.Unlock()

	sub, err := conn.Subscribe(realtime.AdminTopic(c.code), func([]byte) {
		select {
		case c.notify <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sub.Unsubscribe()
		return ErrControllerClosed
	}
	c.sub = sub
	c.mu.Unlock()

	go c.refreshLoop(ctx)
	return c.Fetch(ctx)
}

func (c *Controller) refreshLoop(ctx context.Context) {
	for {
		select {
		case <-c.notify:
			if err := c.Fetch(ctx); err != nil {
				log.WithError(err).Warn("waiting list refresh failed")
			}
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Fetch replaces the local list with the server's current waiting room.
func (c *Controller) Fetch(ctx context.Context) error {
	entries, err := c.listAPI.WaitingList(ctx, c.code)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	c.entries = entries
	snapshot := append([]api.WaitingEntry(nil), entries...)
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(snapshot)
	}
	return nil
}

// Decide approves or rejects one waiting participant. On success the entry
// is removed locally right away for responsiveness; the next fetch
// reconciles against the server either way. On failure the list is left
// untouched so the host can retry.
func (c *Controller) Decide(ctx context.Context, participantID uuid.UUID, action api.ApprovalAction) error {
	if err := c.listAPI.Decide(ctx, c.code, participantID, action); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.ParticipantID != participantID {
			kept = append(kept, e)
		}
	}
	c.entries = kept
	snapshot := append([]api.WaitingEntry(nil), kept...)
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(snapshot)
	}
	return nil
}

// Entries returns a snapshot of the current waiting list.
func (c *Controller) Entries() []api.WaitingEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.WaitingEntry(nil), c.entries...)
}

// Close unsubscribes and stops the refresh loop. Idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	close(c.stop)
	if sub != nil {
		sub.Unsubscribe()
	}
	return nil
}
