// Package admission drives a participant's path into a meeting: the join
// request, the waiting room, and the asynchronous host decision.
package admission

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openmeet/meetctl/pkg/api"
	"github.com/openmeet/meetctl/pkg/log"
	"github.com/openmeet/meetctl/pkg/realtime"
)

// State is the flow's position in the admission protocol.
type State int

const (
	StateIdle State = iota
	StateAsking
	StatePending
	StateApproved
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAsking:
		return "asking"
	case StatePending:
		return "pending"
	case StateApproved:
		return "approved"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

var ErrFlowClosed = errors.New("admission flow is closed")

const (
	defaultWaitingMessage = "Waiting for the host to let you in..."
	hostJoinedMessage     = "The host has joined. Waiting to be let in..."
	rejectedMessage       = "The host declined your request to join."
	timedOutMessage       = "Timed out waiting for host approval."
	connectFailedMessage  = "Could not reach the meeting's realtime channel."
	malformedGrantMessage = "The server approved the join but sent an incomplete grant."
	requestFailedMessage  = "Could not send the join request."
)

// MediaPrefs are the caller's local mic/camera toggles. They never travel
// to the server; they are threaded through to the meeting entry grant.
type MediaPrefs struct {
	MicOn bool
	CamOn bool
}

// Grant is everything needed to enter the meeting once approved.
type Grant struct {
	Token     string
	Role      string
	ServerURL string
	Prefs     MediaPrefs
}

// JoinAPI is the slice of the REST client the flow needs.
type JoinAPI interface {
	Join(ctx context.Context, code, password string) (*api.JoinOutcome, error)
}

// Dialer opens the realtime connection used while pending. The flow opens
// at most one and owns it exclusively.
type Dialer func(ctx context.Context) (realtime.Conn, error)

// Config holds the per-meeting parameters of one admission attempt.
type Config struct {
	MeetingCode string
	Password    string
	UserID      uuid.UUID

	// PendingTimeout bounds the wait for a host decision. Zero waits
	// until a decision arrives or the flow is closed.
	PendingTimeout time.Duration
}

// Flow is the admission state machine for one meeting view. All state
// transitions happen under one mutex; network calls run outside it and
// re-check the state afterwards, so a Close during a round trip wins.
type Flow struct {
	cfg     *Config
	joinAPI JoinAPI
	dial    Dialer

	onTransition func(State)

	mu             sync.Mutex
	state          State
	conn           realtime.Conn
	waitingMessage string
	errMessage     string
	grant          *Grant
	prefs          MediaPrefs
	timer          *time.Timer
	rechecking     bool
	closed         bool
}

func NewFlow(cfg *Config, joinAPI JoinAPI, dial Dialer) *Flow {
	return &Flow{cfg: cfg, joinAPI: joinAPI, dial: dial, state: StateIdle}
}

// OnTransition registers a callback invoked after every state change,
// outside the flow's lock. Set it before the first RequestToJoin.
func (f *Flow) OnTransition(fn func(State)) {
	f.onTransition = fn
}

// RequestToJoin asks the backend to admit the caller. While a request is in
// flight or the flow is already waiting, extra calls are no-ops: the state
// stays put and no second connection is opened.
func (f *Flow) RequestToJoin(ctx context.Context, prefs MediaPrefs) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFlowClosed
	}
	if f.state == StateAsking || f.state == StatePending {
		f.mu.Unlock()
		return nil
	}
	f.prefs = prefs
	f.errMessage = ""
	f.state = StateAsking
	f.mu.Unlock()
	f.notify(StateAsking)

	out, err := f.joinAPI.Join(ctx, f.cfg.MeetingCode, f.cfg.Password)

	f.mu.Lock()
	if f.closed || f.state != StateAsking {
		f.mu.Unlock()
		return nil
	}
	if err != nil {
		f.errMessage = requestFailedMessage
		f.state = StateIdle
		f.mu.Unlock()
		f.notify(StateIdle)
		return err
	}

	switch out.Status {
	case api.JoinApproved:
		if out.Token == "" || out.ServerURL == "" {
			f.errMessage = malformedGrantMessage
			f.state = StateIdle
			f.mu.Unlock()
			f.notify(StateIdle)
			return errors.New("approved join outcome missing token or server URL")
		}
		f.grant = &Grant{Token: out.Token, Role: out.Role, ServerURL: out.ServerURL, Prefs: f.prefs}
		f.state = StateApproved
		f.mu.Unlock()
		f.notify(StateApproved)
		return nil

	case api.JoinPending:
		f.waitingMessage = out.Message
		if f.waitingMessage == "" {
			f.waitingMessage = defaultWaitingMessage
		}
		f.state = StatePending
		needConn := f.conn == nil
		f.mu.Unlock()
		f.notify(StatePending)
		if needConn {
			if err := f.openConn(ctx); err != nil {
				return err
			}
		}
		f.armTimer()
		return nil

	case api.JoinRejected:
		f.errMessage = out.Message
		if f.errMessage == "" {
			f.errMessage = rejectedMessage
		}
		f.state = StateIdle
		f.mu.Unlock()
		f.notify(StateIdle)
		return nil

	default:
		f.errMessage = requestFailedMessage
		f.state = StateIdle
		f.mu.Unlock()
		f.notify(StateIdle)
		return errors.New("unexpected join status " + string(out.Status))
	}
}

// openConn dials the realtime channel and subscribes the two waiting-room
// topics: the per-user decision push and the host-joined broadcast.
func (f *Flow) openConn(ctx context.Context) error {
	conn, err := f.dial(ctx)
	if err != nil {
		f.failPending(connectFailedMessage)
		return err
	}

	f.mu.Lock()
	if f.closed || f.state != StatePending {
		f.mu.Unlock()
		conn.Close()
		return nil
	}
	f.conn = conn
	f.mu.Unlock()

	if _, err := conn.Subscribe(realtime.UserTopic(f.cfg.MeetingCode, f.cfg.UserID), f.handleDecision); err != nil {
		f.failPending(connectFailedMessage)
		return err
	}
	if _, err := conn.Subscribe(realtime.WaitingRoomTopic(f.cfg.MeetingCode), f.handleHostJoined); err != nil {
		f.failPending(connectFailedMessage)
		return err
	}
	return nil
}

// handleDecision applies an asynchronous admission decision pushed on the
// per-user topic.
func (f *Flow) handleDecision(body []byte) {
	var out api.JoinOutcome
	if err := json.Unmarshal(body, &out); err != nil {
		log.Warnf("dropping malformed admission decision: %v", err)
		return
	}
	f.applyOutcome(&out)
}

// handleHostJoined reacts to the meeting-wide broadcast that the host has
// arrived: refresh the waiting message and re-check the join once. The
// re-check is idempotent server-side; if it still says pending, we keep
// waiting for the push.
func (f *Flow) handleHostJoined([]byte) {
	f.mu.Lock()
	if f.closed || f.state != StatePending || f.rechecking {
		f.mu.Unlock()
		return
	}
	f.rechecking = true
	f.waitingMessage = hostJoinedMessage
	f.mu.Unlock()
	f.notify(StatePending)

	out, err := f.joinAPI.Join(context.Background(), f.cfg.MeetingCode, f.cfg.Password)

	f.mu.Lock()
	f.rechecking = false
	f.mu.Unlock()

	if err != nil {
		log.Warnf("join re-check failed: %v", err)
		return
	}
	f.applyOutcome(out)
}

// applyOutcome moves the machine out of PENDING when the outcome says so.
// Anything arriving in another state is stale and ignored.
func (f *Flow) applyOutcome(out *api.JoinOutcome) {
	f.mu.Lock()
	if f.closed || f.state != StatePending {
		f.mu.Unlock()
		return
	}

	switch out.Status {
	case api.JoinApproved:
		f.grant = &Grant{Token: out.Token, Role: out.Role, ServerURL: out.ServerURL, Prefs: f.prefs}
		conn := f.releaseLocked()
		f.state = StateApproved
		f.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		f.notify(StateApproved)

	case api.JoinRejected:
		f.errMessage = out.Message
		if f.errMessage == "" {
			f.errMessage = rejectedMessage
		}
		conn := f.releaseLocked()
		f.state = StateIdle
		f.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		f.notify(StateIdle)

	default:
		if out.Message != "" {
			f.waitingMessage = out.Message
		}
		f.mu.Unlock()
	}
}

// failPending aborts a pending wait after an infrastructure failure.
func (f *Flow) failPending(message string) {
	f.mu.Lock()
	if f.closed || f.state != StatePending {
		f.mu.Unlock()
		return
	}
	f.errMessage = message
	conn := f.releaseLocked()
	f.state = StateIdle
	f.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	f.notify(StateIdle)
}

func (f *Flow) armTimer() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cfg.PendingTimeout <= 0 || f.closed || f.state != StatePending || f.timer != nil {
		return
	}
	f.timer = time.AfterFunc(f.cfg.PendingTimeout, f.expire)
}

func (f *Flow) expire() {
	f.mu.Lock()
	if f.closed || f.state != StatePending {
		f.mu.Unlock()
		return
	}
	f.errMessage = timedOutMessage
	conn := f.releaseLocked()
	f.state = StateTimedOut
	f.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	f.notify(StateTimedOut)
}

// releaseLocked detaches the connection and timer; the caller closes the
// returned connection outside the lock.
func (f *Flow) releaseLocked() realtime.Conn {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	conn := f.conn
	f.conn = nil
	return conn
}

// Close tears the flow down from any state: the connection is closed, the
// timer stopped, and every in-flight response or late frame ignored.
func (f *Flow) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	conn := f.releaseLocked()
	f.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	return nil
}

func (f *Flow) notify(s State) {
	if f.onTransition != nil {
		f.onTransition(s)
	}
}

// State returns the current flow state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// WaitingMessage is the human-readable text shown while pending.
func (f *Flow) WaitingMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waitingMessage
}

// ErrorMessage is the user-facing text for the last failure or rejection.
func (f *Flow) ErrorMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMessage
}

// Grant returns the entry grant once approved, nil otherwise.
func (f *Flow) Grant() *Grant {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.grant == nil {
		return nil
	}
	g := *f.grant
	return &g
}
