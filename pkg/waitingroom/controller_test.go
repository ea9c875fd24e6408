package waitingroom

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmeet/meetctl/pkg/api"
	"github.com/openmeet/meetctl/pkg/realtime"
	"github.com/openmeet/meetctl/pkg/realtime/realtimetest"
)

// fakeListAPI serves a mutable waiting list and records decisions.
type fakeListAPI struct {
	mu        sync.Mutex
	entries   []api.WaitingEntry
	listErr   error
	decideErr error
	decisions []uuid.UUID
}

func (f *fakeListAPI) WaitingList(context.Context, string) ([]api.WaitingEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]api.WaitingEntry(nil), f.entries...), nil
}

func (f *fakeListAPI) Decide(_ context.Context, _ string, participantID uuid.UUID, _ api.ApprovalAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.decideErr != nil {
		return f.decideErr
	}
	f.decisions = append(f.decisions, participantID)
	return nil
}

func (f *fakeListAPI) setEntries(entries []api.WaitingEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = entries
}

func entry(name string) api.WaitingEntry {
	return api.WaitingEntry{
		ParticipantID: uuid.New(),
		UserID:        uuid.New(),
		DisplayName:   name,
	}
}

func TestController_StartFetchesInitialList(t *testing.T) {
	listAPI := &fakeListAPI{entries: []api.WaitingEntry{entry("ada"), entry("grace")}}
	conn := realtimetest.NewFakeConn()

	ctrl := NewController("abc-def-ghi", listAPI)
	defer ctrl.Close()

	var snapshots [][]api.WaitingEntry
	var mu sync.Mutex
	ctrl.OnChange(func(entries []api.WaitingEntry) {
		mu.Lock()
		snapshots = append(snapshots, entries)
		mu.Unlock()
	})

	require.NoError(t, ctrl.Start(context.Background(), conn))

	assert.Len(t, ctrl.Entries(), 2)
	assert.Contains(t, conn.Subscriptions(), realtime.AdminTopic("abc-def-ghi"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, snapshots, 1)
	assert.Len(t, snapshots[0], 2)
}

func TestController_AdminNotificationRefetches(t *testing.T) {
	listAPI := &fakeListAPI{entries: []api.WaitingEntry{entry("ada")}}
	conn := realtimetest.NewFakeConn()

	ctrl := NewController("abc-def-ghi", listAPI)
	defer ctrl.Close()

	changed := make(chan int, 8)
	ctrl.OnChange(func(entries []api.WaitingEntry) { changed <- len(entries) })

	require.NoError(t, ctrl.Start(context.Background(), conn))
	require.Equal(t, 1, <-changed)

	listAPI.setEntries([]api.WaitingEntry{entry("ada"), entry("grace"), entry("edsger")})
	conn.Emit(realtime.AdminTopic("abc-def-ghi"), nil)

	select {
	case n := <-changed:
		assert.Equal(t, 3, n)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refetch")
	}
	assert.Len(t, ctrl.Entries(), 3)
}

func TestController_DecideRemovesEntryLocally(t *testing.T) {
	first, second := entry("ada"), entry("grace")
	listAPI := &fakeListAPI{entries: []api.WaitingEntry{first, second}}
	conn := realtimetest.NewFakeConn()

	ctrl := NewController("abc-def-ghi", listAPI)
	defer ctrl.Close()
	require.NoError(t, ctrl.Start(context.Background(), conn))

	require.NoError(t, ctrl.Decide(context.Background(), first.ParticipantID, api.ActionApprove))

	remaining := ctrl.Entries()
	require.Len(t, remaining, 1)
	assert.Equal(t, second.ParticipantID, remaining[0].ParticipantID)
	assert.Equal(t, []uuid.UUID{first.ParticipantID}, listAPI.decisions)
}

func TestController_DecideFailureKeepsList(t *testing.T) {
	first := entry("ada")
	listAPI := &fakeListAPI{entries: []api.WaitingEntry{first}}
	conn := realtimetest.NewFakeConn()

	ctrl := NewController("abc-def-ghi", listAPI)
	defer ctrl.Close()
	require.NoError(t, ctrl.Start(context.Background(), conn))

	listAPI.decideErr = errors.New("conflict")
	err := ctrl.Decide(context.Background(), first.ParticipantID, api.ActionReject)
	require.Error(t, err)
	assert.Len(t, ctrl.Entries(), 1, "a failed decision must leave the list for retry")
}

func TestController_FetchErrorKeepsList(t *testing.T) {
	first := entry("ada")
	listAPI := &fakeListAPI{entries: []api.WaitingEntry{first}}
	conn := realtimetest.NewFakeConn()

	ctrl := NewController("abc-def-ghi", listAPI)
	defer ctrl.Close()
	require.NoError(t, ctrl.Start(context.Background(), conn))

	listAPI.mu.Lock()
	listAPI.listErr = errors.New("unavailable")
	listAPI.mu.Unlock()

	require.Error(t, ctrl.Fetch(context.Background()))
	assert.Len(t, ctrl.Entries(), 1)
}

func TestController_CloseIsIdempotent(t *testing.T) {
	listAPI := &fakeListAPI{}
	conn := realtimetest.NewFakeConn()

	ctrl := NewController("abc-def-ghi", listAPI)
	require.NoError(t, ctrl.Start(context.Background(), conn))

	require.NoError(t, ctrl.Close())
	require.NoError(t, ctrl.Close())
	assert.Empty(t, conn.Subscriptions(), "close must drop the admin subscription")

	assert.ErrorIs(t, ctrl.Start(context.Background(), conn), ErrControllerClosed)
	assert.ErrorIs(t, ctrl.Fetch(context.Background()), ErrControllerClosed)
}
