package room_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/corsairlabs/meetcore/internal/callstore"
	"github.com/corsairlabs/meetcore/internal/events"
	"github.com/corsairlabs/meetcore/internal/room"
)

type captured struct {
	socketID string
	event    events.Event
	payload  any
}

type fakeNotifier struct {
	mu  sync.Mutex
	out []captured
}

func (n *fakeNotifier) Emit(socketID string, event events.Event, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.out = append(n.out, captured{socketID, event, payload})
}

func (n *fakeNotifier) Broadcast(socketIDs []string, exceptSocketID string, event events.Event, payload any) {
	for _, id := range socketIDs {
		if id == exceptSocketID {
			continue
		}
		n.Emit(id, event, payload)
	}
}

type fakeMediaCloser struct {
	mu     sync.Mutex
	closed []string
}

func (f *fakeMediaCloser) CloseRoom(roomID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, roomID)
}

func joinCtx(socketID string) context.Context {
	return room.WithSocketID(context.Background(), socketID)
}

func TestRegistry_CreateAndJoin(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := callstore.NewMemStore()
	notifier := &fakeNotifier{}
	registry := room.New(store, notifier, &fakeMediaCloser{})
	defer registry.Close()

	host := room.Identity{UserID: "user-host", DisplayName: "Host"}
	created, err := registry.Create(context.Background(), host, room.CreateOptions{Name: "standup", MaxParticipants: 5})
	require.NoError(t, err)
	assert.True(t, created.IsHost)
	assert.Empty(t, created.Participants)

	guest := room.Identity{UserID: "guest:abc", DisplayName: "Guest"}
	joined, err := registry.Join(joinCtx("socket-guest"), guest, created.RoomID, "")
	require.NoError(t, err)
	assert.False(t, joined.IsHost)
	require.Len(t, joined.Participants, 1)
	assert.Equal(t, host.UserID, joined.Participants[0].UserID)
}

func TestRegistry_JoinRejectsWrongPasscode(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := callstore.NewMemStore()
	require.NoError(t, store.Provision(context.Background(), &callstore.Record{
		CallID: "call-1", RoomID: "room-1", HostUserID: "user-host",
		Status: callstore.CallStatusWaiting, Passcode: "secret", CallType: callstore.CallTypeOpen, MaxParticipants: 10,
	}))

	registry := room.New(store, &fakeNotifier{}, &fakeMediaCloser{})
	defer registry.Close()

	_, err := registry.Join(joinCtx("socket-1"), room.Identity{UserID: "user-1"}, "room-1", "wrong")
	require.Error(t, err)
}

func TestRegistry_JoinRejectsUninvitedUser(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := callstore.NewMemStore()
	require.NoError(t, store.Provision(context.Background(), &callstore.Record{
		CallID: "call-1", RoomID: "room-1", HostUserID: "user-host",
		Status: callstore.CallStatusWaiting, CallType: callstore.CallTypeInvitedOnly, MaxParticipants: 10,
		InvitedUserIDs: map[string]struct{}{"user-invited": {}},
	}))

	registry := room.New(store, &fakeNotifier{}, &fakeMediaCloser{})
	defer registry.Close()

	_, err := registry.Join(joinCtx("socket-1"), room.Identity{UserID: "user-uninvited"}, "room-1", "")
	require.Error(t, err)

	_, err = registry.Join(joinCtx("socket-2"), room.Identity{UserID: "user-invited"}, "room-1", "")
	require.NoError(t, err)
}

func TestRegistry_JoinRejectsWhenRoomFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := callstore.NewMemStore()
	registry := room.New(store, &fakeNotifier{}, &fakeMediaCloser{})
	defer registry.Close()

	host := room.Identity{UserID: "user-host"}
	created, err := registry.Create(context.Background(), host, room.CreateOptions{MaxParticipants: 1})
	require.NoError(t, err)

	_, err = registry.Join(joinCtx("socket-2"), room.Identity{UserID: "user-2"}, created.RoomID, "")
	require.Error(t, err)
}

func TestRegistry_LeaveThenReapRemovesParticipantAndEmptiesRoom(t *testing.T) {
	defer goleak.VerifyNone(t)

	originalGrace := room.ReapGrace
	room.ReapGrace = 50 * time.Millisecond
	defer func() { room.ReapGrace = originalGrace }()

	store := callstore.NewMemStore()
	media := &fakeMediaCloser{}
	registry := room.New(store, &fakeNotifier{}, media)
	defer registry.Close()

	host := room.Identity{UserID: "user-host"}
	created, err := registry.Create(context.Background(), host, room.CreateOptions{})
	require.NoError(t, err)

	registry.Leave(context.Background(), created.RoomID, created.Self.PeerID)

	p, ok := registry.ParticipantOf(created.RoomID, created.Self.PeerID)
	require.True(t, ok)
	assert.False(t, p.IsConnected)

	require.Eventually(t, func() bool {
		_, stillThere := registry.RoomOf(created.RoomID)
		return !stillThere
	}, 2*time.Second, 20*time.Millisecond, "room should be deleted once the only participant reaps")

	media.mu.Lock()
	closedCount := len(media.closed)
	media.mu.Unlock()
	assert.Equal(t, 1, closedCount)
}

func TestRegistry_RejoinBeforeReapCancelsTimer(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := callstore.NewMemStore()
	registry := room.New(store, &fakeNotifier{}, &fakeMediaCloser{})
	defer registry.Close()

	host := room.Identity{UserID: "user-host"}
	created, err := registry.Create(context.Background(), host, room.CreateOptions{})
	require.NoError(t, err)

	registry.Leave(context.Background(), created.RoomID, created.Self.PeerID)
	rejoined, err := registry.Join(joinCtx("socket-new"), host, created.RoomID, "")
	require.NoError(t, err)
	assert.Equal(t, created.Self.PeerID, rejoined.Self.PeerID)
	assert.True(t, rejoined.Self.IsConnected)
}

func TestRegistry_EndCallRequiresHost(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := callstore.NewMemStore()
	registry := room.New(store, &fakeNotifier{}, &fakeMediaCloser{})
	defer registry.Close()

	host := room.Identity{UserID: "user-host"}
	created, err := registry.Create(context.Background(), host, room.CreateOptions{MaxParticipants: 5})
	require.NoError(t, err)

	_, err = registry.Join(joinCtx("socket-2"), room.Identity{UserID: "user-2"}, created.RoomID, "")
	require.NoError(t, err)

	err = registry.EndCall(context.Background(), created.RoomID, "user-2")
	require.Error(t, err)

	err = registry.EndCall(context.Background(), created.RoomID, host.UserID)
	require.NoError(t, err)

	_, ok := registry.RoomOf(created.RoomID)
	assert.False(t, ok)
}

func TestRegistry_UpdateMediaStateLeavesUnsetFieldsUnchanged(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := callstore.NewMemStore()
	registry := room.New(store, &fakeNotifier{}, &fakeMediaCloser{})
	defer registry.Close()

	host := room.Identity{UserID: "user-host"}
	created, err := registry.Create(context.Background(), host, room.CreateOptions{})
	require.NoError(t, err)

	trueVal := true
	registry.UpdateMediaState(created.RoomID, created.Self.PeerID, &trueVal, nil, nil)
	p, ok := registry.ParticipantOf(created.RoomID, created.Self.PeerID)
	require.True(t, ok)
	assert.True(t, p.MediaState.Audio)
	assert.False(t, p.MediaState.Video)

	falseVal := false
	registry.UpdateMediaState(created.RoomID, created.Self.PeerID, &falseVal, nil, nil)
	p, ok = registry.ParticipantOf(created.RoomID, created.Self.PeerID)
	require.True(t, ok)
	assert.False(t, p.MediaState.Audio)
}
