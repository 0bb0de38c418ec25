package media_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsairlabs/meetcore/internal/events"
	"github.com/corsairlabs/meetcore/internal/media"
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

func (n *fakeNotifier) events() []captured {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]captured, len(n.out))
	copy(out, n.out)
	return out
}

func TestMediaSession_ProduceConsumeLifecycle(t *testing.T) {
	ctx := context.Background()
	notifier := &fakeNotifier{}
	session := media.New(media.NewFakeWorker(), notifier, "127.0.0.1", "")

	require.NoError(t, session.JoinSfu(ctx, "room-1", "peer-a", "socket-a", nil))
	require.NoError(t, session.JoinSfu(ctx, "room-1", "peer-b", "socket-b", nil))

	sendInfo, err := session.CreateTransport(ctx, "room-1", "peer-a", media.DirectionSend)
	require.NoError(t, err)
	require.NotEmpty(t, sendInfo.ID)
	require.NoError(t, session.ConnectTransport(ctx, "room-1", "peer-a", map[string]any{}))

	producerID, err := session.Produce(ctx, "room-1", "peer-a", media.KindVideo, map[string]any{})
	require.NoError(t, err)
	require.NotEmpty(t, producerID)

	// peer-b should have been told about the new producer.
	found := false
	for _, e := range notifier.events() {
		if e.socketID == "socket-b" && e.event == events.SfuNewProducer {
			found = true
		}
	}
	assert.True(t, found, "expected socket-b to receive sfu:new-producer")

	_, err = session.CreateTransport(ctx, "room-1", "peer-b", media.DirectionRecv)
	require.NoError(t, err)
	require.NoError(t, session.ConnectTransport(ctx, "room-1", "peer-b", map[string]any{}))

	consumerInfo, err := session.Consume(ctx, "room-1", "peer-b", producerID, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, media.KindVideo, consumerInfo.Kind)
	assert.Equal(t, "peer-a", consumerInfo.ProducerPeerID)

	require.NoError(t, session.ResumeConsumer(ctx, "room-1", "peer-b", consumerInfo.ID))
}

func TestMediaSession_ConsumeUnknownProducerIsUnconsumable(t *testing.T) {
	ctx := context.Background()
	notifier := &fakeNotifier{}
	session := media.New(media.NewFakeWorker(), notifier, "127.0.0.1", "")

	require.NoError(t, session.JoinSfu(ctx, "room-1", "peer-a", "socket-a", nil))
	_, err := session.CreateTransport(ctx, "room-1", "peer-a", media.DirectionRecv)
	require.NoError(t, err)

	_, err = session.Consume(ctx, "room-1", "peer-a", "nonexistent-producer", map[string]any{})
	require.Error(t, err)
}

func TestMediaSession_LeaveSfuClosesRoomWhenEmpty(t *testing.T) {
	ctx := context.Background()
	notifier := &fakeNotifier{}
	session := media.New(media.NewFakeWorker(), notifier, "127.0.0.1", "")

	require.NoError(t, session.JoinSfu(ctx, "room-1", "peer-a", "socket-a", nil))
	session.LeaveSfu("room-1", "peer-a")

	// A second join must recreate the room from scratch without error.
	require.NoError(t, session.JoinSfu(ctx, "room-1", "peer-a", "socket-a", nil))
}

func TestMediaSession_PauseProducerAppliesToAllOwnedProducers(t *testing.T) {
	ctx := context.Background()
	notifier := &fakeNotifier{}
	session := media.New(media.NewFakeWorker(), notifier, "127.0.0.1", "")

	require.NoError(t, session.JoinSfu(ctx, "room-1", "peer-a", "socket-a", nil))
	require.NoError(t, session.JoinSfu(ctx, "room-1", "peer-b", "socket-b", nil))
	_, err := session.CreateTransport(ctx, "room-1", "peer-a", media.DirectionSend)
	require.NoError(t, err)

	_, err = session.Produce(ctx, "room-1", "peer-a", media.KindAudio, map[string]any{})
	require.NoError(t, err)
	_, err = session.Produce(ctx, "room-1", "peer-a", media.KindVideo, map[string]any{})
	require.NoError(t, err)

	require.NoError(t, session.PauseProducer(ctx, "room-1", "peer-a", true))

	pausedEvents := 0
	for _, e := range notifier.events() {
		if e.event == events.SfuProducerPaused {
			pausedEvents++
		}
	}
	assert.Equal(t, 2, pausedEvents)
}
