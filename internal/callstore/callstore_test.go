package callstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsairlabs/meetcore/internal/callstore"
)

func TestMemStore_ProvisionIsIdempotent(t *testing.T) {
	store := callstore.NewMemStore()
	ctx := context.Background()

	rec := &callstore.Record{CallID: "call-1", RoomID: "room-1", HostUserID: "user-1", Status: callstore.CallStatusWaiting}
	require.NoError(t, store.Provision(ctx, rec))

	// A second provision for the same room must not clobber the first.
	rec2 := &callstore.Record{CallID: "call-2", RoomID: "room-1", HostUserID: "user-2", Status: callstore.CallStatusWaiting}
	require.NoError(t, store.Provision(ctx, rec2))

	got, err := store.GetByRoomID(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "call-1", got.CallID)
	assert.Equal(t, "user-1", got.HostUserID)
}

func TestMemStore_GetByRoomID_NotFound(t *testing.T) {
	store := callstore.NewMemStore()
	_, err := store.GetByRoomID(context.Background(), "missing-room")
	assert.ErrorIs(t, err, callstore.ErrNotFound)
}

func TestMemStore_StartAndEndTransitions(t *testing.T) {
	store := callstore.NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.Provision(ctx, &callstore.Record{CallID: "call-1", RoomID: "room-1"}))

	require.NoError(t, store.Start(ctx, "call-1"))
	rec, err := store.GetByRoomID(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, callstore.CallStatusLive, rec.Status)
	require.NotNil(t, rec.StartedAt)

	require.NoError(t, store.End(ctx, "call-1"))
	rec, err = store.GetByRoomID(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, callstore.CallStatusEnded, rec.Status)
	require.NotNil(t, rec.EndedAt)
}

func TestMemStore_StartUnknownCallID(t *testing.T) {
	store := callstore.NewMemStore()
	err := store.Start(context.Background(), "no-such-call")
	assert.ErrorIs(t, err, callstore.ErrNotFound)
}

func TestMemStore_GetByRoomIDReturnsDefensiveCopy(t *testing.T) {
	store := callstore.NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.Provision(ctx, &callstore.Record{CallID: "call-1", RoomID: "room-1", Name: "original"}))

	got, err := store.GetByRoomID(ctx, "room-1")
	require.NoError(t, err)
	got.Name = "mutated"

	got2, err := store.GetByRoomID(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "original", got2.Name)
}
