package realtime

import (
	"context"
	"encoding/json"
	"testing"

	apiError "collaborative-canvas/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newRoomFixture() (*RoomService, *Hub, *MemoryStore, *MockBoardGuard) {
	hub := NewHub()
	store := NewMemoryStore()
	guard := new(MockBoardGuard)
	return NewRoomService(hub, store, guard), hub, store, guard
}

func TestJoinDeniedCreatesNothing(t *testing.T) {
	service, hub, store, guard := newRoomFixture()
	guard.On("CanView", mock.Anything, "board-1", "user-1").Return(false, nil)

	conn := newFakeConn("c1")
	err := service.Join(context.Background(), conn, "user-1", JoinPayload{
		BoardID: "board-1", UserName: "Alice", UserColor: "#ff0000",
	})

	assert.Error(t, err)
	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)

	// Never joined the room and never wrote presence.
	assert.Empty(t, hub.Rooms(conn))
	records, _ := store.Snapshot(context.Background(), "board-1")
	assert.Empty(t, records)
	guard.AssertExpectations(t)
}

func TestJoinDeliversSnapshotToJoinerOnly(t *testing.T) {
	service, _, _, guard := newRoomFixture()
	guard.On("CanView", mock.Anything, "board-1", mock.Anything).Return(true, nil)

	u := newFakeConn("c-u")
	err := service.Join(context.Background(), u, "user-u", JoinPayload{
		BoardID: "board-1", UserName: "U", UserColor: "#111111",
	})
	assert.NoError(t, err)

	payload, ok := u.lastOfType(t, EventPresenceSnapshot)
	assert.True(t, ok, "joiner should receive a presence snapshot")

	var snapshot []PresenceRecord
	assert.NoError(t, json.Unmarshal(payload, &snapshot))
	assert.Len(t, snapshot, 1)
	assert.Equal(t, "user-u", snapshot[0].UserID)
	assert.Equal(t, "c-u", snapshot[0].ConnectionID)

	// Second user joins: the first gets a joined notification, not another
	// snapshot; the second's snapshot contains both users.
	v := newFakeConn("c-v")
	err = service.Join(context.Background(), v, "user-v", JoinPayload{
		BoardID: "board-1", UserName: "V", UserColor: "#222222",
	})
	assert.NoError(t, err)

	joined, ok := u.lastOfType(t, EventUserJoined)
	assert.True(t, ok, "existing member should be notified")
	var joinedPayload UserJoinedPayload
	assert.NoError(t, json.Unmarshal(joined, &joinedPayload))
	assert.Equal(t, "user-v", joinedPayload.UserID)

	_, selfNotified := v.lastOfType(t, EventUserJoined)
	assert.False(t, selfNotified, "joiner must not be notified about itself")

	payload, _ = v.lastOfType(t, EventPresenceSnapshot)
	var second []PresenceRecord
	assert.NoError(t, json.Unmarshal(payload, &second))
	assert.Len(t, second, 2)
}

func TestRejoinConvergesToOneRecord(t *testing.T) {
	service, _, store, guard := newRoomFixture()
	guard.On("CanView", mock.Anything, "board-1", "user-1").Return(true, nil)

	first := newFakeConn("c1")
	second := newFakeConn("c2")
	ctx := context.Background()

	assert.NoError(t, service.Join(ctx, first, "user-1", JoinPayload{BoardID: "board-1", UserName: "A", UserColor: "#000000"}))
	assert.NoError(t, service.Join(ctx, second, "user-1", JoinPayload{BoardID: "board-1", UserName: "A", UserColor: "#000000"}))

	records, err := store.Snapshot(ctx, "board-1")
	assert.NoError(t, err)
	assert.Len(t, records, 1, "re-join must overwrite, never duplicate")
	assert.Equal(t, "c2", records[0].ConnectionID, "last writer wins")
}

func TestLeaveRemovesPresenceAndNotifiesPeers(t *testing.T) {
	service, _, store, guard := newRoomFixture()
	guard.On("CanView", mock.Anything, "board-1", mock.Anything).Return(true, nil)

	u := newFakeConn("c-u")
	v := newFakeConn("c-v")
	ctx := context.Background()

	assert.NoError(t, service.Join(ctx, u, "user-u", JoinPayload{BoardID: "board-1", UserName: "U", UserColor: "#111111"}))
	assert.NoError(t, service.Join(ctx, v, "user-v", JoinPayload{BoardID: "board-1", UserName: "V", UserColor: "#222222"}))

	assert.NoError(t, service.Leave(ctx, v, "user-v", "board-1"))

	left, ok := u.lastOfType(t, EventUserLeft)
	assert.True(t, ok)
	var leftPayload UserLeftPayload
	assert.NoError(t, json.Unmarshal(left, &leftPayload))
	assert.Equal(t, "user-v", leftPayload.UserID)

	records, _ := store.Snapshot(ctx, "board-1")
	assert.Len(t, records, 1)
	assert.Equal(t, "user-u", records[0].UserID)

	_, selfLeft := v.lastOfType(t, EventUserLeft)
	assert.False(t, selfLeft, "leaver is already out of the room")
}

func TestLeaveWithoutJoinIsNoop(t *testing.T) {
	service, _, _, _ := newRoomFixture()

	conn := newFakeConn("c1")
	assert.NoError(t, service.Leave(context.Background(), conn, "user-1", "board-1"))
	assert.NoError(t, service.Leave(context.Background(), conn, "user-1", "board-1"))
}

func TestReapLeavesEveryJoinedRoom(t *testing.T) {
	service, hub, store, guard := newRoomFixture()
	guard.On("CanView", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	dropped := newFakeConn("c-dropped")
	witness := newFakeConn("c-witness")
	ctx := context.Background()

	assert.NoError(t, service.Join(ctx, dropped, "user-d", JoinPayload{BoardID: "board-1", UserName: "D", UserColor: "#111111"}))
	assert.NoError(t, service.Join(ctx, dropped, "user-d", JoinPayload{BoardID: "board-2", UserName: "D", UserColor: "#111111"}))
	assert.NoError(t, service.Join(ctx, witness, "user-w", JoinPayload{BoardID: "board-1", UserName: "W", UserColor: "#222222"}))

	service.Reap(ctx, dropped, "user-d")

	assert.Empty(t, hub.Rooms(dropped))
	for _, boardID := range []string{"board-1", "board-2"} {
		records, _ := store.Snapshot(ctx, boardID)
		for _, record := range records {
			assert.NotEqual(t, "user-d", record.UserID)
		}
	}

	left, ok := witness.lastOfType(t, EventUserLeft)
	assert.True(t, ok, "peers must learn about the dropped connection")
	var leftPayload UserLeftPayload
	assert.NoError(t, json.Unmarshal(left, &leftPayload))
	assert.Equal(t, "user-d", leftPayload.UserID)
}
