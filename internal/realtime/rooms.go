package realtime

import (
	"context"
	"time"

	"collaborative-canvas/internal/errors"

	"github.com/rs/zerolog/log"
)

// BoardGuard re-validates board access against the durable store. Checks
// are performed fresh on every call; results are never cached, so role and
// ownership changes take effect on the next event.
type BoardGuard interface {
	CanView(ctx context.Context, boardID, userID string) (bool, error)
	CanEdit(ctx context.Context, boardID, userID string) (bool, error)
}

// RoomService implements room join/leave semantics and presence
// maintenance.
type RoomService struct {
	hub    *Hub
	store  Store
	boards BoardGuard
}

func NewRoomService(hub *Hub, store Store, boards BoardGuard) *RoomService {
	return &RoomService{hub: hub, store: store, boards: boards}
}

// Join admits the connection to the board's room: access is re-validated,
// the presence record is upserted (a re-join overwrites, never duplicates),
// the joiner receives the active-user snapshot, and everyone else receives
// a joined notification.
func (s *RoomService) Join(ctx context.Context, conn Conn, userID string, p JoinPayload) error {
	if p.BoardID == "" {
		return errors.BadRequest("boardId is required", nil)
	}

	ok, err := s.boards.CanView(ctx, p.BoardID, userID)
	if err != nil {
		return errors.Internal(err)
	}
	if !ok {
		return errors.Forbidden("Access denied to board", nil)
	}

	s.hub.Add(p.BoardID, conn)

	record := PresenceRecord{
		ConnectionID: conn.ConnectionID(),
		UserID:       userID,
		UserName:     p.UserName,
		UserColor:    p.UserColor,
		Cursor:       Cursor{X: 0, Y: 0},
		LastSeen:     time.Now().UnixMilli(),
	}
	if err := s.store.Upsert(ctx, p.BoardID, record); err != nil {
		s.hub.Remove(p.BoardID, conn)
		return errors.Internal(err)
	}

	snapshot, err := s.store.Snapshot(ctx, p.BoardID)
	if err != nil {
		return errors.Internal(err)
	}

	// Snapshot goes to the joining connection only.
	if message, err := Encode(EventPresenceSnapshot, snapshot); err == nil {
		conn.Send(message)
	}

	// Joined notification goes to everyone else, not the room as a whole,
	// to avoid self-notification.
	if message, err := Encode(EventUserJoined, UserJoinedPayload{
		UserID:    userID,
		UserName:  p.UserName,
		UserColor: p.UserColor,
	}); err == nil {
		s.hub.BroadcastExcept(p.BoardID, conn, message)
	}

	log.Info().Str("board", p.BoardID).Str("user", userID).Msg("user joined board")
	return nil
}

// Leave removes the connection from the room and its presence record from
// the hash. Leaving twice, or without having joined, is a no-op.
func (s *RoomService) Leave(ctx context.Context, conn Conn, userID, boardID string) error {
	if boardID == "" {
		return errors.BadRequest("boardId is required", nil)
	}

	s.hub.Remove(boardID, conn)

	if err := s.store.Remove(ctx, boardID, userID); err != nil {
		log.Error().Err(err).Str("board", boardID).Str("user", userID).Msg("failed to remove presence")
	}

	// The connection is already out of the room, so a full broadcast
	// reaches exactly the remaining members.
	if message, err := Encode(EventUserLeft, UserLeftPayload{UserID: userID}); err == nil {
		s.hub.Broadcast(boardID, message)
	}

	log.Info().Str("board", boardID).Str("user", userID).Msg("user left board")
	return nil
}

// Reap cleans up after a connection loss: every room the connection
// belonged to gets a Leave. The sliding presence TTL is only a backstop;
// this is the primary cleanup path.
func (s *RoomService) Reap(ctx context.Context, conn Conn, userID string) {
	for _, boardID := range s.hub.Rooms(conn) {
		if err := s.Leave(ctx, conn, userID, boardID); err != nil {
			log.Error().Err(err).Str("board", boardID).Str("user", userID).Msg("reap leave failed")
		}
	}
}
