package realtime

import (
	"context"

	"github.com/rs/zerolog/log"
)

// CursorService relays high-frequency cursor positions. Everything here is
// best-effort: a failed presence write never suppresses the relay.
type CursorService struct {
	hub   *Hub
	store Store
}

func NewCursorService(hub *Hub, store Store) *CursorService {
	return &CursorService{hub: hub, store: store}
}

// Move updates the user's presence cursor in place when a record exists and
// silently drops the update when none does (the event raced a join or
// leave). The raw position is always relayed to the other room members.
func (s *CursorService) Move(ctx context.Context, conn Conn, userID string, p CursorPayload) {
	if p.BoardID == "" {
		return
	}

	if _, err := s.store.UpdateCursor(ctx, p.BoardID, userID, p.X, p.Y); err != nil {
		log.Debug().Err(err).Str("board", p.BoardID).Str("user", userID).Msg("cursor presence update failed")
	}

	if message, err := Encode(EventCursorUpdate, CursorUpdatePayload{
		UserID: userID,
		X:      p.X,
		Y:      p.Y,
	}); err == nil {
		s.hub.BroadcastExcept(p.BoardID, conn, message)
	}
}
