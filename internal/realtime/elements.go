package realtime

import (
	"context"
	defError "errors"
	"time"

	"collaborative-canvas/internal/board"
	"collaborative-canvas/internal/errors"
	"collaborative-canvas/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	actionCreate = "create"
	actionUpdate = "update"
	actionDelete = "delete"
)

// ElementStore is the durable element persistence consumed by the mutation
// pipeline, which is the sole writer of record for elements.
type ElementStore interface {
	CreateElement(ctx context.Context, element *board.Element) error
	FindElementByID(ctx context.Context, id string) (*board.Element, error)
	MergeElementProperties(ctx context.Context, id string, partial board.Properties) (board.Properties, error)
	DeleteElement(ctx context.Context, id string) error
}

// ElementService authorizes, persists, logs, and broadcasts element
// mutations. Permission is re-checked on every call, never carried over
// from join time.
type ElementService struct {
	hub      *Hub
	store    Store
	boards   BoardGuard
	elements ElementStore
	pool     *worker.Pool
}

func NewElementService(hub *Hub, store Store, boards BoardGuard, elements ElementStore, pool *worker.Pool) *ElementService {
	return &ElementService{
		hub:      hub,
		store:    store,
		boards:   boards,
		elements: elements,
		pool:     pool,
	}
}

// Create validates, persists, and announces a new element. The broadcast
// goes to every connection in the room including the creator, confirming
// its optimistic local state.
func (s *ElementService) Create(ctx context.Context, userID string, p CreateElementPayload) error {
	if err := s.authorize(ctx, p.BoardID, userID); err != nil {
		return err
	}

	if !board.ValidElementType(p.Type) {
		return errors.BadRequest("Invalid element type", nil)
	}

	properties := board.Properties(p.Properties)
	if properties == nil {
		properties = board.Properties{}
	}

	element := &board.Element{
		ID:         uuid.NewString(),
		BoardID:    p.BoardID,
		Type:       p.Type,
		Properties: properties,
		ZIndex:     0,
		CreatedBy:  userID,
	}
	if err := s.elements.CreateElement(ctx, element); err != nil {
		return errors.Internal(err)
	}

	s.logMutation(p.BoardID, EventLogEntry{
		Action:    actionCreate,
		ElementID: element.ID,
		UserID:    userID,
		Type:      element.Type,
		Data:      element.Properties,
		Timestamp: time.Now().UnixMilli(),
	}, map[string]any{"action": actionCreate, "element": element})

	if message, err := Encode(EventElementCreated, element); err == nil {
		s.hub.Broadcast(p.BoardID, message)
	}

	log.Info().Str("board", p.BoardID).Str("element", element.ID).Msg("element created")
	return nil
}

// Update shallow-merges the incoming properties into the stored element,
// records a before/after history entry, and announces the merged result to
// the whole room.
func (s *ElementService) Update(ctx context.Context, userID string, p UpdateElementPayload) error {
	if err := s.authorize(ctx, p.BoardID, userID); err != nil {
		return err
	}

	current, err := s.elements.FindElementByID(ctx, p.ElementID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Element not found", err)
		}
		return errors.Internal(err)
	}

	merged, err := s.elements.MergeElementProperties(ctx, p.ElementID, board.Properties(p.Properties))
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Element not found", err)
		}
		return errors.Internal(err)
	}

	if err := s.store.Push(ctx, p.BoardID, userID, HistoryEntry{
		Action:    actionUpdate,
		ElementID: p.ElementID,
		Before:    current.Properties,
		After:     merged,
	}); err != nil {
		log.Error().Err(err).Str("element", p.ElementID).Msg("failed to record history")
	}

	// The event log carries only the incoming partial properties, not the
	// merged result.
	s.logMutation(p.BoardID, EventLogEntry{
		Action:    actionUpdate,
		ElementID: p.ElementID,
		UserID:    userID,
		Data:      board.Properties(p.Properties),
		Timestamp: time.Now().UnixMilli(),
	}, map[string]any{"action": actionUpdate, "elementId": p.ElementID, "properties": merged})

	if message, err := Encode(EventElementUpdated, ElementUpdatedPayload{
		ElementID:  p.ElementID,
		Properties: merged,
	}); err == nil {
		s.hub.Broadcast(p.BoardID, message)
	}

	log.Info().Str("board", p.BoardID).Str("element", p.ElementID).Msg("element updated")
	return nil
}

// Delete removes the element, keeping the full pre-deletion element in the
// history log so an undo consumer can restore it.
func (s *ElementService) Delete(ctx context.Context, userID string, p DeleteElementPayload) error {
	if err := s.authorize(ctx, p.BoardID, userID); err != nil {
		return err
	}

	element, err := s.elements.FindElementByID(ctx, p.ElementID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Element not found", err)
		}
		return errors.Internal(err)
	}

	if err := s.elements.DeleteElement(ctx, p.ElementID); err != nil {
		return errors.Internal(err)
	}

	if err := s.store.Push(ctx, p.BoardID, userID, HistoryEntry{
		Action:    actionDelete,
		ElementID: p.ElementID,
		Element:   element,
	}); err != nil {
		log.Error().Err(err).Str("element", p.ElementID).Msg("failed to record history")
	}

	s.logMutation(p.BoardID, EventLogEntry{
		Action:    actionDelete,
		ElementID: p.ElementID,
		UserID:    userID,
		Timestamp: time.Now().UnixMilli(),
	}, map[string]any{"action": actionDelete, "elementId": p.ElementID})

	if message, err := Encode(EventElementDeleted, ElementDeletedPayload{ElementID: p.ElementID}); err == nil {
		s.hub.Broadcast(p.BoardID, message)
	}

	log.Info().Str("board", p.BoardID).Str("element", p.ElementID).Msg("element deleted")
	return nil
}

func (s *ElementService) authorize(ctx context.Context, boardID, userID string) error {
	if boardID == "" {
		return errors.BadRequest("boardId is required", nil)
	}
	ok, err := s.boards.CanEdit(ctx, boardID, userID)
	if err != nil {
		return errors.Internal(err)
	}
	if !ok {
		return errors.Forbidden("Permission denied", nil)
	}
	return nil
}

// logMutation appends to the event log and publishes to the board's channel
// after a successful durable write. Both run off the connection handler; a
// failure is logged, never retried, and never undoes the write.
func (s *ElementService) logMutation(boardID string, entry EventLogEntry, published map[string]any) {
	s.submit(func(ctx context.Context) error {
		if err := s.store.Append(ctx, boardID, entry); err != nil {
			return err
		}
		return s.store.Publish(ctx, boardID, published)
	})
}

// submit runs the task on the worker pool, or inline when no pool is
// configured (tests).
func (s *ElementService) submit(task worker.Task) {
	if s.pool != nil {
		s.pool.Submit(task)
		return
	}
	if err := task(context.Background()); err != nil {
		log.Error().Err(err).Msg("mutation log task failed")
	}
}
