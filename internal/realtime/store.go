package realtime

import (
	"context"

	"collaborative-canvas/internal/board"
)

// Cursor is a position on the canvas
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PresenceRecord is the ephemeral per-(board, user) state visible to other
// viewers. At most one record exists per (board, user): a re-join overwrites.
type PresenceRecord struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	UserName     string `json:"userName"`
	UserColor    string `json:"userColor"`
	Cursor       Cursor `json:"cursor"`
	LastSeen     int64  `json:"lastSeen"` // unix milliseconds
}

// EventLogEntry is one append-only record of an element mutation, written
// for audit/replay and never read back here.
type EventLogEntry struct {
	Action    string           `json:"action"`
	ElementID string           `json:"elementId"`
	UserID    string           `json:"userId"`
	Type      string           `json:"type,omitempty"` // create only
	Data      board.Properties `json:"data,omitempty"`
	Timestamp int64            `json:"timestamp"`
}

// HistoryEntry is one undo-buffer record. Updates carry before/after
// property snapshots; deletes carry the full pre-deletion element.
type HistoryEntry struct {
	Action    string           `json:"action"`
	ElementID string           `json:"elementId"`
	Before    board.Properties `json:"before,omitempty"`
	After     board.Properties `json:"after,omitempty"`
	Element   *board.Element   `json:"element,omitempty"`
}

// historyLimit caps the per-(board, user) undo buffer; the oldest entries
// are trimmed on every insert.
const historyLimit = 50

// PresenceStore holds the per-board presence hash. Every mutation is a
// single field-level primitive, never a whole-map read-modify-write.
type PresenceStore interface {
	// Upsert writes the record under its user id and refreshes the
	// board's sliding expiry window.
	Upsert(ctx context.Context, boardID string, record PresenceRecord) error
	// Remove deletes the user's record. Removing an absent record is a no-op.
	Remove(ctx context.Context, boardID, userID string) error
	// Snapshot returns every active record on the board.
	Snapshot(ctx context.Context, boardID string) ([]PresenceRecord, error)
	// UpdateCursor rewrites the cursor and lastSeen of an existing record.
	// It reports false, without writing, when no record exists: cursor
	// events never create presence.
	UpdateCursor(ctx context.Context, boardID, userID string, x, y float64) (bool, error)
}

// EventLog appends mutation records to the per-board stream.
type EventLog interface {
	Append(ctx context.Context, boardID string, entry EventLogEntry) error
}

// HistoryLog pushes undo entries onto the per-(board, user) bounded log.
type HistoryLog interface {
	Push(ctx context.Context, boardID, userID string, entry HistoryEntry) error
}

// Publisher fans element mutations out to the per-board channel for
// out-of-process consumers.
type Publisher interface {
	Publish(ctx context.Context, boardID string, message any) error
}

// Store bundles the Presence Store surfaces. Backed by Redis in production
// and by an in-memory implementation when Redis is unavailable and in tests.
type Store interface {
	PresenceStore
	EventLog
	HistoryLog
	Publisher
}
