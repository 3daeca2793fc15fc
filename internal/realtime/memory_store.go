package realtime

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process fallback for the Presence Store, used when
// Redis is unreachable at startup and by the test suite. It upholds the same
// invariants as RedisStore: one record per (board, user) and a bounded
// history log, with every mutation applied under a single lock acquisition.
type MemoryStore struct {
	mu       sync.Mutex
	presence map[string]map[string]PresenceRecord // boardID → userID → record
	events   map[string][]EventLogEntry           // boardID → entries
	history  map[string][]HistoryEntry            // boardID:userID → entries, newest last
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		presence: make(map[string]map[string]PresenceRecord),
		events:   make(map[string][]EventLogEntry),
		history:  make(map[string][]HistoryEntry),
	}
}

func (s *MemoryStore) Upsert(_ context.Context, boardID string, record PresenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.presence[boardID]
	if !ok {
		users = make(map[string]PresenceRecord)
		s.presence[boardID] = users
	}
	users[record.UserID] = record
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, boardID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if users, ok := s.presence[boardID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(s.presence, boardID)
		}
	}
	return nil
}

func (s *MemoryStore) Snapshot(_ context.Context, boardID string) ([]PresenceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.presence[boardID]
	records := make([]PresenceRecord, 0, len(users))
	for _, record := range users {
		records = append(records, record)
	}
	return records, nil
}

func (s *MemoryStore) UpdateCursor(_ context.Context, boardID, userID string, x, y float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.presence[boardID]
	if !ok {
		return false, nil
	}
	record, ok := users[userID]
	if !ok {
		return false, nil
	}

	record.Cursor = Cursor{X: x, Y: y}
	record.LastSeen = time.Now().UnixMilli()
	users[userID] = record
	return true, nil
}

func (s *MemoryStore) Append(_ context.Context, boardID string, entry EventLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[boardID] = append(s.events[boardID], entry)
	return nil
}

func (s *MemoryStore) Push(_ context.Context, boardID, userID string, entry HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := boardID + ":" + userID
	entries := append(s.history[key], entry)
	if len(entries) > historyLimit {
		entries = entries[len(entries)-historyLimit:]
	}
	s.history[key] = entries
	return nil
}

func (s *MemoryStore) Publish(_ context.Context, _ string, _ any) error {
	// No out-of-process consumers without Redis.
	return nil
}

// Events returns a copy of a board's event log. Test support.
func (s *MemoryStore) Events(boardID string) []EventLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]EventLogEntry, len(s.events[boardID]))
	copy(entries, s.events[boardID])
	return entries
}

// History returns a copy of a user's history log, oldest first. Test support.
func (s *MemoryStore) History(boardID, userID string) []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := boardID + ":" + userID
	entries := make([]HistoryEntry, len(s.history[key]))
	copy(entries, s.history[key])
	return entries
}
