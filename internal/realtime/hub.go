package realtime

import (
	"sync"
)

// Conn is a live connection handle the hub can deliver messages to.
type Conn interface {
	ConnectionID() string
	Send(message []byte)
}

// Hub is the explicit room registry: boardID → set of live connections,
// plus the reverse index connection → set of boardIDs that the disconnect
// reaper walks. Join, leave, and reap are the only mutation points.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[Conn]struct{}
	members map[Conn]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[Conn]struct{}),
		members: make(map[Conn]map[string]struct{}),
	}
}

// Add registers the connection in the board's room.
func (h *Hub) Add(boardID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[boardID]; !ok {
		h.rooms[boardID] = make(map[Conn]struct{})
	}
	h.rooms[boardID][conn] = struct{}{}

	if _, ok := h.members[conn]; !ok {
		h.members[conn] = make(map[string]struct{})
	}
	h.members[conn][boardID] = struct{}{}
}

// Remove unregisters the connection from the board's room. Removing a
// connection that never joined is a no-op.
func (h *Hub) Remove(boardID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[boardID]; ok {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.rooms, boardID)
		}
	}
	if boards, ok := h.members[conn]; ok {
		delete(boards, boardID)
		if len(boards) == 0 {
			delete(h.members, conn)
		}
	}
}

// Rooms returns the boards the connection currently belongs to.
func (h *Hub) Rooms(conn Conn) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	boards := make([]string, 0, len(h.members[conn]))
	for boardID := range h.members[conn] {
		boards = append(boards, boardID)
	}
	return boards
}

// Broadcast delivers the message to every connection in the room.
func (h *Hub) Broadcast(boardID string, message []byte) {
	for _, conn := range h.roomMembers(boardID) {
		conn.Send(message)
	}
}

// BroadcastExcept delivers the message to every connection in the room
// except the sender.
func (h *Hub) BroadcastExcept(boardID string, sender Conn, message []byte) {
	for _, conn := range h.roomMembers(boardID) {
		if conn == sender {
			continue
		}
		conn.Send(message)
	}
}

// roomMembers copies the member set under the read lock so sends happen
// outside of it.
func (h *Hub) roomMembers(boardID string) []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room := h.rooms[boardID]
	members := make([]Conn, 0, len(room))
	for conn := range room {
		members = append(members, conn)
	}
	return members
}
