package realtime

import (
	"encoding/json"
)

// Client → server event types
const (
	EventRoomJoin      = "room:join"
	EventRoomLeave     = "room:leave"
	EventCursorMove    = "cursor:move"
	EventElementCreate = "element:create"
	EventElementUpdate = "element:update"
	EventElementDelete = "element:delete"
)

// Server → client event types
const (
	EventPresenceSnapshot = "presence:snapshot"
	EventUserJoined       = "user:joined"
	EventUserLeft         = "user:left"
	EventCursorUpdate     = "cursor:update"
	EventElementCreated   = "element:created"
	EventElementUpdated   = "element:updated"
	EventElementDeleted   = "element:deleted"
	EventError            = "error"
)

// Envelope is the wire frame of every event in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Encode frames a payload into an envelope ready to write to a connection.
func Encode(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Payload: raw})
}

// Inbound payloads

type JoinPayload struct {
	BoardID   string `json:"boardId"`
	UserName  string `json:"userName"`
	UserColor string `json:"userColor"`
}

type LeavePayload struct {
	BoardID string `json:"boardId"`
}

type CursorPayload struct {
	BoardID string  `json:"boardId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type CreateElementPayload struct {
	BoardID    string         `json:"boardId"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

type UpdateElementPayload struct {
	BoardID    string         `json:"boardId"`
	ElementID  string         `json:"elementId"`
	Properties map[string]any `json:"properties"`
}

type DeleteElementPayload struct {
	BoardID   string `json:"boardId"`
	ElementID string `json:"elementId"`
}

// Outbound payloads

type UserJoinedPayload struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserColor string `json:"userColor"`
}

type UserLeftPayload struct {
	UserID string `json:"userId"`
}

type CursorUpdatePayload struct {
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type ElementUpdatedPayload struct {
	ElementID  string         `json:"elementId"`
	Properties map[string]any `json:"properties"`
}

type ElementDeletedPayload struct {
	ElementID string `json:"elementId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
