package realtime

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"collaborative-canvas/auth"
	apiError "collaborative-canvas/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Handler owns the websocket endpoint: it authenticates the handshake,
// upgrades the connection, and dispatches events to the room, cursor, and
// element services.
type Handler struct {
	rooms    *RoomService
	cursors  *CursorService
	elements *ElementService
	upgrader websocket.Upgrader
}

func NewHandler(rooms *RoomService, cursors *CursorService, elements *ElementService) *Handler {
	return &Handler{
		rooms:    rooms,
		cursors:  cursors,
		elements: elements,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Cross-origin policy is enforced by the CORS layer in front.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve authenticates and runs one connection. A missing or invalid token
// rejects the connection before the upgrade; no events are processed on a
// rejected connection.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
		return
	}

	parsedToken, err := auth.VerifyJWT(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	userID, err := auth.UserIDFromToken(parsedToken)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(conn, userID)
	log.Info().Str("user", userID).Str("connection", client.ConnectionID()).Msg("user connected")

	go client.WriteLoop()
	client.ReadLoop(func(raw []byte) {
		h.dispatch(client, raw)
	})

	// Connection is gone, gracefully or not: reap every room it was in.
	h.rooms.Reap(context.Background(), client, client.UserID())
	log.Info().Str("user", userID).Str("connection", client.ConnectionID()).Msg("user disconnected")
}

// dispatch routes one inbound event. Every per-event failure is reported
// back to the originating connection only and never interrupts others.
func (h *Handler) dispatch(client *Client, raw []byte) {
	ctx := context.Background()

	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		h.sendError(client, "Malformed event")
		return
	}

	var err error
	switch envelope.Type {
	case EventRoomJoin:
		var p JoinPayload
		if err = json.Unmarshal(envelope.Payload, &p); err == nil {
			err = h.rooms.Join(ctx, client, client.UserID(), p)
		}
	case EventRoomLeave:
		var p LeavePayload
		if err = json.Unmarshal(envelope.Payload, &p); err == nil {
			err = h.rooms.Leave(ctx, client, client.UserID(), p.BoardID)
		}
	case EventCursorMove:
		var p CursorPayload
		if err = json.Unmarshal(envelope.Payload, &p); err == nil {
			h.cursors.Move(ctx, client, client.UserID(), p)
		}
	case EventElementCreate:
		var p CreateElementPayload
		if err = json.Unmarshal(envelope.Payload, &p); err == nil {
			err = h.elements.Create(ctx, client.UserID(), p)
		}
	case EventElementUpdate:
		var p UpdateElementPayload
		if err = json.Unmarshal(envelope.Payload, &p); err == nil {
			err = h.elements.Update(ctx, client.UserID(), p)
		}
	case EventElementDelete:
		var p DeleteElementPayload
		if err = json.Unmarshal(envelope.Payload, &p); err == nil {
			err = h.elements.Delete(ctx, client.UserID(), p)
		}
	default:
		h.sendError(client, "Unknown event type")
		return
	}

	if err != nil {
		var apiErr *apiError.APIError
		if stderrors.As(err, &apiErr) {
			h.sendError(client, apiErr.Message)
		} else {
			h.sendError(client, "Malformed event")
		}
	}
}

func (h *Handler) sendError(client *Client, message string) {
	if encoded, err := Encode(EventError, ErrorPayload{Message: message}); err == nil {
		client.Send(encoded)
	}
}
