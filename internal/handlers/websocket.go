package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/arnold/charity-quests-api/internal/events"
	"github.com/arnold/charity-quests-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type messageWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// connection wraps a websocket connection with its user ID
type connection struct {
	conn   messageWriter
	userID uuid.UUID
}

// Hub manages WebSocket connections per quest. It is an events listener:
// every domain event is forwarded to the room of its quest.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*connection]bool // questID -> set of connections
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[uuid.UUID]map[*connection]bool)}
}

// register adds a connection to a quest room
func (h *Hub) register(questID uuid.UUID, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[questID] == nil {
		h.rooms[questID] = make(map[*connection]bool)
	}
	h.rooms[questID][conn] = true
	slog.Debug("WS register",
		slog.String("user_id", conn.userID.String()),
		slog.String("quest_id", questID.String()),
		slog.Int("total", len(h.rooms[questID])))
}

// unregister removes a connection from a quest room
func (h *Hub) unregister(questID uuid.UUID, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[questID]; ok {
		delete(conns, conn)
		slog.Debug("WS unregister",
			slog.String("user_id", conn.userID.String()),
			slog.String("quest_id", questID.String()),
			slog.Int("remaining", len(conns)))
		if len(conns) == 0 {
			delete(h.rooms, questID)
		}
	}
}

// Connections reports how many clients watch a quest.
func (h *Hub) Connections(questID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[questID])
}

// Handle broadcasts e to the room of its quest, excluding the user who
// triggered it.
func (h *Hub) Handle(_ context.Context, e events.Event) error {
	h.Broadcast(e.QuestID, e.UserID, e)
	return nil
}

func (h *Hub) Broadcast(questID uuid.UUID, excludeUserID uuid.UUID, e events.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.rooms[questID]
	if !ok {
		return
	}

	msg, err := json.Marshal(e)
	if err != nil {
		slog.Error("WS broadcast marshal error", slog.Any("error", err))
		return
	}

	for c := range conns {
		// Don't send to the user who triggered the event
		if excludeUserID != uuid.Nil && c.userID == excludeUserID {
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			slog.Warn("WS write error",
				slog.String("quest_id", questID.String()),
				slog.Any("error", err))
		}
	}
}

// WebSocketUpgrade is the middleware that checks the upgrade request and validates JWT
func WebSocketUpgrade(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// Authenticate via query param: ?token=<jwt>
		tokenString := c.Query("token")
		if tokenString == "" {
			// Also check Authorization header for non-browser clients
			tokenString, _ = middleware.BearerToken(c)
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}

		claims, err := middleware.ParseToken(secret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		middleware.SetClaims(c, claims)
		return c.Next()
	}
}

// HandleWebSocket handles a WebSocket connection for a specific quest
func (h *Hub) HandleWebSocket(c *websocket.Conn) {
	questID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		c.Close()
		return
	}

	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}

	conn := &connection{conn: c, userID: userID}
	h.register(questID, conn)
	defer h.unregister(questID, conn)

	// Keep connection alive: read messages (client sends pings/keepalives)
	for {
		_, _, err := c.ReadMessage()
		if err != nil {
			break
		}
	}
}
