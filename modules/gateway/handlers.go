package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/game-lobby-demo/modules/broadcast"
	"github.com/example/game-lobby-demo/modules/lobby"
)

// Handlers is the per-connection message dispatcher. It decodes inbound
// messages, calls into the lobby module for state changes, and fans the
// resulting broadcasts out through the hub. Pure relay messages never touch
// room state beyond resolving the sender's room.
type Handlers struct {
	lobby        *lobby.Module
	hub          *broadcast.Hub
	rateLimiters sync.Map // connID -> *rateLimiter
	logger       *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(lobbyModule *lobby.Module, hub *broadcast.Hub) *Handlers {
	return &Handlers{
		lobby:  lobbyModule,
		hub:    hub,
		logger: slog.Default(),
	}
}

// HandleWebSocket owns one client connection: it assigns the session id,
// registers the socket with the hub, and runs the read loop until the client
// goes away. Disconnection is treated exactly like an explicit leave-room.
func (h *Handlers) HandleWebSocket(c *websocket.Conn) {
	connID := uuid.New().String()
	h.hub.Register(&broadcast.Client{ID: connID, Conn: c})
	h.rateLimiters.Store(connID, newRateLimiter(burstSize, messagesPerSecond))

	defer func() {
		h.rateLimiters.Delete(connID)
		h.handleLeave(connID)
		h.hub.Unregister(connID)
		c.Close()
	}()

	h.logger.Info("Client connected", "connID", connID)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket error", "connID", connID, "error", err)
			}
			break
		}

		var msg InboundMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			h.hub.SendError(connID, "Invalid message format")
			continue
		}

		h.dispatch(connID, msg)
	}

	h.logger.Info("Client disconnected", "connID", connID)
}

// dispatch routes one inbound message to its handler. Each message is handled
// to completion before the next is read from the same connection.
func (h *Handlers) dispatch(connID string, msg InboundMessage) {
	switch msg.Type {
	case MsgCreateRoom:
		h.handleCreateRoom(connID, msg.Payload)
	case MsgJoinRoom:
		h.handleJoinRoom(connID, msg.Payload)
	case MsgGetRooms:
		h.hub.Send(connID, "rooms-list", h.lobby.OpenRooms())
	case MsgToggleReady:
		h.handleToggleReady(connID)
	case MsgSelectPlayerType:
		h.handleSelectPlayerType(connID, msg.Payload)
	case MsgStartGame:
		h.handleStartGame(connID, msg.Payload)
	case MsgUpdateGameState:
		h.handleUpdateGameState(connID, msg.Payload)
	case MsgPerformAction, MsgNextTurn, MsgTriggerEvent, MsgSelectEventOption, MsgSendMessage:
		h.handleRelay(connID, msg)
	case MsgLeaveRoom:
		h.handleLeave(connID)
	default:
		h.hub.SendError(connID, "Unknown message type: "+msg.Type)
	}
}

func (h *Handlers) handleCreateRoom(connID string, payload json.RawMessage) {
	var req CreateRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.hub.SendError(connID, "Invalid create-room payload")
		return
	}

	res, err := h.lobby.CreateRoom(connID, req.Name, req.MaxPlayers)
	if err != nil {
		h.hub.SendError(connID, err.Error())
		return
	}

	h.notifyDeparture(res.Left)
	h.hub.Send(connID, "room-created", RoomCreatedPayload{RoomID: res.Room.ID, Room: res.Room})
}

func (h *Handlers) handleJoinRoom(connID string, payload json.RawMessage) {
	var req JoinRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.hub.SendError(connID, "Invalid join-room payload")
		return
	}

	res, err := h.lobby.JoinRoom(connID, req.RoomID, req.Name)
	if err != nil {
		h.hub.SendError(connID, err.Error())
		return
	}

	h.notifyDeparture(res.Left)
	h.hub.Send(connID, "room-joined", RoomJoinedPayload{Room: res.Room})
	h.hub.Broadcast(res.Room.ConnectionIDs(), "player-joined", PlayerJoinedPayload{
		Player: res.Player,
		Room:   res.Room,
	})
}

func (h *Handlers) handleToggleReady(connID string) {
	res, ok := h.lobby.ToggleReady(connID)
	if !ok {
		return
	}

	targets := res.Room.ConnectionIDs()
	h.hub.Broadcast(targets, "room-updated", RoomUpdatedPayload{Room: res.Room})
	if res.AllReady {
		h.hub.Broadcast(targets, "all-players-ready", nil)
	}
}

func (h *Handlers) handleSelectPlayerType(connID string, payload json.RawMessage) {
	var req SelectPlayerTypePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.hub.SendError(connID, "Invalid select-player-type payload")
		return
	}

	room, ok := h.lobby.SelectPlayerType(connID, req.Type, req.CapitalType)
	if !ok {
		return
	}

	h.hub.Broadcast(room.ConnectionIDs(), "room-updated", RoomUpdatedPayload{Room: room})
}

func (h *Handlers) handleStartGame(connID string, payload json.RawMessage) {
	room, err := h.lobby.StartGame(connID, payload)
	if err != nil {
		h.hub.SendError(connID, err.Error())
		return
	}
	if room == nil {
		// No membership, or a duplicate start: silent no-op.
		return
	}

	h.hub.Broadcast(room.ConnectionIDs(), "game-started", GameStartedPayload{GameState: room.GameState})
}

func (h *Handlers) handleUpdateGameState(connID string, payload json.RawMessage) {
	if !h.allow(connID) {
		h.hub.SendError(connID, "Rate limit exceeded, please slow down")
		return
	}

	room, ok := h.lobby.UpdateGameState(connID, payload)
	if !ok {
		return
	}

	// The sender already applied the update locally; echoing it back would
	// make the originator double-apply.
	h.hub.Broadcast(room.ConnectionIDsExcept(connID), "game-state-updated", GameStateUpdatedPayload{
		GameState: payload,
	})
}

// handleRelay forwards in-match messages without validation or mutation. A
// sender with no room membership is dropped silently: fire-and-forget, only
// lobby state changes warrant explicit errors.
func (h *Handlers) handleRelay(connID string, msg InboundMessage) {
	if !h.allow(connID) {
		h.hub.SendError(connID, "Rate limit exceeded, please slow down")
		return
	}

	room, ok := h.lobby.RoomOf(connID)
	if !ok {
		return
	}
	targets := room.ConnectionIDs()

	switch msg.Type {
	case MsgPerformAction:
		h.hub.Broadcast(targets, "action-performed", ActionPerformedPayload{
			Action:       msg.Payload,
			ConnectionID: connID,
		})
	case MsgNextTurn:
		h.hub.Broadcast(targets, "turn-advanced", nil)
	case MsgTriggerEvent:
		h.hub.Broadcast(targets, "event-triggered", EventTriggeredPayload{Event: msg.Payload})
	case MsgSelectEventOption:
		// Forwarded verbatim; the event/option ids mean nothing to the server.
		h.hub.Broadcast(targets, "event-option-selected", msg.Payload)
	case MsgSendMessage:
		var text string
		if err := json.Unmarshal(msg.Payload, &text); err != nil {
			h.hub.SendError(connID, "Invalid send-message payload")
			return
		}
		sender := room.PlayerByConn(connID)
		if sender == nil {
			return
		}
		h.hub.Broadcast(targets, "chat-message", ChatMessagePayload{
			Name:      sender.Name,
			Message:   text,
			Timestamp: time.Now(),
		})
	}
}

// handleLeave runs the departure protocol for an explicit leave-room or a
// disconnect. Safe to call twice for the same connection.
func (h *Handlers) handleLeave(connID string) {
	res, ok := h.lobby.Leave(connID)
	if !ok {
		return
	}
	h.notifyDeparture(res)
}

// notifyDeparture tells the remaining members about a leave: host transfer
// first, then the membership snapshot. A deleted room has nobody left to
// notify.
func (h *Handlers) notifyDeparture(res *lobby.LeaveResult) {
	if res == nil || res.Deleted {
		return
	}

	targets := res.Room.ConnectionIDs()
	if res.NewHost != "" {
		h.hub.Broadcast(targets, "new-host", NewHostPayload{Host: res.NewHost})
	}
	h.hub.Broadcast(targets, "player-left", PlayerLeftPayload{
		PlayerID: res.Player.ID,
		Room:     res.Room,
	})
}

func (h *Handlers) allow(connID string) bool {
	limiterVal, ok := h.rateLimiters.Load(connID)
	if !ok {
		return true
	}
	return limiterVal.(*rateLimiter).allow()
}

// REST handlers.

// ListRooms handles GET /api/v1/rooms.
func (h *Handlers) ListRooms(c *fiber.Ctx) error {
	rooms := h.lobby.OpenRooms()
	return c.JSON(RoomListResponse{Rooms: rooms, Total: len(rooms)})
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	rooms, conns := h.lobby.Counts()
	return c.JSON(HealthResponse{Status: "ok", Rooms: rooms, Connections: conns})
}
