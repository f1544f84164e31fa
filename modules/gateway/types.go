package gateway

import (
	"encoding/json"
	"time"

	domain "github.com/example/game-lobby-demo/domain/lobby"
)

// Inbound message types, matching the client protocol.
const (
	MsgCreateRoom        = "create-room"
	MsgJoinRoom          = "join-room"
	MsgGetRooms          = "get-rooms"
	MsgToggleReady       = "toggle-ready"
	MsgSelectPlayerType  = "select-player-type"
	MsgStartGame         = "start-game"
	MsgPerformAction     = "perform-action"
	MsgUpdateGameState   = "update-game-state"
	MsgNextTurn          = "next-turn"
	MsgTriggerEvent      = "trigger-event"
	MsgSelectEventOption = "select-event-option"
	MsgSendMessage       = "send-message"
	MsgLeaveRoom         = "leave-room"
)

// InboundMessage is the wire format for client requests. Payload stays raw
// until the per-type handler decodes it; for game payloads it is never
// decoded at all, only passed through.
type InboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CreateRoomPayload is the payload for creating a room.
type CreateRoomPayload struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"max_players"`
}

// JoinRoomPayload is the payload for joining a room.
type JoinRoomPayload struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// SelectPlayerTypePayload is the payload for role selection.
type SelectPlayerTypePayload struct {
	Type        string `json:"type"`
	CapitalType string `json:"capital_type"`
}

// Outbound payloads.

// RoomCreatedPayload confirms a creation to the creator.
type RoomCreatedPayload struct {
	RoomID string       `json:"room_id"`
	Room   *domain.Room `json:"room"`
}

// RoomJoinedPayload confirms a join to the joiner.
type RoomJoinedPayload struct {
	Room *domain.Room `json:"room"`
}

// PlayerJoinedPayload announces a new member to the room.
type PlayerJoinedPayload struct {
	Player domain.Player `json:"player"`
	Room   *domain.Room  `json:"room"`
}

// RoomUpdatedPayload carries the room snapshot after a ready toggle or a
// role selection.
type RoomUpdatedPayload struct {
	Room *domain.Room `json:"room"`
}

// GameStartedPayload carries the opaque initial game state to every member.
type GameStartedPayload struct {
	GameState json.RawMessage `json:"game_state"`
}

// GameStateUpdatedPayload carries an opaque state overwrite to everyone but
// the sender.
type GameStateUpdatedPayload struct {
	GameState json.RawMessage `json:"game_state"`
}

// ActionPerformedPayload relays an opaque action plus the sender's identity.
type ActionPerformedPayload struct {
	Action       json.RawMessage `json:"action"`
	ConnectionID string          `json:"connection_id"`
}

// EventTriggeredPayload relays an opaque game event.
type EventTriggeredPayload struct {
	Event json.RawMessage `json:"event"`
}

// ChatMessagePayload relays chat with the sender's display name and a server
// timestamp attached.
type ChatMessagePayload struct {
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHostPayload announces a host transfer.
type NewHostPayload struct {
	Host string `json:"host"`
}

// PlayerLeftPayload announces a departure to the remaining members.
type PlayerLeftPayload struct {
	PlayerID string       `json:"player_id"`
	Room     *domain.Room `json:"room"`
}

// RoomListResponse is the REST listing response.
type RoomListResponse struct {
	Rooms []domain.Room `json:"rooms"`
	Total int           `json:"total"`
}

// HealthResponse reports process-wide counts for liveness checks.
type HealthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}
