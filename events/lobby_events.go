package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/game-lobby-demo/domain/lobby"
)

// Each listing-relevant mutation emits one of these events. They all carry a
// snapshot of the open-room listing taken at mutation time, so consumers push
// the listing the mutation produced rather than whatever the store holds when
// the event is eventually delivered.

// RoomOpenedEvent is emitted when a room is created.
type RoomOpenedEvent struct {
	RoomID    string       `json:"room_id"`
	RoomName  string       `json:"room_name"`
	Host      string       `json:"host"`
	OpenRooms []lobby.Room `json:"open_rooms"`
	Timestamp time.Time    `json:"timestamp"`
}

// PlayerJoinedEvent is emitted when a player joins a room.
type PlayerJoinedEvent struct {
	RoomID    string       `json:"room_id"`
	PlayerID  string       `json:"player_id"`
	Name      string       `json:"name"`
	OpenRooms []lobby.Room `json:"open_rooms"`
	Timestamp time.Time    `json:"timestamp"`
}

// PlayerLeftEvent is emitted when a player leaves or disconnects.
type PlayerLeftEvent struct {
	RoomID    string       `json:"room_id"`
	PlayerID  string       `json:"player_id"`
	Name      string       `json:"name"`
	OpenRooms []lobby.Room `json:"open_rooms"`
	Timestamp time.Time    `json:"timestamp"`
}

// GameStartedEvent is emitted when the host starts a match. Started rooms
// drop out of the public listing.
type GameStartedEvent struct {
	RoomID    string       `json:"room_id"`
	OpenRooms []lobby.Room `json:"open_rooms"`
	Timestamp time.Time    `json:"timestamp"`
}

// RoomClosedEvent is emitted when the last player leaves and the room is
// deleted.
type RoomClosedEvent struct {
	RoomID    string       `json:"room_id"`
	OpenRooms []lobby.Room `json:"open_rooms"`
	Timestamp time.Time    `json:"timestamp"`
}

// Event definitions for the lobby domain.
var (
	RoomOpenedV1 = helper.EventDefinition[RoomOpenedEvent](
		"lobby",
		"RoomOpened",
		"v1",
	)

	PlayerJoinedV1 = helper.EventDefinition[PlayerJoinedEvent](
		"lobby",
		"PlayerJoined",
		"v1",
	)

	PlayerLeftV1 = helper.EventDefinition[PlayerLeftEvent](
		"lobby",
		"PlayerLeft",
		"v1",
	)

	GameStartedV1 = helper.EventDefinition[GameStartedEvent](
		"lobby",
		"GameStarted",
		"v1",
	)

	RoomClosedV1 = helper.EventDefinition[RoomClosedEvent](
		"lobby",
		"RoomClosed",
		"v1",
	)
)
