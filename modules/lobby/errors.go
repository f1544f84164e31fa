package lobby

import "errors"

// Sentinel errors for lobby operations. All of them are non-fatal and are
// surfaced only to the requesting connection, never to the whole room.
var (
	// ErrRoomNotFound is returned when a join targets a nonexistent room id.
	ErrRoomNotFound = errors.New("room not found")

	// ErrGameStarted is returned when a join targets a started room.
	ErrGameStarted = errors.New("game already started")

	// ErrRoomFull is returned when a join targets a room at capacity.
	ErrRoomFull = errors.New("room is full")

	// ErrNotHost is returned when a non-host attempts to start the game.
	ErrNotHost = errors.New("only the host can start the game")
)
