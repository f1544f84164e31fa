package lobby

import (
	domain "github.com/example/game-lobby-demo/domain/lobby"
)

// DefaultCapacity is the room capacity applied when a create request omits
// one or passes a non-positive value. Overridable via LOBBY_DEFAULT_CAPACITY.
const DefaultCapacity = 20

// maxIDAttempts bounds the collision retry loop for room code generation.
const maxIDAttempts = 10

// LeaveResult describes the outcome of a departure. The gateway turns it
// into new-host / player-left broadcasts toward whoever remains.
type LeaveResult struct {
	RoomID  string
	Player  domain.Player
	Deleted bool        // the departing player was the last one; room is gone
	NewHost string      // connection id of the promoted host, empty if unchanged
	Room    *domain.Room // snapshot of the remaining room, nil when deleted
}

// CreateResult describes a successful room creation. Left is non-nil when the
// creator auto-left a previous room.
type CreateResult struct {
	Room *domain.Room
	Left *LeaveResult
}

// JoinResult describes a successful join. Left is non-nil when the joiner
// auto-left a previous room.
type JoinResult struct {
	Room   *domain.Room
	Player domain.Player
	Left   *LeaveResult
}

// ReadyResult describes a ready toggle. AllReady is true when every player is
// ready and the room has at least two players; the gateway emits the advisory
// all-players-ready signal exactly when that is the case.
type ReadyResult struct {
	Room     *domain.Room
	AllReady bool
}
