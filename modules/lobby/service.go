package lobby

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/example/game-lobby-demo/domain/lobby"
)

// Service is the room lifecycle manager. It owns the room store and the
// connection registry and is their single writer: every operation runs to
// completion under one lock, so check-then-mutate sequences inside a single
// inbound message never interleave. Methods return snapshots; callers decide
// what to broadcast.
type Service struct {
	mu              sync.Mutex
	rooms           *RoomStore
	registry        *ConnectionRegistry
	defaultCapacity int
	newRoomID       func() (string, error)
}

// NewService creates a lifecycle manager with the given default room capacity.
func NewService(defaultCapacity int) *Service {
	if defaultCapacity <= 0 {
		defaultCapacity = DefaultCapacity
	}
	return &Service{
		rooms:           NewRoomStore(),
		registry:        NewConnectionRegistry(),
		defaultCapacity: defaultCapacity,
		newRoomID: func() (string, error) {
			return GenerateRoomID(RoomIDLength)
		},
	}
}

// CreateRoom opens a new room with the requester as its only member and host.
// A connection already occupying a room auto-leaves it first; the leave
// outcome is returned so the old room can be notified.
func (s *Service) CreateRoom(connID, name string, maxPlayers int) (*CreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Generate the id before the auto-leave so a generation failure leaves
	// the old membership untouched.
	id, err := s.freshRoomIDLocked()
	if err != nil {
		return nil, err
	}

	left := s.leaveLocked(connID)

	if maxPlayers <= 0 {
		maxPlayers = s.defaultCapacity
	}

	room := &domain.Room{
		ID:   id,
		Name: fmt.Sprintf("Room %s", id),
		Host: connID,
		Players: []domain.Player{{
			ID:           playerID(connID),
			ConnectionID: connID,
			Name:         name,
			Type:         domain.DefaultHostType,
			CapitalType:  domain.DefaultCapital,
		}},
		MaxPlayers: maxPlayers,
		CreatedAt:  time.Now(),
	}

	s.rooms.Set(room)
	s.registry.Set(connID, id)

	return &CreateResult{Room: room.Snapshot(), Left: left}, nil
}

// JoinRoom adds the requester to an open room. Preconditions are checked in
// order: the room exists, the game has not started, the room is not full.
// A connection already occupying a room auto-leaves it first. Joining the
// room already occupied is a no-op confirming the current membership.
func (s *Service) JoinRoom(connID, roomID, name string) (*JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A join targeting the room the connection already occupies must not run
	// the leave path: it would tear down the very membership being confirmed
	// (deleting the room when the joiner is its only member, or demoting the
	// host to a default-typed joiner).
	if currentID, ok := s.registry.Get(connID); ok && currentID == roomID {
		room, player := s.memberLocked(connID)
		if player != nil {
			return &JoinResult{Room: room.Snapshot(), Player: *player}, nil
		}
	}

	room, ok := s.rooms.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.Started {
		return nil, ErrGameStarted
	}
	if room.Full() {
		return nil, ErrRoomFull
	}

	// The auto-leave may delete the joiner's old room; it can never touch the
	// target room because the same-room case was short-circuited above.
	left := s.leaveLocked(connID)

	player := domain.Player{
		ID:           playerID(connID),
		ConnectionID: connID,
		Name:         name,
		Type:         domain.DefaultJoinerType,
		CapitalType:  domain.DefaultCapital,
	}
	room.Players = append(room.Players, player)
	s.registry.Set(connID, roomID)

	return &JoinResult{Room: room.Snapshot(), Player: player, Left: left}, nil
}

// ToggleReady flips the requester's ready flag. Returns false when the
// connection occupies no room.
func (s *Service) ToggleReady(connID string) (*ReadyResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, player := s.memberLocked(connID)
	if player == nil {
		return nil, false
	}

	player.Ready = !player.Ready

	return &ReadyResult{
		Room:     room.Snapshot(),
		AllReady: len(room.Players) >= 2 && room.AllReady(),
	}, true
}

// SelectPlayerType updates the requester's role and capital selections. Both
// fields are overwritten unconditionally; legality of the combination is the
// game engine's concern. Returns false when the connection occupies no room.
func (s *Service) SelectPlayerType(connID, playerType, capitalType string) (*domain.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, player := s.memberLocked(connID)
	if player == nil {
		return nil, false
	}

	player.Type = playerType
	player.CapitalType = capitalType

	return room.Snapshot(), true
}

// StartGame marks the requester's room as started and stores the initial
// shared state verbatim. Only the host may start; a second start on an
// already-started room is a silent no-op, which makes double-click races
// across two queued messages idempotent. A nil room with a nil error means
// nothing happened and nothing should be broadcast.
func (s *Service) StartGame(connID string, initialState json.RawMessage) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, player := s.memberLocked(connID)
	if player == nil {
		return nil, nil
	}
	if room.Host != connID {
		return nil, ErrNotHost
	}
	if room.Started {
		return nil, nil
	}

	room.Started = true
	room.GameState = initialState

	return room.Snapshot(), nil
}

// UpdateGameState overwrites the room's stored shared state. The payload is
// opaque; it is stored and relayed untouched. Returns false when the
// connection occupies no room.
func (s *Service) UpdateGameState(connID string, state json.RawMessage) (*domain.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, player := s.memberLocked(connID)
	if player == nil {
		return nil, false
	}

	room.GameState = state

	return room.Snapshot(), true
}

// Leave removes the requester from its room. The room is deleted the instant
// its member list empties; otherwise host privileges transfer to the first
// remaining member when the host departed. Calling Leave for a connection
// with no membership is a no-op, so an explicit leave followed by the socket
// closing never double-removes. Returns false when nothing happened.
func (s *Service) Leave(connID string) (*LeaveResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.leaveLocked(connID)
	if res == nil {
		return nil, false
	}
	return res, true
}

// RoomOf returns a snapshot of the room the connection occupies. Pure relay
// messages use it to resolve delivery targets and the sender's identity.
func (s *Service) RoomOf(connID string) (*domain.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.registry.Get(connID)
	if !ok {
		return nil, false
	}
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return nil, false
	}
	return room.Snapshot(), true
}

// OpenRooms returns snapshots of every room that has not started, oldest
// first. This is the public listing.
func (s *Service) OpenRooms() []domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openRoomsLocked()
}

// Counts reports the number of open rooms and tracked connections for the
// liveness endpoint.
func (s *Service) Counts() (rooms, connections int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms.Len(), s.registry.Len()
}

// memberLocked resolves the connection's room and its player record. Both are
// nil when the connection occupies no room.
func (s *Service) memberLocked(connID string) (*domain.Room, *domain.Player) {
	roomID, ok := s.registry.Get(connID)
	if !ok {
		return nil, nil
	}
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return nil, nil
	}
	player := room.PlayerByConn(connID)
	if player == nil {
		return nil, nil
	}
	return room, player
}

// leaveLocked performs the departure protocol and returns nil when the
// connection occupies no room. The registry entry is cleared unconditionally.
func (s *Service) leaveLocked(connID string) *LeaveResult {
	roomID, ok := s.registry.Get(connID)
	if !ok {
		return nil
	}
	defer s.registry.Delete(connID)

	room, ok := s.rooms.Get(roomID)
	if !ok {
		return nil
	}

	player, ok := room.RemovePlayer(connID)
	if !ok {
		return nil
	}

	res := &LeaveResult{RoomID: roomID, Player: player}

	if len(room.Players) == 0 {
		// Nobody remains to receive a broadcast; the room goes away now.
		s.rooms.Delete(roomID)
		res.Deleted = true
		return res
	}

	if room.Host == connID {
		room.Host = room.Players[0].ConnectionID
		res.NewHost = room.Host
	}
	res.Room = room.Snapshot()
	return res
}

func (s *Service) openRoomsLocked() []domain.Room {
	open := make([]domain.Room, 0, s.rooms.Len())
	for _, room := range s.rooms.Values() {
		if !room.Started {
			open = append(open, *room.Snapshot())
		}
	}
	sort.Slice(open, func(i, j int) bool {
		return open[i].CreatedAt.Before(open[j].CreatedAt)
	})
	return open
}

// freshRoomIDLocked generates a room code that is unique among the rooms
// currently open. Uniqueness across time is not required; a code can be
// reused once the room that held it is gone.
func (s *Service) freshRoomIDLocked() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := s.newRoomID()
		if err != nil {
			return "", fmt.Errorf("failed to generate room id: %w", err)
		}
		if _, exists := s.rooms.Get(id); !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique room id after %d attempts", maxIDAttempts)
}

func playerID(connID string) string {
	return "player_" + connID
}
