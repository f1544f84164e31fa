package lobby

import (
	domain "github.com/example/game-lobby-demo/domain/lobby"
)

// RoomStore is a keyed container for open rooms. It carries no locking and no
// business rules: every invariant (one room per connection, no empty rooms,
// host always present) is enforced by the Service, which is the single writer.
type RoomStore struct {
	rooms map[string]*domain.Room
}

// NewRoomStore creates an empty room store.
func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*domain.Room)}
}

// Get returns the room with the given id.
func (s *RoomStore) Get(id string) (*domain.Room, bool) {
	room, ok := s.rooms[id]
	return room, ok
}

// Set stores a room under its id.
func (s *RoomStore) Set(room *domain.Room) {
	s.rooms[room.ID] = room
}

// Delete removes a room.
func (s *RoomStore) Delete(id string) {
	delete(s.rooms, id)
}

// Len returns the number of open rooms.
func (s *RoomStore) Len() int {
	return len(s.rooms)
}

// Values returns all rooms, in no particular order.
func (s *RoomStore) Values() []*domain.Room {
	rooms := make([]*domain.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// ConnectionRegistry maps a connection id to the room it currently occupies.
// At most one room per connection. Like RoomStore it is a plain lookup table
// used only under the Service lock.
type ConnectionRegistry struct {
	byConn map[string]string // connection id -> room id
}

// NewConnectionRegistry creates an empty registry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{byConn: make(map[string]string)}
}

// Get returns the room id the connection occupies, if any.
func (r *ConnectionRegistry) Get(connID string) (string, bool) {
	roomID, ok := r.byConn[connID]
	return roomID, ok
}

// Set records the connection's room.
func (r *ConnectionRegistry) Set(connID, roomID string) {
	r.byConn[connID] = roomID
}

// Delete clears the connection's mapping.
func (r *ConnectionRegistry) Delete(connID string) {
	delete(r.byConn, connID)
}

// Len returns the number of tracked connections.
func (r *ConnectionRegistry) Len() int {
	return len(r.byConn)
}
