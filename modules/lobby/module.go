package lobby

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-monolith/mono"

	domain "github.com/example/game-lobby-demo/domain/lobby"
	"github.com/example/game-lobby-demo/events"
)

// Module wraps the lifecycle Service with mono glue: lifecycle hooks, health
// reporting, and event-bus publication of listing-relevant mutations. The
// gateway calls the Module; tests exercise the Service directly.
type Module struct {
	service  *Service
	eventBus mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a lobby module with the given default room capacity.
func NewModule(defaultCapacity int) *Module {
	return &Module{
		service: NewService(defaultCapacity),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "lobby"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomOpenedV1.ToBase(),
		events.PlayerJoinedV1.ToBase(),
		events.PlayerLeftV1.ToBase(),
		events.GameStartedV1.ToBase(),
		events.RoomClosedV1.ToBase(),
	}
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[lobby] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	rooms, conns := m.service.Counts()
	log.Printf("[lobby] Module stopped - %d rooms open, %d connections tracked", rooms, conns)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	rooms, conns := m.service.Counts()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"open_rooms":  rooms,
			"connections": conns,
		},
	}
}

// CreateRoom opens a room and publishes RoomOpened (plus departure events for
// any auto-left previous room).
func (m *Module) CreateRoom(connID, name string, maxPlayers int) (*CreateResult, error) {
	res, err := m.service.CreateRoom(connID, name, maxPlayers)
	if err != nil {
		return nil, err
	}

	m.publishLeft(res.Left)
	if m.eventBus != nil {
		event := events.RoomOpenedEvent{
			RoomID:    res.Room.ID,
			RoomName:  res.Room.Name,
			Host:      res.Room.Host,
			OpenRooms: m.service.OpenRooms(),
			Timestamp: time.Now(),
		}
		if err := events.RoomOpenedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[lobby] Failed to publish RoomOpened event: %v", err)
		}
	}

	log.Printf("[lobby] Room %s created by %s", res.Room.ID, name)
	return res, nil
}

// JoinRoom adds a player to a room and publishes PlayerJoined.
func (m *Module) JoinRoom(connID, roomID, name string) (*JoinResult, error) {
	res, err := m.service.JoinRoom(connID, roomID, name)
	if err != nil {
		return nil, err
	}

	m.publishLeft(res.Left)
	if m.eventBus != nil {
		event := events.PlayerJoinedEvent{
			RoomID:    roomID,
			PlayerID:  res.Player.ID,
			Name:      res.Player.Name,
			OpenRooms: m.service.OpenRooms(),
			Timestamp: time.Now(),
		}
		if err := events.PlayerJoinedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[lobby] Failed to publish PlayerJoined event: %v", err)
		}
	}

	log.Printf("[lobby] %s joined room %s", name, roomID)
	return res, nil
}

// ToggleReady flips the player's ready flag.
func (m *Module) ToggleReady(connID string) (*ReadyResult, bool) {
	return m.service.ToggleReady(connID)
}

// SelectPlayerType updates the player's role and capital selections.
func (m *Module) SelectPlayerType(connID, playerType, capitalType string) (*domain.Room, bool) {
	return m.service.SelectPlayerType(connID, playerType, capitalType)
}

// StartGame marks the room as started and publishes GameStarted.
func (m *Module) StartGame(connID string, initialState json.RawMessage) (*domain.Room, error) {
	room, err := m.service.StartGame(connID, initialState)
	if err != nil || room == nil {
		return room, err
	}

	if m.eventBus != nil {
		event := events.GameStartedEvent{
			RoomID:    room.ID,
			OpenRooms: m.service.OpenRooms(),
			Timestamp: time.Now(),
		}
		if err := events.GameStartedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[lobby] Failed to publish GameStarted event: %v", err)
		}
	}

	log.Printf("[lobby] Game started in room %s", room.ID)
	return room, nil
}

// UpdateGameState overwrites the room's shared state.
func (m *Module) UpdateGameState(connID string, state json.RawMessage) (*domain.Room, bool) {
	return m.service.UpdateGameState(connID, state)
}

// Leave removes the player and publishes the departure events.
func (m *Module) Leave(connID string) (*LeaveResult, bool) {
	res, ok := m.service.Leave(connID)
	if !ok {
		return nil, false
	}
	m.publishLeft(res)
	return res, true
}

// RoomOf returns a snapshot of the room the connection occupies.
func (m *Module) RoomOf(connID string) (*domain.Room, bool) {
	return m.service.RoomOf(connID)
}

// OpenRooms returns the public listing.
func (m *Module) OpenRooms() []domain.Room {
	return m.service.OpenRooms()
}

// Counts reports open rooms and tracked connections.
func (m *Module) Counts() (rooms, connections int) {
	return m.service.Counts()
}

// departureSignals reports which event a leave outcome publishes. One leave
// is one mutation, so exactly one listing refresh rides the bus: a deleting
// leave publishes RoomClosed alone, never PlayerLeft on top of it.
func departureSignals(res *LeaveResult) (playerLeft, roomClosed bool) {
	if res == nil {
		return false, false
	}
	return !res.Deleted, res.Deleted
}

// publishLeft publishes the departure event for a leave outcome. Publication
// is best-effort: the listing refresh is advisory, so a bus failure is logged
// and otherwise ignored.
func (m *Module) publishLeft(res *LeaveResult) {
	playerLeft, roomClosed := departureSignals(res)

	if playerLeft && m.eventBus != nil {
		event := events.PlayerLeftEvent{
			RoomID:    res.RoomID,
			PlayerID:  res.Player.ID,
			Name:      res.Player.Name,
			OpenRooms: m.service.OpenRooms(),
			Timestamp: time.Now(),
		}
		if err := events.PlayerLeftV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[lobby] Failed to publish PlayerLeft event: %v", err)
		}
	}

	if roomClosed {
		if m.eventBus != nil {
			event := events.RoomClosedEvent{
				RoomID:    res.RoomID,
				OpenRooms: m.service.OpenRooms(),
				Timestamp: time.Now(),
			}
			if err := events.RoomClosedV1.Publish(m.eventBus, event, nil); err != nil {
				log.Printf("[lobby] Failed to publish RoomClosed event: %v", err)
			}
		}
		log.Printf("[lobby] Room %s deleted (empty)", res.RoomID)
	}
}
