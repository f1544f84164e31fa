package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/game-lobby-demo/events"
)

// Module is an EventConsumerModule that pushes the refreshed public room
// listing to every connected client whenever a lobby mutation changes it.
// Room-scoped broadcasts do not pass through here; the gateway issues those
// synchronously so their ordering within one inbound message is preserved.
type Module struct {
	hub *Hub
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new broadcast module.
func NewModule() *Module {
	return &Module{hub: NewHub()}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "broadcast"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[broadcast] Module started")
	return nil
}

// Stop closes all client connections.
func (m *Module) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	m.hub.CloseAll()
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers subscribes to every listing-relevant lobby event.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomOpenedV1, m.handleRoomOpened, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomOpened consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.PlayerJoinedV1, m.handlePlayerJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register PlayerJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.PlayerLeftV1, m.handlePlayerLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register PlayerLeft consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.GameStartedV1, m.handleGameStarted, m,
	); err != nil {
		return fmt.Errorf("failed to register GameStarted consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomClosedV1, m.handleRoomClosed, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomClosed consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: RoomOpened, PlayerJoined, PlayerLeft, GameStarted, RoomClosed")
	return nil
}

func (m *Module) handleRoomOpened(_ context.Context, event events.RoomOpenedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Room %s opened, refreshing listing", event.RoomID)
	m.hub.BroadcastAll("rooms-updated", event.OpenRooms)
	return nil
}

func (m *Module) handlePlayerJoined(_ context.Context, event events.PlayerJoinedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Player %s joined room %s, refreshing listing", event.Name, event.RoomID)
	m.hub.BroadcastAll("rooms-updated", event.OpenRooms)
	return nil
}

func (m *Module) handlePlayerLeft(_ context.Context, event events.PlayerLeftEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Player %s left room %s, refreshing listing", event.Name, event.RoomID)
	m.hub.BroadcastAll("rooms-updated", event.OpenRooms)
	return nil
}

func (m *Module) handleGameStarted(_ context.Context, event events.GameStartedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Game started in room %s, refreshing listing", event.RoomID)
	m.hub.BroadcastAll("rooms-updated", event.OpenRooms)
	return nil
}

func (m *Module) handleRoomClosed(_ context.Context, event events.RoomClosedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Room %s closed, refreshing listing", event.RoomID)
	m.hub.BroadcastAll("rooms-updated", event.OpenRooms)
	return nil
}

// GetHub returns the WebSocket hub for the gateway module to use.
func (m *Module) GetHub() *Hub {
	return m.hub
}
