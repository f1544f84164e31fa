package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/game-lobby-demo/modules/broadcast"
	"github.com/example/game-lobby-demo/modules/gateway"
	"github.com/example/game-lobby-demo/modules/lobby"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Game Lobby Server ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	lobbyModule := lobby.NewModule(defaultCapacity())
	broadcastModule := broadcast.NewModule()
	gatewayModule := gateway.NewModule(lobbyModule)

	// Inject the broadcast hub into the gateway
	// (done manually because the hub is not exposed via ServiceContainer)
	gatewayModule.SetHub(broadcastModule.GetHub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - lobby: room lifecycle + event emitter
	// - broadcast: WebSocket hub + event consumer (rooms-updated fan-out)
	// - gateway: Fiber HTTP/WebSocket server, depends on lobby
	app.Register(lobbyModule)
	app.Register(broadcastModule)
	app.Register(gatewayModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func defaultCapacity() int {
	if v := os.Getenv("LOBBY_DEFAULT_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("Ignoring invalid LOBBY_DEFAULT_CAPACITY=%q", v)
	}
	return lobby.DefaultCapacity
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("WebSocket endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Lobby:  create-room, join-room, get-rooms, toggle-ready,")
	log.Println("          select-player-type, start-game, leave-room")
	log.Println("  Match:  perform-action, update-game-state, next-turn,")
	log.Println("          trigger-event, select-event-option, send-message")
	log.Println("")
	log.Printf("HTTP endpoints (http://localhost:%s):", port)
	log.Println("  GET /health        - liveness (room/connection counts)")
	log.Println("  GET /api/v1/rooms  - public room listing")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
