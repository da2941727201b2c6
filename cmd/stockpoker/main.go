package main

import (
	"log/slog"
	"os"

	"github.com/evanofslack/stockpoker/internal/server"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using environment variables")
	}

	// Create and start game server
	gameServer, err := server.NewGameServer()
	if err != nil {
		slog.Error("Failed to create game server", "error", err)
		os.Exit(1)
	}

	// Start server (blocks until shutdown)
	if err := gameServer.Start(); err != nil {
		slog.Error("Failed to start game server", "error", err)
		os.Exit(1)
	}
}
