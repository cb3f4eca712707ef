package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"improv/host/internal/config"
	"improv/host/internal/improv"
	"improv/host/internal/mcpserver"
	"improv/host/internal/scenario"
	"improv/host/internal/snapshot"
)

// main serves the improv tool surface over MCP on stdio.
func main() {
	_ = godotenv.Load()
	log.SetPrefix("[MCP] ")

	cfg := config.Load()

	catalog, err := scenario.NewCatalog(cfg.Improv.ScenariosPath)
	if err != nil {
		log.Fatalf("load scenarios: %v", err)
	}

	game := improv.New(catalog, cfg.Improv.MaxRounds)
	snaps := snapshot.NewStore(cfg.Improv.SessionsDir)
	srv := mcpserver.New(game, snaps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.RunStdio(ctx); err != nil {
		log.Fatalf("failed to serve MCP: %v", err)
	}
}
