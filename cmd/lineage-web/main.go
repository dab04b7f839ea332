package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/lineage/internal/config"
	"github.com/scrypster/lineage/internal/expand"
	"github.com/scrypster/lineage/internal/kittyapi"
	"github.com/scrypster/lineage/internal/server"
	"github.com/scrypster/lineage/internal/sessions"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file overlaying the environment")
	flag.Parse()

	// Load configuration
	var cfg *config.Config
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfigFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config file %s: %v", *configPath, err)
		}
	} else {
		cfg = config.LoadConfig()
	}

	// Upstream API client, shared by every session
	client := kittyapi.NewClient(kittyapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second,
	})

	manager := sessions.NewManager(client, expand.Config{
		PrefetchDelay: time.Duration(cfg.API.PrefetchDelayMS) * time.Millisecond,
	})

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, _, err := server.Start(ctx, cfg, manager, client)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Lineage Web UI running at http://%s", addr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}
