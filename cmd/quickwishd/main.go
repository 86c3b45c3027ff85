package main

import (
	"log"

	"github.com/quickwish/quickwish/internal/config"
	"github.com/quickwish/quickwish/internal/logger"
	"github.com/quickwish/quickwish/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	slogger := logger.SetupLogger(cfg)

	// Log startup information
	slogger.Info("Starting QuickWish dev server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	srv := server.New(cfg, slogger)

	if err := server.Run(srv); err != nil {
		slogger.Error("Failed to start server", "error", err)
		log.Fatalf("Fatal: %v", err)
	}
}
