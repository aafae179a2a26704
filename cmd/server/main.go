// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Annany2002/nebula-forms/api"
	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/connections"
	"github.com/Annany2002/nebula-forms/internal/editor"
	"github.com/Annany2002/nebula-forms/internal/logger"
	"github.com/Annany2002/nebula-forms/internal/session"
	"github.com/Annany2002/nebula-forms/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

func main() {
	customLog.Println("Starting Nebula Forms server...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		customLog.Fatalf("Failed to load configuration: %v", err)
	}
	profiles, err := config.LoadProfiles(cfg.ProfilesFile)
	if err != nil {
		customLog.Fatalf("Failed to load editor profiles: %v", err)
	}

	// 2. Backends and sessions
	pool := storage.NewPool(cfg.ConnectionTTL)
	defer func() {
		customLog.Println("Closing database connections...")
		pool.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(cfg.SessionTTL)
	go store.RunPruner(ctx, time.Minute)

	// 3. Setup Router (passing dependencies)
	router := api.SetupRouter(cfg, profiles, store, editor.New(pool), connections.NewRelay(cfg.HTTPTimeout))

	// 4. Start Server
	srv := &http.Server{Addr: cfg.ServerPort, Handler: router}
	go func() {
		customLog.Printf("Server listening on %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			customLog.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	customLog.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		customLog.Printf("Error during shutdown: %v", err)
	}
}
