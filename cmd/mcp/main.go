// cmd/mcp/main.go
package main

import (
	"flag"
	"os"
	"time"

	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/editor"
	"github.com/Annany2002/nebula-forms/internal/logger"
	"github.com/Annany2002/nebula-forms/internal/mcpserver"
	"github.com/Annany2002/nebula-forms/internal/session"
	"github.com/Annany2002/nebula-forms/internal/storage"
)

const version = "0.1.0"

var (
	customLog = logger.NewLogger()
)

func main() {
	profilesPath := flag.String("profiles", "config/profiles/profiles.yaml", "path to the editor profiles file")
	flag.Parse()

	// stdout carries the protocol
	logger.SetOutput(os.Stderr)

	profiles, err := config.LoadProfiles(*profilesPath)
	if err != nil {
		customLog.Fatalf("Failed to load editor profiles: %v", err)
	}

	pool := storage.NewPool(time.Hour)
	defer pool.Close()

	s := mcpserver.New(profiles, session.NewStore(24*time.Hour), editor.New(pool), version)
	customLog.Printf("Serving %d profile(s) over stdio", len(profiles.List()))
	if err := s.ServeStdio(); err != nil {
		customLog.Printf("Server error: %v", err)
	}
}
