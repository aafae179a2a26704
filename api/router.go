// api/router.go
package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-forms/api/handlers"
	"github.com/Annany2002/nebula-forms/api/middleware"
	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/connections"
	"github.com/Annany2002/nebula-forms/internal/editor"
	"github.com/Annany2002/nebula-forms/internal/session"
)

// SetupRouter initializes the Gin router and sets up all routes.
func SetupRouter(cfg *config.Config, profiles *config.Profiles, store *session.Store, ed *editor.Editor, relay *connections.Relay) *gin.Engine {
	router := gin.Default() // Includes Logger and Recovery

	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	ratelimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	router.Use(middleware.RateLimitMiddleware(ratelimiter))
	// Runs after Logger/Recovery and wraps every handler below.
	router.Use(middleware.ErrorHandler())

	sessionHandler := handlers.NewSessionHandler(profiles, store, cfg)
	profileHandler := handlers.NewProfileHandler(profiles)
	schemaHandler := handlers.NewSchemaHandler(ed)
	recordHandler := handlers.NewRecordHandler(ed)
	connectionHandler := handlers.NewConnectionHandler(relay)

	// --- Public Routes ---
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	apiRoutes := router.Group("/api/v1")
	apiRoutes.GET("/profiles", profileHandler.ListProfiles)
	apiRoutes.POST("/sessions", sessionHandler.CreateSession)

	// --- Session Routes ---
	current := apiRoutes.Group("/sessions/current")
	current.Use(middleware.SessionMiddleware(cfg, store))
	{
		current.DELETE("", sessionHandler.DeleteSession)

		current.POST("/connect", schemaHandler.Connect)
		current.POST("/refresh", schemaHandler.Refresh)
		current.GET("/schema", schemaHandler.Schema)

		current.GET("/records", recordHandler.ListRecords)
		current.GET("/stats", recordHandler.Stats)
		current.GET("/form", recordHandler.Form)
		current.POST("/records", recordHandler.CreateRecord)
		current.PUT("/records", recordHandler.UpdateRecord)
		current.DELETE("/records", recordHandler.DeleteRecord)

		current.POST("/connections/request", connectionHandler.Request)
		current.POST("/mcp/request", connectionHandler.MCPRequest)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
