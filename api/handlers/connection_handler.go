// api/handlers/connection_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-forms/api/middleware"
	"github.com/Annany2002/nebula-forms/api/models"
	"github.com/Annany2002/nebula-forms/internal/connections"
)

// ConnectionHandler relays requests to the external service a profile names.
type ConnectionHandler struct {
	Relay *connections.Relay
}

func NewConnectionHandler(relay *connections.Relay) *ConnectionHandler {
	return &ConnectionHandler{Relay: relay}
}

// Request relays one HTTP call. The upstream status is reported in the body.
func (h *ConnectionHandler) Request(c *gin.Context) {
	var req connections.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	sc := middleware.CurrentSession(c)
	resp, err := h.Relay.Do(c.Request.Context(), sc, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	customLog.Printf("Handler: Session %s relayed %s %s -> %d", sc.ID, req.Method, req.Path, resp.StatusCode)
	c.JSON(http.StatusOK, resp)
}

// MCPRequest relays a JSON-RPC message, initializing the MCP session first if needed.
func (h *ConnectionHandler) MCPRequest(c *gin.Context) {
	var req models.MCPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	sc := middleware.CurrentSession(c)
	resp, err := h.Relay.MCP(c.Request.Context(), sc, req.Payload)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
