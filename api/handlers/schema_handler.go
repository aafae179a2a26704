// api/handlers/schema_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-forms/api/middleware"
	"github.com/Annany2002/nebula-forms/internal/editor"
)

// SchemaHandler connects a session to its table and describes it.
type SchemaHandler struct {
	Editor *editor.Editor
}

func NewSchemaHandler(ed *editor.Editor) *SchemaHandler {
	return &SchemaHandler{Editor: ed}
}

// Connect loads schema and records into the session.
func (h *SchemaHandler) Connect(c *gin.Context) {
	sc := middleware.CurrentSession(c)
	view, err := h.Editor.Connect(c.Request.Context(), sc)
	if err != nil {
		customLog.Warnf("Handler: Connect failed for session %s: %v", sc.ID, err)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Refresh re-reads schema and records.
func (h *SchemaHandler) Refresh(c *gin.Context) {
	sc := middleware.CurrentSession(c)
	view, err := h.Editor.Refresh(c.Request.Context(), sc)
	if err != nil {
		customLog.Warnf("Handler: Refresh failed for session %s: %v", sc.ID, err)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *SchemaHandler) Schema(c *gin.Context) {
	view, err := h.Editor.Schema(middleware.CurrentSession(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}
