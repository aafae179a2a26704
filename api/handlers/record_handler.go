// api/handlers/record_handler.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-forms/api/middleware"
	"github.com/Annany2002/nebula-forms/api/models"
	"github.com/Annany2002/nebula-forms/internal/core"
	"github.com/Annany2002/nebula-forms/internal/editor"
)

// RecordHandler serves the table view, forms and record mutations of a session.
type RecordHandler struct {
	Editor *editor.Editor
}

func NewRecordHandler(ed *editor.Editor) *RecordHandler {
	return &RecordHandler{Editor: ed}
}

// keyParam reads the key column value that addresses a record.
func keyParam(c *gin.Context) (string, error) {
	key, ok := c.GetQuery("key")
	if !ok || key == "" {
		return "", fmt.Errorf("%w: query parameter 'key' is required", middleware.ErrBadRequest)
	}
	return key, nil
}

// ListRecords returns a page of the snapshot, filtered by ?search=.
func (h *RecordHandler) ListRecords(c *gin.Context) {
	opts, err := core.ParseListQueryOptions(c.Request.URL.Query())
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: %w", middleware.ErrBadRequest, err))
		return
	}

	sc := middleware.CurrentSession(c)
	page, err := h.Editor.Records(c.Request.Context(), sc, opts)
	if err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Session %s listed %d of %d records", sc.ID, len(page.Rows), page.Stats.Displayed)
	c.JSON(http.StatusOK, page)
}

// Stats summarises the snapshot.
func (h *RecordHandler) Stats(c *gin.Context) {
	stats, err := h.Editor.Stats(c.Request.Context(), middleware.CurrentSession(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Form renders the add form, or the edit form for ?key=.
func (h *RecordHandler) Form(c *gin.Context) {
	mode, err := editor.ParseMode(c.DefaultQuery("mode", string(editor.ModeAdd)))
	if err != nil {
		_ = c.Error(err)
		return
	}
	key := ""
	if mode == editor.ModeEdit {
		if key, err = keyParam(c); err != nil {
			_ = c.Error(err)
			return
		}
	}

	form, err := h.Editor.Form(c.Request.Context(), middleware.CurrentSession(c), mode, key)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// CreateRecord validates and inserts a record.
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	var req models.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	sc := middleware.CurrentSession(c)
	result, err := h.Editor.Add(c.Request.Context(), sc, req.Values)
	if err != nil {
		customLog.Warnf("Handler: Insert rejected for session %s: %v", sc.ID, err)
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Session %s inserted a record into '%s'", sc.ID, sc.Profile.Table)
	c.JSON(http.StatusCreated, models.RecordResponse{Message: "Record inserted successfully", Result: *result})
}

// UpdateRecord validates and updates the record addressed by ?key=.
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	key, err := keyParam(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req models.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	sc := middleware.CurrentSession(c)
	result, err := h.Editor.Edit(c.Request.Context(), sc, key, req.Values)
	if err != nil {
		customLog.Warnf("Handler: Update of '%s' rejected for session %s: %v", key, sc.ID, err)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.RecordResponse{Message: "Record updated successfully", Result: *result})
}

// DeleteRecord removes the record addressed by ?key=.
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	key, err := keyParam(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	sc := middleware.CurrentSession(c)
	result, err := h.Editor.Delete(c.Request.Context(), sc, key)
	if err != nil {
		customLog.Warnf("Handler: Delete of '%s' failed for session %s: %v", key, sc.ID, err)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.RecordResponse{Message: "Record deleted successfully", Result: *result})
}
