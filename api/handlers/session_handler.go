// api/handlers/session_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Annany2002/nebula-forms/api/middleware"
	"github.com/Annany2002/nebula-forms/api/models"
	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/logger"
	"github.com/Annany2002/nebula-forms/internal/session"
)

var (
	customLog = logger.NewLogger()
)

// SessionHandler opens and closes editor sessions.
type SessionHandler struct {
	Profiles *config.Profiles
	Store    *session.Store
	Cfg      *config.Config
}

func NewSessionHandler(profiles *config.Profiles, store *session.Store, cfg *config.Config) *SessionHandler {
	return &SessionHandler{Profiles: profiles, Store: store, Cfg: cfg}
}

// CreateSession starts a session on a profile and issues its token.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("CreateSession binding error: %v", err)
		_ = c.Error(bindError(err))
		return
	}

	profile, err := h.Profiles.Get(req.Profile)
	if err != nil {
		_ = c.Error(err)
		return
	}

	sc := h.Store.Create(profile)
	token, err := session.GenerateToken(sc, h.Cfg.SessionSecret, h.Cfg.SessionTTL)
	if err != nil {
		h.Store.Delete(sc.ID)
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Started session %s on profile '%s'", sc.ID, profile.Name)
	c.JSON(http.StatusCreated, models.CreateSessionResponse{
		Message:   "Session created successfully",
		SessionID: sc.ID,
		Token:     token,
		ExpiresAt: sc.CreatedAt.Add(h.Cfg.SessionTTL).UTC().Truncate(time.Second),
		Profile:   profile.Summary(),
	})
}

// DeleteSession ends the current session.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	sc := middleware.CurrentSession(c)
	h.Store.Delete(sc.ID)
	customLog.Printf("Handler: Ended session %s", sc.ID)
	c.Status(http.StatusNoContent)
}

// bindError keeps validator errors intact for ErrorHandler and marks
// everything else (bad JSON) as a bad request.
func bindError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return err
	}
	return fmt.Errorf("%w: invalid JSON request body: %w", middleware.ErrBadRequest, err)
}
