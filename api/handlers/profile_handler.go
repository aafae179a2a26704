// api/handlers/profile_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-forms/api/models"
	"github.com/Annany2002/nebula-forms/config"
)

// ProfileHandler lists the configured editor pages.
type ProfileHandler struct {
	Profiles *config.Profiles
}

func NewProfileHandler(profiles *config.Profiles) *ProfileHandler {
	return &ProfileHandler{Profiles: profiles}
}

// ListProfiles returns every profile without credentials.
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	profiles := h.Profiles.List()
	resp := models.ProfilesResponse{Profiles: make([]config.Summary, 0, len(profiles))}
	for _, p := range profiles {
		resp.Profiles = append(resp.Profiles, p.Summary())
	}
	c.JSON(http.StatusOK, resp)
}
