package gateway

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

// ProfileHandler proxies member profile reads and updates with the
// caller's bearer token.
type ProfileHandler struct {
	cms    *client.Client
	logger *zap.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(cms *client.Client, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{cms: cms, logger: logger}
}

// Register mounts the profile routes on rg.
func (h *ProfileHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/profile", requireBearer(), h.GetOwnProfile)
	rg.GET("/profile/:id", requireBearer(), h.GetProfile)
	rg.PUT("/profile", requireBearer(), h.UpdateProfile)
}

// GetOwnProfile handles GET /profile. The backend resolves the user from
// the token, and the full record is returned.
func (h *ProfileHandler) GetOwnProfile(c *gin.Context) {
	p, err := h.cms.GetUserProfile(c.Request.Context(), c.GetString(ctxBearerToken), 0)
	if err != nil {
		writeError(c, h.logger, "get profile", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetProfile handles GET /profile/:id. The result is the public view: a
// private profile is reported as not found and hidden fields are cleared.
// Owners read their own record through GET /profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	p, err := h.cms.GetUserProfile(c.Request.Context(), c.GetString(ctxBearerToken), id)
	if err != nil {
		writeError(c, h.logger, "get profile", err)
		return
	}
	if !p.Listed() {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, p.VisibleTo(false))
}

// UpdateProfile handles PUT /profile with the full profile document.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var p client.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	updated, err := h.cms.UpdateUserProfile(c.Request.Context(), c.GetString(ctxBearerToken), p)
	if err != nil {
		writeError(c, h.logger, "update profile", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
