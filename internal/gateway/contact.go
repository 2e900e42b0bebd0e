package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Dongwon38/wpyvr-sub000/internal/contact"
	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

// ContactHandler accepts contact-form submissions.
type ContactHandler struct {
	svc    *contact.Service
	logger *zap.Logger
}

// NewContactHandler creates a ContactHandler.
func NewContactHandler(svc *contact.Service, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{svc: svc, logger: logger}
}

// Register mounts POST /contact on rg.
func (h *ContactHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/contact", h.Submit)
}

// Submit handles POST /contact.
func (h *ContactHandler) Submit(c *gin.Context) {
	var sub contact.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		recordContact("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.svc.Submit(c.Request.Context(), sub); err != nil {
		var ve *client.ValidationError
		if errors.As(err, &ve) {
			recordContact("invalid")
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
			return
		}
		recordContact("failed")
		h.logger.Error("contact submit", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}
	recordContact("sent")
	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}
