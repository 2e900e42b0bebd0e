package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

// writeError maps a mutation error onto a JSON response. Backend 4xx
// answers pass through with the backend's message so the caller can show
// it; anything else is reported as a bad gateway.
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	var ve *client.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
		return
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < 400 || status >= 500 {
			logger.Warn(op+" failed upstream", zap.Int("status", apiErr.Status), zap.Error(err))
			status = http.StatusBadGateway
		}
		body := gin.H{"error": apiErr.Error()}
		if apiErr.Code != "" {
			body["code"] = apiErr.Code
		}
		c.JSON(status, body)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "upstream timed out"})
		return
	}

	logger.Error(op+" failed", zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": "upstream request failed"})
}
