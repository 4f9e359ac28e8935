package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/dupe-guard/internal/app"
	"github.com/yourusername/dupe-guard/internal/domain"
)

// MessageHandler handles inbound message webhooks
type MessageHandler struct {
	engine *app.Engine
	logger *zap.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(engine *app.Engine, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		engine: engine,
		logger: logger,
	}
}

// ProcessResponse represents the outcome of an inbound message
type ProcessResponse struct {
	*domain.DecisionResult
	Error   string `json:"error,omitempty"`
	Failure string `json:"failure,omitempty"`
}

// Process handles POST /api/v1/messages
func (h *MessageHandler) Process(c *gin.Context) {
	var msg domain.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, ref := range msg.Media {
		if !domain.ValidateMediaKind(ref.Kind) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown media kind: %s", ref.Kind)})
			return
		}
	}

	result, err := h.engine.Process(c.Request.Context(), &msg)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrDeletionPermissionDenied) {
			status = http.StatusForbidden
		}
		c.JSON(status, ProcessResponse{
			DecisionResult: result,
			Error:          err.Error(),
			Failure:        domain.DeletionFailureKind(err),
		})
		return
	}

	c.JSON(http.StatusOK, ProcessResponse{DecisionResult: result})
}
