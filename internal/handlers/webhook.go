package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"adforge-backend/internal/config"
	"adforge-backend/internal/models"
	"adforge-backend/internal/services"
)

type WebhookHandler struct {
	config     *config.Config
	reconciler *services.Reconciler
}

func NewWebhookHandler(cfg *config.Config, reconciler *services.Reconciler) *WebhookHandler {
	return &WebhookHandler{
		config:     cfg,
		reconciler: reconciler,
	}
}

// jobEvent is the push notification the async backend delivers. It carries
// only the backend's own job id; correlation back to a generation record
// happens through the stored handle.
type jobEvent struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// HandleWebhook receives job completion pushes. The backend delivers
// at-least-once and expects acknowledgment regardless of whether the job
// matches a record, so unmatched or already-finalized jobs return 200.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

	if h.config.RunPodWebhookToken != "" && token != h.config.RunPodWebhookToken {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid authorization token"})
		return
	}

	var event jobEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse event",
			Message: err.Error(),
		})
		return
	}

	if event.ID != "" {
		h.reconciler.HandleCallback(event.ID, event.Status, event.Output, event.Error)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
