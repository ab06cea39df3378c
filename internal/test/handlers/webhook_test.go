package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"adforge-backend/internal/config"
	"adforge-backend/internal/handlers"
	"adforge-backend/internal/services"
)

func webhookRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	reconciler := services.NewReconciler(cfg, nil, nil, nil)
	router := gin.New()
	router.POST("/api/v1/webhooks/runpod", handlers.NewWebhookHandler(cfg, reconciler).HandleWebhook)
	return router
}

func TestWebhook_RejectsBadToken(t *testing.T) {
	router := webhookRouter(&config.Config{RunPodWebhookToken: "secret-token"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/webhooks/runpod", bytes.NewBufferString(`{"id":"job-1","status":"COMPLETED"}`))
	req.Header.Set("Authorization", "Bearer wrong-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhook_RejectsMalformedBody(t *testing.T) {
	router := webhookRouter(&config.Config{RunPodWebhookToken: "secret-token"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/webhooks/runpod", bytes.NewBufferString(`{not json`))
	req.Header.Set("Authorization", "Bearer secret-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_AcknowledgesEventWithoutJobID(t *testing.T) {
	router := webhookRouter(&config.Config{RunPodWebhookToken: "secret-token"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/webhooks/runpod", bytes.NewBufferString(`{"status":"COMPLETED"}`))
	req.Header.Set("Authorization", "Bearer secret-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
