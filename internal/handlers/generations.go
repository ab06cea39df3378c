package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"adforge-backend/internal/middleware"
	"adforge-backend/internal/models"
	"adforge-backend/internal/quota"
	"adforge-backend/internal/services"
)

type GenerationsHandler struct {
	dispatch   *services.DispatchService
	reconciler *services.Reconciler
	db         services.Store
}

func NewGenerationsHandler(dispatch *services.DispatchService, reconciler *services.Reconciler, db services.Store) *GenerationsHandler {
	return &GenerationsHandler{
		dispatch:   dispatch,
		reconciler: reconciler,
		db:         db,
	}
}

// currentUserID pulls the authenticated user out of the gin context.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return uuid.Nil, false
	}

	return userID, true
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrQuotaExceeded):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error:   "quota exceeded",
			Message: "Monthly generation limit reached. Upgrade your plan to continue.",
		})
	case errors.Is(err, services.ErrUnknownModel),
		errors.Is(err, services.ErrMissingBrandBrain),
		errors.Is(err, services.ErrInvalidVariation):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrSourceNotFound),
		errors.Is(err, services.ErrGenerationsNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrSourceNotReady):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrBackendSubmitFailed):
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "generation failed",
			Message: "The generation backend rejected the job. Try again.",
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal error",
			Message: err.Error(),
		})
	}
}

// Create dispatches one generation unit.
func (h *GenerationsHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	record, err := h.dispatch.Dispatch(userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewGenerationResponse(record))
}

// List returns the account's generations, newest first.
func (h *GenerationsHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	generations, err := h.db.ListGenerations(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list generations",
			Message: err.Error(),
		})
		return
	}

	resp := models.GenerationListResponse{Generations: make([]models.GenerationResponse, 0, len(generations))}
	for i := range generations {
		resp.Generations = append(resp.Generations, models.NewGenerationResponse(&generations[i]))
	}

	c.JSON(http.StatusOK, resp)
}

// Get returns one record. Non-terminal records get a single reconciliation
// poll first, so clients polling this endpoint drive the job to completion
// even if the webhook never arrives.
func (h *GenerationsHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	generationID, err := uuid.Parse(c.Param("generation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid generation id"})
		return
	}

	record, err := h.db.GetGeneration(generationID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "generation not found",
			Message: err.Error(),
		})
		return
	}

	if !record.Status.Terminal() && record.Kind.IsImage() {
		if polled, err := h.reconciler.PollOnce(record); err == nil {
			record = polled
		}
	}

	c.JSON(http.StatusOK, models.NewGenerationResponse(record))
}

// CreateVariation derives a new generation from a finished record.
func (h *GenerationsHandler) CreateVariation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	sourceID, err := uuid.Parse(c.Param("generation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid generation id"})
		return
	}

	var req models.VariationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	record, err := h.dispatch.DeriveVariation(userID, sourceID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewGenerationResponse(record))
}

// SetFavorite toggles the owner-mutable favorite flag.
func (h *GenerationsHandler) SetFavorite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	generationID, err := uuid.Parse(c.Param("generation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid generation id"})
		return
	}

	var req models.FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if err := h.db.SetGenerationFavorite(generationID, userID, req.IsFavorite); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "generation not found",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetQuota reports the account's remaining monthly allowance.
func (h *GenerationsHandler) GetQuota(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, plan, err := h.dispatch.CheckQuota(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to check quota",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.QuotaResponse{
		Allowed:   result.Allowed,
		Current:   result.Current,
		Limit:     result.Limit,
		Unlimited: result.Limit == quota.Unlimited,
		Plan:      plan,
	})
}
