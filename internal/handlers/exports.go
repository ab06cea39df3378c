package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"adforge-backend/internal/models"
	"adforge-backend/internal/platforms"
	"adforge-backend/internal/services"
)

type ExportsHandler struct {
	exports *services.ExportService
}

func NewExportsHandler(exports *services.ExportService) *ExportsHandler {
	return &ExportsHandler{exports: exports}
}

// Create validates the selection, records the export, and streams the
// package. Archive responses begin flowing before packaging finishes; the
// document formats return inline JSON.
func (h *ExportsHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	record, generations, err := h.exports.Prepare(userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if record.Format != models.FormatArchive {
		doc, err := h.exports.BuildDocument(record, generations)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to build export",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, doc)
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="export_%s.zip"`, record.ID))
	c.Header("X-Export-ID", record.ID.String())
	c.Status(http.StatusOK)

	if err := h.exports.StreamArchive(record, generations, c.Writer); err != nil {
		// Headers are already gone; abort the connection and leave the
		// record for out-of-band reconciliation.
		log.Printf("export %s stream failed: %v", record.ID, err)
		c.Abort()
	}
}

// Get reports an export's lifecycle state and file URL once ready.
func (h *ExportsHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	exportID, err := uuid.Parse(c.Param("export_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid export id"})
		return
	}

	record, err := h.exports.Get(exportID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "export not found",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.NewExportResponse(record))
}

// ListPlatforms exposes the static platform spec table.
func (h *ExportsHandler) ListPlatforms(c *gin.Context) {
	specs := make(map[string][]gin.H, len(platforms.Specs))
	for name, targets := range platforms.Specs {
		entries := make([]gin.H, 0, len(targets))
		for _, t := range targets {
			entries = append(entries, gin.H{"name": t.Name, "width": t.Width, "height": t.Height})
		}
		specs[name] = entries
	}
	c.JSON(http.StatusOK, gin.H{"platforms": specs})
}
