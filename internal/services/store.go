package services

import (
	"encoding/json"

	"github.com/google/uuid"
	"adforge-backend/internal/models"
	"adforge-backend/internal/runpod"
)

// Store is the persistence surface the services need. Satisfied by
// *database.DatabaseClient.
type Store interface {
	CreateGeneration(g *models.Generation) (*models.Generation, error)
	GetGeneration(generationID, userID uuid.UUID) (*models.Generation, error)
	GetGenerationByID(generationID uuid.UUID) (*models.Generation, error)
	GetGenerationByJobID(jobID string) (*models.Generation, error)
	GetGenerationsByIDs(generationIDs []uuid.UUID, userID uuid.UUID) ([]models.Generation, error)
	ListGenerations(userID uuid.UUID) ([]models.Generation, error)
	SetGenerationJobID(generationID uuid.UUID, jobID string) error
	MarkGenerationProcessing(generationID uuid.UUID) error
	FinalizeGeneration(generationID uuid.UUID, status models.GenerationStatus, result json.RawMessage, outputURL, errorMsg string) (bool, error)
	SetGenerationFavorite(generationID, userID uuid.UUID, favorite bool) error
	MarkGenerationsExported(generationIDs []uuid.UUID) error
	CountGenerationsThisMonth(userID uuid.UUID) (int, error)
	GetAccount(userID uuid.UUID) (*models.Account, error)
	GetBrand(brandID, userID uuid.UUID) (*models.Brand, error)
	CreateExport(e *models.Export) (*models.Export, error)
	GetExport(exportID, userID uuid.UUID) (*models.Export, error)
	MarkExportReady(exportID uuid.UUID, fileURL string) error
	UpdateExportError(exportID uuid.UUID, errorMsg string) error
}

// ImageBackend is the async generation backend: submit returns a job handle,
// status resolves it. Satisfied by *runpod.Client.
type ImageBackend interface {
	Submit(endpointID string, input runpod.SubmitInput) (string, error)
	Status(endpointID, jobID string) (*runpod.StatusResponse, error)
}

// TextBackend is the synchronous copy backend. Satisfied by *textgen.Client.
type TextBackend interface {
	Complete(model, systemPrompt, userPrompt string) ([]models.CopyConcept, error)
}

// MediaStore persists generated media and export archives. Satisfied by
// *storage.Client.
type MediaStore interface {
	UploadGenerationMedia(userID, generationID uuid.UUID, filename, contentType string, data []byte) (string, string, error)
	UploadExportArchive(userID, exportID uuid.UUID, data []byte) (string, string, error)
}
