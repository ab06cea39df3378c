package services_test

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"adforge-backend/internal/models"
	"adforge-backend/internal/runpod"
)

// fakeStore is an in-memory Store with the same conditional-write semantics
// as the SQL layer.
type fakeStore struct {
	mu          sync.Mutex
	generations map[uuid.UUID]*models.Generation
	exports     map[uuid.UUID]*models.Export
	accounts    map[uuid.UUID]*models.Account
	brands      map[uuid.UUID]*models.Brand

	monthlyCount   int
	countErr       error
	countCalls     int
	finalizeWrites int
	exportedIDs    []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		generations: make(map[uuid.UUID]*models.Generation),
		exports:     make(map[uuid.UUID]*models.Export),
		accounts:    make(map[uuid.UUID]*models.Account),
		brands:      make(map[uuid.UUID]*models.Brand),
	}
}

func clone(g *models.Generation) *models.Generation {
	c := *g
	return &c
}

func (f *fakeStore) CreateGeneration(g *models.Generation) (*models.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	f.generations[g.ID] = clone(g)
	return clone(g), nil
}

func (f *fakeStore) GetGeneration(generationID, userID uuid.UUID) (*models.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.generations[generationID]
	if !ok || g.UserID != userID {
		return nil, fmt.Errorf("failed to get generation: %w", sql.ErrNoRows)
	}
	return clone(g), nil
}

func (f *fakeStore) GetGenerationByID(generationID uuid.UUID) (*models.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.generations[generationID]
	if !ok {
		return nil, fmt.Errorf("failed to get generation: %w", sql.ErrNoRows)
	}
	return clone(g), nil
}

func (f *fakeStore) GetGenerationByJobID(jobID string) (*models.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.generations {
		params := g.Params()
		if id, _ := params[models.ParamBackendJobID].(string); id == jobID {
			return clone(g), nil
		}
	}
	return nil, fmt.Errorf("failed to get generation by job id: %w", sql.ErrNoRows)
}

func (f *fakeStore) GetGenerationsByIDs(generationIDs []uuid.UUID, userID uuid.UUID) ([]models.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Generation
	for _, id := range generationIDs {
		if g, ok := f.generations[id]; ok && g.UserID == userID {
			out = append(out, *clone(g))
		}
	}
	return out, nil
}

func (f *fakeStore) ListGenerations(userID uuid.UUID) ([]models.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Generation
	for _, g := range f.generations {
		if g.UserID == userID {
			out = append(out, *clone(g))
		}
	}
	return out, nil
}

func (f *fakeStore) SetGenerationJobID(generationID uuid.UUID, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.generations[generationID]
	if !ok {
		return sql.ErrNoRows
	}
	params := g.Params()
	if _, exists := params[models.ParamBackendJobID]; exists {
		return nil
	}
	params[models.ParamBackendJobID] = jobID
	g.Parameters, _ = json.Marshal(params)
	return nil
}

func (f *fakeStore) MarkGenerationProcessing(generationID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.generations[generationID]; ok && g.Status == models.StatusPending {
		g.Status = models.StatusProcessing
	}
	return nil
}

func (f *fakeStore) FinalizeGeneration(generationID uuid.UUID, status models.GenerationStatus, result json.RawMessage, outputURL, errorMsg string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.generations[generationID]
	if !ok {
		return false, sql.ErrNoRows
	}
	if g.Status.Terminal() {
		return false, nil
	}
	g.Status = status
	if result != nil {
		g.Result = result
	}
	if outputURL != "" {
		g.OutputURL = sql.NullString{String: outputURL, Valid: true}
	}
	if errorMsg != "" {
		g.ErrorMessage = sql.NullString{String: errorMsg, Valid: true}
	}
	g.UpdatedAt = time.Now()
	f.finalizeWrites++
	return true, nil
}

func (f *fakeStore) SetGenerationFavorite(generationID, userID uuid.UUID, favorite bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.generations[generationID]
	if !ok || g.UserID != userID {
		return sql.ErrNoRows
	}
	g.IsFavorite = favorite
	return nil
}

func (f *fakeStore) MarkGenerationsExported(generationIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exportedIDs = append(f.exportedIDs, generationIDs...)
	for _, id := range generationIDs {
		if g, ok := f.generations[id]; ok {
			g.UsedInExport = true
		}
	}
	return nil
}

func (f *fakeStore) CountGenerationsThisMonth(userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.monthlyCount, nil
}

func (f *fakeStore) GetAccount(userID uuid.UUID) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("failed to get account: %w", sql.ErrNoRows)
	}
	return a, nil
}

func (f *fakeStore) GetBrand(brandID, userID uuid.UUID) (*models.Brand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.brands[brandID]
	if !ok || b.UserID != userID {
		return nil, fmt.Errorf("failed to get brand: %w", sql.ErrNoRows)
	}
	return b, nil
}

func (f *fakeStore) CreateExport(e *models.Export) (*models.Export, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	stored := *e
	f.exports[e.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeStore) GetExport(exportID, userID uuid.UUID) (*models.Export, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.exports[exportID]
	if !ok || e.UserID != userID {
		return nil, fmt.Errorf("failed to get export: %w", sql.ErrNoRows)
	}
	out := *e
	return &out, nil
}

func (f *fakeStore) MarkExportReady(exportID uuid.UUID, fileURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.exports[exportID]
	if !ok {
		return sql.ErrNoRows
	}
	if e.Status != models.ExportProcessing {
		return nil
	}
	e.Status = models.ExportReady
	if fileURL != "" {
		e.FileURL = sql.NullString{String: fileURL, Valid: true}
	}
	return nil
}

func (f *fakeStore) UpdateExportError(exportID uuid.UUID, errorMsg string) error {
	return nil
}

// fakeImageBackend scripts submit/status outcomes.
type fakeImageBackend struct {
	mu          sync.Mutex
	submitErr   error
	submitCalls []runpod.SubmitInput
	nextJobID   string
	statuses    map[string]*runpod.StatusResponse
	statusErr   error
}

func newFakeImageBackend() *fakeImageBackend {
	return &fakeImageBackend{
		nextJobID: "job-1",
		statuses:  make(map[string]*runpod.StatusResponse),
	}
}

func (f *fakeImageBackend) Submit(endpointID string, input runpod.SubmitInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submitCalls = append(f.submitCalls, input)
	return f.nextJobID, nil
}

func (f *fakeImageBackend) Status(endpointID, jobID string) (*runpod.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if resp, ok := f.statuses[jobID]; ok {
		return resp, nil
	}
	return &runpod.StatusResponse{ID: jobID, Status: runpod.StatusQueued}, nil
}

// fakeTextBackend returns scripted concepts.
type fakeTextBackend struct {
	concepts []models.CopyConcept
	err      error
	prompts  []string
}

func (f *fakeTextBackend) Complete(model, systemPrompt, userPrompt string) ([]models.CopyConcept, error) {
	f.prompts = append(f.prompts, userPrompt)
	if f.err != nil {
		return nil, f.err
	}
	return f.concepts, nil
}

// fakeMediaStore records uploads and hands back deterministic URLs.
type fakeMediaStore struct {
	mu      sync.Mutex
	uploads int
	err     error
}

func (f *fakeMediaStore) UploadGenerationMedia(userID, generationID uuid.UUID, filename, contentType string, data []byte) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", "", f.err
	}
	f.uploads++
	path := fmt.Sprintf("users/%s/generations/%s/%s", userID, generationID, filename)
	return path, "https://storage.test/" + path, nil
}

func (f *fakeMediaStore) UploadExportArchive(userID, exportID uuid.UUID, data []byte) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", "", f.err
	}
	f.uploads++
	path := fmt.Sprintf("users/%s/exports/%s.zip", userID, exportID)
	return path, "https://storage.test/" + path, nil
}
