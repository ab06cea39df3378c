package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"adforge-backend/internal/config"
	"adforge-backend/internal/models"
	"adforge-backend/internal/quota"
	"adforge-backend/internal/runpod"
)

// DispatchService bridges generation requests to the backends: the sync text
// backend completes inline, the async image backend returns a job handle that
// the reconciler tracks to a terminal state.
type DispatchService struct {
	db         Store
	images     ImageBackend
	text       TextBackend
	reconciler *Reconciler
	endpoints  map[string]string
}

func NewDispatchService(cfg *config.Config, db Store, images ImageBackend, text TextBackend, reconciler *Reconciler) *DispatchService {
	return &DispatchService{
		db:         db,
		images:     images,
		text:       text,
		reconciler: reconciler,
		endpoints:  endpointTable(cfg),
	}
}

// CheckQuota reports the account's remaining allowance. Dispatch fails closed
// when the quota source errors: a broken lookup rejects rather than granting
// free generations.
func (d *DispatchService) CheckQuota(userID uuid.UUID) (quota.Result, string, error) {
	account, err := d.db.GetAccount(userID)
	if err != nil {
		return quota.Result{}, "", fmt.Errorf("failed to look up account plan: %w", err)
	}

	result, err := quota.Check(account.Plan, func() (int, error) {
		return d.db.CountGenerationsThisMonth(userID)
	})
	if err != nil {
		return quota.Result{}, account.Plan, fmt.Errorf("failed to count monthly usage: %w", err)
	}

	return result, account.Plan, nil
}

// Dispatch consumes one generation unit. Not idempotent: calling it twice
// creates two records; retry discipline belongs to the caller.
func (d *DispatchService) Dispatch(userID uuid.UUID, req models.GenerateRequest) (*models.Generation, error) {
	kind := models.GenerationKind(req.Kind)

	spec, ok := modelRegistry[req.Model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, req.Model)
	}
	if kind.IsImage() != (spec.kind == backendImage) {
		return nil, fmt.Errorf("%w: model %q does not serve kind %q", ErrUnknownModel, req.Model, req.Kind)
	}

	result, _, err := d.CheckQuota(userID)
	if err != nil {
		log.Printf("quota check failed for user %s: %v", userID, err)
		return nil, err
	}
	if !result.Allowed {
		return nil, fmt.Errorf("%w: %d of %d used this month", ErrQuotaExceeded, result.Current, result.Limit)
	}

	fullPrompt, err := d.augmentPrompt(userID, req)
	if err != nil {
		return nil, err
	}

	if spec.kind == backendText {
		return d.dispatchSync(userID, kind, req, fullPrompt)
	}
	return d.dispatchAsync(userID, kind, spec, req, fullPrompt)
}

// augmentPrompt injects the brand's analyzed profile when requested.
func (d *DispatchService) augmentPrompt(userID uuid.UUID, req models.GenerateRequest) (string, error) {
	if !req.UseBrandContext {
		return "", nil
	}

	brandID, err := uuid.Parse(req.BrandID)
	if err != nil {
		return "", ErrMissingBrandBrain
	}

	brand, err := d.db.GetBrand(brandID, userID)
	if err != nil || !brand.BrandBrain.Valid || brand.BrandBrain.String == "" {
		return "", ErrMissingBrandBrain
	}

	return req.Prompt + "\n\nBrand context:\n" + brand.BrandBrain.String, nil
}

// dispatchSync calls the text backend inline and creates the record already
// terminal. No handle, no polling.
func (d *DispatchService) dispatchSync(userID uuid.UUID, kind models.GenerationKind, req models.GenerateRequest, fullPrompt string) (*models.Generation, error) {
	prompt := req.Prompt
	if fullPrompt != "" {
		prompt = fullPrompt
	}

	record := d.newRecord(userID, kind, req, fullPrompt)

	concepts, err := d.text.Complete(req.Model, copySystemPrompt(kind, req.Angle), prompt)
	if err != nil {
		record.Status = models.StatusFailed
		record.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		return d.db.CreateGeneration(record)
	}

	record.Status = models.StatusCompleted
	record.Result, _ = json.Marshal(models.GenerationResult{Concepts: concepts})
	return d.db.CreateGeneration(record)
}

// dispatchAsync creates the record pending before the submit call so a record
// exists even if the call never returns, then stores the backend's job handle
// and starts the background poll loop.
func (d *DispatchService) dispatchAsync(userID uuid.UUID, kind models.GenerationKind, spec modelSpec, req models.GenerateRequest, fullPrompt string) (*models.Generation, error) {
	endpointID := d.endpoints[req.Model]
	if endpointID == "" {
		return nil, fmt.Errorf("%w: no endpoint configured for %q", ErrUnknownModel, req.Model)
	}

	width, height := req.Width, req.Height
	if width == 0 {
		width = 1024
	}
	if height == 0 {
		height = 1024
	}
	steps := req.Steps
	if steps == 0 {
		steps = spec.defaultSteps
	}

	params := map[string]interface{}{
		"width":  width,
		"height": height,
		"steps":  steps,
	}
	if req.Seed != nil {
		params["seed"] = *req.Seed
	}

	record := d.newRecord(userID, kind, req, fullPrompt)
	record.Status = models.StatusPending
	record.Parameters, _ = json.Marshal(params)

	created, err := d.db.CreateGeneration(record)
	if err != nil {
		return nil, err
	}

	prompt := req.Prompt
	if fullPrompt != "" {
		prompt = fullPrompt
	}

	jobID, err := d.images.Submit(endpointID, runpod.SubmitInput{
		Prompt: prompt,
		Width:  width,
		Height: height,
		Steps:  steps,
		Seed:   req.Seed,
	})
	if err != nil {
		if _, ferr := d.db.FinalizeGeneration(created.ID, models.StatusFailed, nil, "", err.Error()); ferr != nil {
			log.Printf("failed to mark generation %s failed: %v", created.ID, ferr)
		}
		created.Status = models.StatusFailed
		created.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		return created, fmt.Errorf("%w: %v", ErrBackendSubmitFailed, err)
	}

	if err := d.db.SetGenerationJobID(created.ID, jobID); err != nil {
		log.Printf("failed to store job handle for generation %s: %v", created.ID, err)
	}
	params[models.ParamBackendJobID] = jobID
	created.Parameters, _ = json.Marshal(params)

	if d.reconciler != nil {
		go d.reconciler.PollUntilDone(created.ID)
	}

	return created, nil
}

func (d *DispatchService) newRecord(userID uuid.UUID, kind models.GenerationKind, req models.GenerateRequest, fullPrompt string) *models.Generation {
	record := &models.Generation{
		ID:     uuid.New(),
		UserID: userID,
		Kind:   kind,
		Prompt: req.Prompt,
		Model:  req.Model,
	}
	if fullPrompt != "" {
		record.FullPrompt = sql.NullString{String: fullPrompt, Valid: true}
	}
	if brandID, err := uuid.Parse(req.BrandID); err == nil {
		record.BrandID = uuid.NullUUID{UUID: brandID, Valid: true}
	}
	if campaignID, err := uuid.Parse(req.CampaignID); err == nil {
		record.CampaignID = uuid.NullUUID{UUID: campaignID, Valid: true}
	}
	if req.Angle != "" {
		record.Angle = sql.NullString{String: req.Angle, Valid: true}
	}
	if req.Platform != "" {
		record.Platform = sql.NullString{String: req.Platform, Valid: true}
	}
	if req.Format != "" {
		record.Format = sql.NullString{String: req.Format, Valid: true}
	}
	return record
}

func copySystemPrompt(kind models.GenerationKind, angle string) string {
	var sb strings.Builder
	sb.WriteString("You are an advertising copywriter. ")
	switch kind {
	case models.KindCopyHeadline:
		sb.WriteString("Write punchy ad headlines.")
	case models.KindCopyHook:
		sb.WriteString("Write scroll-stopping hooks.")
	case models.KindCopyBody:
		sb.WriteString("Write persuasive body copy.")
	case models.KindCopyCTA:
		sb.WriteString("Write clear calls to action.")
	case models.KindCopyScript:
		sb.WriteString("Write short-form video ad scripts.")
	default:
		sb.WriteString("Write ad copy concepts.")
	}
	if angle != "" {
		sb.WriteString(" Use the angle: " + angle + ".")
	}
	sb.WriteString(` Respond with JSON: {"concepts": [{"headline", "body", "visual_cue", "angle", "alternates"}]}.`)
	return sb.String()
}
