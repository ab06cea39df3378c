package services

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"adforge-backend/internal/config"
	"adforge-backend/internal/models"
	"adforge-backend/internal/runpod"
)

// Reconciler resolves the outcome of in-flight async jobs. Two independent
// observation paths converge here: the poll path (client status reads plus a
// background loop per submit) and the push path (backend webhook). Both end
// in the store's conditional terminal write, so whichever observes completion
// first wins and the later write is a no-op.
type Reconciler struct {
	db        Store
	images    ImageBackend
	media     MediaStore
	endpoints map[string]string

	pollInterval    time.Duration
	pollMaxDuration time.Duration
}

func NewReconciler(cfg *config.Config, db Store, images ImageBackend, media MediaStore) *Reconciler {
	return &Reconciler{
		db:              db,
		images:          images,
		media:           media,
		endpoints:       endpointTable(cfg),
		pollInterval:    cfg.PollInterval,
		pollMaxDuration: cfg.PollMaxDuration,
	}
}

// PollOnce queries the backend for one non-terminal record and applies any
// terminal outcome. Transient backend errors are swallowed; the next tick
// (or the webhook) retries. Returns the freshest view of the record.
func (r *Reconciler) PollOnce(gen *models.Generation) (*models.Generation, error) {
	if gen.Status.Terminal() {
		return gen, nil
	}

	params := gen.Params()
	jobID, _ := params[models.ParamBackendJobID].(string)
	if jobID == "" {
		// Submit never handed back a handle; nothing to reconcile.
		return gen, nil
	}

	endpointID := r.endpoints[gen.Model]
	status, err := r.images.Status(endpointID, jobID)
	if err != nil {
		log.Printf("poll error for generation %s: %v", gen.ID, err)
		return gen, nil
	}

	switch status.Status {
	case runpod.StatusCompleted:
		if err := r.applyCompleted(gen, status.Output); err != nil {
			return gen, err
		}
	case runpod.StatusFailed:
		r.applyFailed(gen.ID, status.Error)
	case runpod.StatusInProgress:
		if err := r.db.MarkGenerationProcessing(gen.ID); err != nil {
			log.Printf("failed to mark generation %s processing: %v", gen.ID, err)
		}
	}

	return r.db.GetGenerationByID(gen.ID)
}

// HandleCallback is the push path. The webhook carries only the backend's job
// handle; an unmatched handle or an already-terminal record is a benign no-op
// because the backend expects acknowledgment regardless.
func (r *Reconciler) HandleCallback(jobID, status string, output json.RawMessage, errorMsg string) {
	gen, err := r.db.GetGenerationByJobID(jobID)
	if err != nil {
		log.Printf("webhook for unknown job %s: %v", jobID, err)
		return
	}
	if gen.Status.Terminal() {
		return
	}

	switch status {
	case runpod.StatusCompleted:
		if err := r.applyCompleted(gen, output); err != nil {
			log.Printf("webhook completion for generation %s: %v", gen.ID, err)
		}
	case runpod.StatusFailed:
		r.applyFailed(gen.ID, errorMsg)
	}
}

// PollUntilDone drives a record to a terminal state in the background. The
// loop has its own deadline, distinct from the per-call network timeout; on
// expiry the record is failed rather than polled forever.
func (r *Reconciler) PollUntilDone(generationID uuid.UUID) {
	deadline := time.Now().Add(r.pollMaxDuration)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for range ticker.C {
		gen, err := r.db.GetGenerationByID(generationID)
		if err != nil {
			log.Printf("poll loop lost generation %s: %v", generationID, err)
			return
		}
		if gen.Status.Terminal() {
			return
		}

		if time.Now().After(deadline) {
			r.applyFailed(generationID, "generation timed out")
			return
		}

		if _, err := r.PollOnce(gen); err != nil {
			log.Printf("poll loop error for generation %s: %v", generationID, err)
		}
	}
}

// applyCompleted normalizes the backend output to a single media locator and
// performs the conditional terminal write. Inline-encoded payloads are
// persisted to object storage first so the record carries a durable URL.
func (r *Reconciler) applyCompleted(gen *models.Generation, output json.RawMessage) error {
	locator, err := runpod.ParseOutput(output)
	if err != nil {
		// Completed with unusable output is a terminal failure, not a retry.
		r.applyFailed(gen.ID, fmt.Sprintf("unusable backend output: %v", err))
		return nil
	}

	if !strings.HasPrefix(locator, "http://") && !strings.HasPrefix(locator, "https://") {
		url, err := r.persistInline(gen, locator)
		if err != nil {
			// Storage hiccup: leave the record non-terminal so the next
			// observation retries the upload.
			return fmt.Errorf("failed to persist inline output: %w", err)
		}
		locator = url
	}

	result, _ := json.Marshal(models.GenerationResult{MediaURL: locator})
	// A zero-row write means the other observation path already finalized.
	if _, err := r.db.FinalizeGeneration(gen.ID, models.StatusCompleted, result, locator, ""); err != nil {
		return err
	}
	return nil
}

func (r *Reconciler) applyFailed(generationID uuid.UUID, errorMsg string) {
	if errorMsg == "" {
		errorMsg = "generation failed"
	}
	if _, err := r.db.FinalizeGeneration(generationID, models.StatusFailed, nil, "", errorMsg); err != nil {
		log.Printf("failed to mark generation %s failed: %v", generationID, err)
	}
}

// persistInline decodes a base64 (optionally data-URL wrapped) payload and
// uploads it, returning the public URL.
func (r *Reconciler) persistInline(gen *models.Generation, payload string) (string, error) {
	contentType := "image/png"
	if strings.HasPrefix(payload, "data:") {
		rest := strings.TrimPrefix(payload, "data:")
		if idx := strings.Index(rest, ";base64,"); idx >= 0 {
			if rest[:idx] != "" {
				contentType = rest[:idx]
			}
			payload = rest[idx+len(";base64,"):]
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("failed to decode inline output: %w", err)
	}

	ext := "png"
	if contentType == "image/jpeg" {
		ext = "jpg"
	}
	filename := fmt.Sprintf("output.%s", ext)

	_, url, err := r.media.UploadGenerationMedia(gen.UserID, gen.ID, filename, contentType, data)
	if err != nil {
		return "", err
	}
	return url, nil
}
