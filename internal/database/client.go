package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"adforge-backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

const generationColumns = `id, user_id, brand_id, campaign_id, kind, status, prompt, full_prompt, model,
		parameters, result, output_url, angle, platform, format, is_favorite, used_in_export,
		error_message, created_at, updated_at`

func scanGeneration(row interface{ Scan(...interface{}) error }) (*models.Generation, error) {
	var g models.Generation
	err := row.Scan(
		&g.ID, &g.UserID, &g.BrandID, &g.CampaignID, &g.Kind, &g.Status, &g.Prompt, &g.FullPrompt,
		&g.Model, &g.Parameters, &g.Result, &g.OutputURL, &g.Angle, &g.Platform, &g.Format,
		&g.IsFavorite, &g.UsedInExport, &g.ErrorMessage, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (d *DatabaseClient) CreateGeneration(g *models.Generation) (*models.Generation, error) {
	row := d.db.QueryRow(`
		INSERT INTO generations (id, user_id, brand_id, campaign_id, kind, status, prompt, full_prompt,
			model, parameters, result, output_url, angle, platform, format, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+generationColumns+`
	`, g.ID, g.UserID, g.BrandID, g.CampaignID, g.Kind, g.Status, g.Prompt, g.FullPrompt,
		g.Model, g.Parameters, g.Result, g.OutputURL, g.Angle, g.Platform, g.Format, g.ErrorMessage)

	created, err := scanGeneration(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation: %w", err)
	}
	return created, nil
}

func (d *DatabaseClient) GetGeneration(generationID, userID uuid.UUID) (*models.Generation, error) {
	row := d.db.QueryRow(`
		SELECT `+generationColumns+`
		FROM generations
		WHERE id = $1 AND user_id = $2
	`, generationID, userID)

	g, err := scanGeneration(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}
	return g, nil
}

// GetGenerationByID fetches a record without an ownership scope. Reserved
// for the reconciler, which runs outside any user context.
func (d *DatabaseClient) GetGenerationByID(generationID uuid.UUID) (*models.Generation, error) {
	row := d.db.QueryRow(`
		SELECT `+generationColumns+`
		FROM generations
		WHERE id = $1
	`, generationID)

	g, err := scanGeneration(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}
	return g, nil
}

// GetGenerationByJobID looks up the record whose stored backend job handle
// matches. Used by the webhook path, which has no generation id and no user
// context. Backed by an expression index on the parameters column.
func (d *DatabaseClient) GetGenerationByJobID(jobID string) (*models.Generation, error) {
	row := d.db.QueryRow(`
		SELECT `+generationColumns+`
		FROM generations
		WHERE parameters->>'backend_job_id' = $1
	`, jobID)

	g, err := scanGeneration(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get generation by job id: %w", err)
	}
	return g, nil
}

func (d *DatabaseClient) ListGenerations(userID uuid.UUID) ([]models.Generation, error) {
	rows, err := d.db.Query(`
		SELECT `+generationColumns+`
		FROM generations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var generations []models.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		generations = append(generations, *g)
	}

	return generations, nil
}

// GetGenerationsByIDs returns the subset of the requested ids owned by the
// user, preserving creation order.
func (d *DatabaseClient) GetGenerationsByIDs(generationIDs []uuid.UUID, userID uuid.UUID) ([]models.Generation, error) {
	ids := make([]string, len(generationIDs))
	for i, id := range generationIDs {
		ids[i] = id.String()
	}

	rows, err := d.db.Query(`
		SELECT `+generationColumns+`
		FROM generations
		WHERE id = ANY($1) AND user_id = $2
		ORDER BY created_at ASC
	`, pq.Array(ids), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get generations: %w", err)
	}
	defer rows.Close()

	var generations []models.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		generations = append(generations, *g)
	}

	return generations, nil
}

// SetGenerationJobID stores the backend job handle. The handle is written at
// most once: a second call is a no-op against the same row.
func (d *DatabaseClient) SetGenerationJobID(generationID uuid.UUID, jobID string) error {
	_, err := d.db.Exec(`
		UPDATE generations
		SET parameters = jsonb_set(COALESCE(parameters, '{}'::jsonb), '{backend_job_id}', to_jsonb($1::text)),
		    updated_at = NOW()
		WHERE id = $2 AND parameters->>'backend_job_id' IS NULL
	`, jobID, generationID)
	return err
}

// MarkGenerationProcessing advances pending -> processing. Terminal rows are
// untouched.
func (d *DatabaseClient) MarkGenerationProcessing(generationID uuid.UUID) error {
	_, err := d.db.Exec(`
		UPDATE generations
		SET status = 'processing', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, generationID)
	return err
}

// FinalizeGeneration applies a terminal transition as a conditional update:
// the write only lands while the row is still non-terminal, so whichever of
// the poll and webhook paths observes completion first wins and the later
// write is a no-op. Returns whether this call performed the transition.
func (d *DatabaseClient) FinalizeGeneration(generationID uuid.UUID, status models.GenerationStatus, result json.RawMessage, outputURL, errorMsg string) (bool, error) {
	res, err := d.db.Exec(`
		UPDATE generations
		SET status = $1,
		    result = COALESCE($2, result),
		    output_url = COALESCE(NULLIF($3, ''), output_url),
		    error_message = NULLIF($4, ''),
		    updated_at = NOW()
		WHERE id = $5 AND status IN ('pending', 'processing')
	`, status, result, outputURL, errorMsg, generationID)
	if err != nil {
		return false, fmt.Errorf("failed to finalize generation: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (d *DatabaseClient) SetGenerationFavorite(generationID, userID uuid.UUID, favorite bool) error {
	res, err := d.db.Exec(`
		UPDATE generations
		SET is_favorite = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`, favorite, generationID, userID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkGenerationsExported flips the bookkeeping flag after a successful
// package build.
func (d *DatabaseClient) MarkGenerationsExported(generationIDs []uuid.UUID) error {
	ids := make([]string, len(generationIDs))
	for i, id := range generationIDs {
		ids[i] = id.String()
	}
	_, err := d.db.Exec(`
		UPDATE generations
		SET used_in_export = TRUE, updated_at = NOW()
		WHERE id = ANY($1)
	`, pq.Array(ids))
	return err
}

// CountGenerationsThisMonth counts records the account created within the
// current calendar month. Only called for plans with a finite limit.
func (d *DatabaseClient) CountGenerationsThisMonth(userID uuid.UUID) (int, error) {
	var count int
	err := d.db.QueryRow(`
		SELECT COUNT(*)
		FROM generations
		WHERE user_id = $1 AND created_at >= date_trunc('month', NOW())
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count generations: %w", err)
	}
	return count, nil
}

func (d *DatabaseClient) GetAccount(userID uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := d.db.QueryRow(`
		SELECT user_id, plan
		FROM accounts
		WHERE user_id = $1
	`, userID).Scan(&account.UserID, &account.Plan)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (d *DatabaseClient) GetBrand(brandID, userID uuid.UUID) (*models.Brand, error) {
	var brand models.Brand
	err := d.db.QueryRow(`
		SELECT id, user_id, name, brand_brain
		FROM brands
		WHERE id = $1 AND user_id = $2
	`, brandID, userID).Scan(&brand.ID, &brand.UserID, &brand.Name, &brand.BrandBrain)
	if err != nil {
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}
	return &brand, nil
}

func (d *DatabaseClient) CreateExport(e *models.Export) (*models.Export, error) {
	ids := make([]string, len(e.GenerationIDs))
	for i, id := range e.GenerationIDs {
		ids[i] = id.String()
	}

	var created models.Export
	var rawIDs []string
	err := d.db.QueryRow(`
		INSERT INTO exports (id, user_id, campaign_id, generation_ids, platforms, format, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, campaign_id, generation_ids, platforms, format, status, file_url, created_at, updated_at
	`, e.ID, e.UserID, e.CampaignID, pq.Array(ids), pq.Array(e.Platforms), e.Format, e.Status).Scan(
		&created.ID, &created.UserID, &created.CampaignID, pq.Array(&rawIDs), pq.Array(&created.Platforms),
		&created.Format, &created.Status, &created.FileURL, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create export: %w", err)
	}

	created.GenerationIDs = parseUUIDs(rawIDs)
	return &created, nil
}

func (d *DatabaseClient) GetExport(exportID, userID uuid.UUID) (*models.Export, error) {
	var e models.Export
	var rawIDs []string
	err := d.db.QueryRow(`
		SELECT id, user_id, campaign_id, generation_ids, platforms, format, status, file_url, created_at, updated_at
		FROM exports
		WHERE id = $1 AND user_id = $2
	`, exportID, userID).Scan(
		&e.ID, &e.UserID, &e.CampaignID, pq.Array(&rawIDs), pq.Array(&e.Platforms),
		&e.Format, &e.Status, &e.FileURL, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get export: %w", err)
	}

	e.GenerationIDs = parseUUIDs(rawIDs)
	return &e, nil
}

// MarkExportReady advances processing -> ready and records the file URL.
func (d *DatabaseClient) MarkExportReady(exportID uuid.UUID, fileURL string) error {
	_, err := d.db.Exec(`
		UPDATE exports
		SET status = 'ready', file_url = NULLIF($1, ''), updated_at = NOW()
		WHERE id = $2 AND status = 'processing'
	`, fileURL, exportID)
	return err
}

// UpdateExportError records a stream failure message. The status is left in
// processing; stale rows are reconciled out-of-band.
func (d *DatabaseClient) UpdateExportError(exportID uuid.UUID, errorMsg string) error {
	_, err := d.db.Exec(`
		UPDATE exports
		SET error_message = $1, updated_at = NOW()
		WHERE id = $2
	`, errorMsg, exportID)
	return err
}

func parseUUIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
