package services

import (
	"bytes"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"
	"adforge-backend/internal/export"
	"adforge-backend/internal/models"
)

// ExportService packages selected finished generations into per-platform
// delivery archives, updating the export record's lifecycle around the
// stream.
type ExportService struct {
	db       Store
	media    MediaStore
	packager *export.Packager
}

func NewExportService(db Store, media MediaStore, packager *export.Packager) *ExportService {
	return &ExportService{
		db:       db,
		media:    media,
		packager: packager,
	}
}

// Prepare validates the selection against the requesting account and creates
// the export record in processing state. The member set is fixed here and
// never changes afterwards.
func (s *ExportService) Prepare(userID uuid.UUID, req models.ExportRequest) (*models.Export, []models.Generation, error) {
	// Duplicate ids collapse; the member set is ordered and unique.
	ids := make([]uuid.UUID, 0, len(req.GenerationIDs))
	seen := make(map[uuid.UUID]struct{}, len(req.GenerationIDs))
	for _, raw := range req.GenerationIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	generations, err := s.db.GetGenerationsByIDs(ids, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load selection: %w", err)
	}
	if len(generations) == 0 {
		return nil, nil, ErrGenerationsNotFound
	}

	owned := make([]uuid.UUID, len(generations))
	for i, g := range generations {
		owned[i] = g.ID
	}

	format := models.ExportFormat(req.Format)
	switch format {
	case models.FormatArchive, models.FormatDocument, models.FormatData:
	default:
		format = models.FormatArchive
	}

	record := &models.Export{
		ID:            uuid.New(),
		UserID:        userID,
		GenerationIDs: owned,
		Platforms:     req.Platforms,
		Format:        format,
		Status:        models.ExportProcessing,
	}
	if campaignID, err := uuid.Parse(req.CampaignID); err == nil {
		record.CampaignID = uuid.NullUUID{UUID: campaignID, Valid: true}
	}

	created, err := s.db.CreateExport(record)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create export: %w", err)
	}

	return created, generations, nil
}

// StreamArchive produces the zip incrementally into w — the consumer starts
// receiving bytes before packaging finishes. On successful finalization the
// archive is also persisted to object storage and the record advances to
// ready. A writer error aborts the stream and leaves the record in
// processing for out-of-band reconciliation.
func (s *ExportService) StreamArchive(e *models.Export, generations []models.Generation, w io.Writer) error {
	var buf bytes.Buffer
	tee := io.MultiWriter(w, &buf)

	if err := s.packager.Build(tee, generations, e.Platforms); err != nil {
		if dbErr := s.db.UpdateExportError(e.ID, err.Error()); dbErr != nil {
			log.Printf("failed to record export %s error: %v", e.ID, dbErr)
		}
		return err
	}

	fileURL := ""
	if s.media != nil {
		_, url, err := s.media.UploadExportArchive(e.UserID, e.ID, buf.Bytes())
		if err != nil {
			// The caller already has the stream; a durable copy is best
			// effort.
			log.Printf("failed to persist export %s archive: %v", e.ID, err)
		} else {
			fileURL = url
		}
	}

	if err := s.db.MarkExportReady(e.ID, fileURL); err != nil {
		return fmt.Errorf("failed to mark export ready: %w", err)
	}

	s.markExported(generations)
	return nil
}

// BuildDocument is the data/document serialization: the same selection
// without media work. The export is ready as soon as the payload exists.
func (s *ExportService) BuildDocument(e *models.Export, generations []models.Generation) (*models.ExportDocument, error) {
	doc := &models.ExportDocument{
		ExportID:    e.ID.String(),
		Generations: make([]models.GenerationResponse, 0, len(generations)),
	}
	for i := range generations {
		doc.Generations = append(doc.Generations, models.NewGenerationResponse(&generations[i]))
	}

	if err := s.db.MarkExportReady(e.ID, ""); err != nil {
		return nil, fmt.Errorf("failed to mark export ready: %w", err)
	}

	s.markExported(generations)
	return doc, nil
}

// Get returns one export record scoped to its owner.
func (s *ExportService) Get(exportID, userID uuid.UUID) (*models.Export, error) {
	return s.db.GetExport(exportID, userID)
}

func (s *ExportService) markExported(generations []models.Generation) {
	ids := make([]uuid.UUID, 0, len(generations))
	for _, g := range generations {
		if g.Status == models.StatusCompleted {
			ids = append(ids, g.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	if err := s.db.MarkGenerationsExported(ids); err != nil {
		log.Printf("failed to flag exported generations: %v", err)
	}
}
