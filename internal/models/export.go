package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ExportStatus is the export package lifecycle. Expired is reached only via
// external retention policy, never by this service.
type ExportStatus string

const (
	ExportPending    ExportStatus = "pending"
	ExportProcessing ExportStatus = "processing"
	ExportReady      ExportStatus = "ready"
	ExportExpired    ExportStatus = "expired"
)

// ExportFormat selects the package serialization.
type ExportFormat string

const (
	FormatArchive  ExportFormat = "archive"
	FormatDocument ExportFormat = "document"
	FormatData     ExportFormat = "data"
)

// Export bundles a fixed set of finished generations into one downloadable
// package. GenerationIDs never changes after creation.
type Export struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	CampaignID    uuid.NullUUID
	GenerationIDs []uuid.UUID
	Platforms     []string
	Format        ExportFormat
	Status        ExportStatus
	FileURL       sql.NullString
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Account is the read-only quota source row.
type Account struct {
	UserID uuid.UUID
	Plan   string
}

// Brand holds the optional analyzed brand profile used to augment prompts.
type Brand struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	BrandBrain sql.NullString
}
