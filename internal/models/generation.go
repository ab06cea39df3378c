package models

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerationKind classifies one requested creative unit.
type GenerationKind string

const (
	KindCopyHeadline   GenerationKind = "copy-headline"
	KindCopyHook       GenerationKind = "copy-hook"
	KindCopyBody       GenerationKind = "copy-body"
	KindCopyCTA        GenerationKind = "copy-cta"
	KindCopyScript     GenerationKind = "copy-script"
	KindCopyVariation  GenerationKind = "copy-variation"
	KindImageConcept   GenerationKind = "image-concept"
	KindImageVariation GenerationKind = "image-variation"
)

// IsImage reports whether the kind goes through the async image backend.
func (k GenerationKind) IsImage() bool {
	return strings.HasPrefix(string(k), "image-")
}

// GenerationStatus is the record lifecycle state. Pending and Processing are
// both non-terminal and treated identically by clients; the meaningful
// transition is reaching Completed or Failed.
type GenerationStatus string

const (
	StatusPending    GenerationStatus = "pending"
	StatusProcessing GenerationStatus = "processing"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
)

// Terminal reports whether no further transitions are permitted.
func (s GenerationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParamBackendJobID is the parameters key holding the async backend's own job
// identifier. It is set at most once, at submit time, and is the sole join
// key used when reconciling webhook deliveries.
const ParamBackendJobID = "backend_job_id"

// CopyConcept is one structured concept returned by the text backend.
type CopyConcept struct {
	Headline   string   `json:"headline"`
	Body       string   `json:"body"`
	VisualCue  string   `json:"visual_cue,omitempty"`
	Angle      string   `json:"angle,omitempty"`
	Alternates []string `json:"alternates,omitempty"`
}

// GenerationResult is the record's polymorphic output: an ordered list of
// copy concepts for copy kinds, or a single media locator for image kinds.
// Consumers switch on the record's kind rather than sniffing shape.
type GenerationResult struct {
	Concepts []CopyConcept `json:"concepts,omitempty"`
	MediaURL string        `json:"media_url,omitempty"`
}

type Generation struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	BrandID      uuid.NullUUID
	CampaignID   uuid.NullUUID
	Kind         GenerationKind
	Status       GenerationStatus
	Prompt       string
	FullPrompt   sql.NullString
	Model        string
	Parameters   json.RawMessage
	Result       json.RawMessage
	OutputURL    sql.NullString
	Angle        sql.NullString
	Platform     sql.NullString
	Format       sql.NullString
	IsFavorite   bool
	UsedInExport bool
	ErrorMessage sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Params decodes the free-form parameters map, returning an empty map when
// the column is null.
func (g *Generation) Params() map[string]interface{} {
	params := make(map[string]interface{})
	if len(g.Parameters) > 0 {
		_ = json.Unmarshal(g.Parameters, &params)
	}
	return params
}

// DecodedResult unpacks the tagged result variant, or nil when absent.
func (g *Generation) DecodedResult() *GenerationResult {
	if len(g.Result) == 0 {
		return nil
	}
	var result GenerationResult
	if err := json.Unmarshal(g.Result, &result); err != nil {
		return nil
	}
	return &result
}
