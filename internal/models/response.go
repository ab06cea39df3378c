package models

import "time"

type GenerationResponse struct {
	ID           string                 `json:"generation_id"`
	Kind         string                 `json:"kind"`
	Status       string                 `json:"status"`
	Prompt       string                 `json:"prompt"`
	Model        string                 `json:"model"`
	Parameters   map[string]interface{} `json:"parameters,omitempty"`
	Result       *GenerationResult      `json:"result,omitempty"`
	OutputURL    string                 `json:"output_url,omitempty"`
	Angle        string                 `json:"angle,omitempty"`
	Platform     string                 `json:"platform,omitempty"`
	IsFavorite   bool                   `json:"is_favorite"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type GenerationListResponse struct {
	Generations []GenerationResponse `json:"generations"`
}

type QuotaResponse struct {
	Allowed   bool   `json:"allowed"`
	Current   int    `json:"current"`
	Limit     int    `json:"limit"` // -1 means unlimited
	Unlimited bool   `json:"unlimited"`
	Plan      string `json:"plan"`
}

type ExportResponse struct {
	ID         string    `json:"export_id"`
	Status     string    `json:"status"`
	Format     string    `json:"format"`
	Platforms  []string  `json:"platforms,omitempty"`
	FileURL    string    `json:"file_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ExportDocument is the data/document serialization of a selection: the same
// records as the archive without any media resizing.
type ExportDocument struct {
	ExportID    string               `json:"export_id"`
	Generations []GenerationResponse `json:"generations"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewGenerationResponse flattens a Generation row into its API shape.
func NewGenerationResponse(g *Generation) GenerationResponse {
	resp := GenerationResponse{
		ID:         g.ID.String(),
		Kind:       string(g.Kind),
		Status:     string(g.Status),
		Prompt:     g.Prompt,
		Model:      g.Model,
		Parameters: g.Params(),
		Result:     g.DecodedResult(),
		IsFavorite: g.IsFavorite,
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
	if g.OutputURL.Valid {
		resp.OutputURL = g.OutputURL.String
	}
	if g.Angle.Valid {
		resp.Angle = g.Angle.String
	}
	if g.Platform.Valid {
		resp.Platform = g.Platform.String
	}
	if g.ErrorMessage.Valid {
		resp.ErrorMessage = g.ErrorMessage.String
	}
	return resp
}

// NewExportResponse flattens an Export row into its API shape.
func NewExportResponse(e *Export) ExportResponse {
	resp := ExportResponse{
		ID:        e.ID.String(),
		Status:    string(e.Status),
		Format:    string(e.Format),
		Platforms: e.Platforms,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.FileURL.Valid {
		resp.FileURL = e.FileURL.String
	}
	return resp
}
