package models

// GenerateRequest is the dispatch payload for a new creative unit.
type GenerateRequest struct {
	Kind       string `json:"kind" binding:"required"`
	Prompt     string `json:"prompt" binding:"required"`
	Model      string `json:"model" binding:"required"`
	BrandID    string `json:"brand_id,omitempty"`
	CampaignID string `json:"campaign_id,omitempty"`
	// UseBrandContext asks for the brand's analyzed profile to be injected
	// into the prompt before dispatch. Requires brand_id.
	UseBrandContext bool `json:"use_brand_context,omitempty"`

	// Image-only sizing parameters. Steps defaults per model when omitted.
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Steps  int    `json:"steps,omitempty"`
	Seed   *int64 `json:"seed,omitempty"`

	Angle    string `json:"angle,omitempty"`
	Platform string `json:"platform,omitempty"`
	Format   string `json:"format,omitempty"`
}

// VariationRequest derives a new generation from a finished source record.
type VariationRequest struct {
	VariationType  string `json:"variation_type" binding:"required"`
	PromptAddition string `json:"prompt_addition,omitempty"`
	Model          string `json:"model,omitempty"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	Seed           *int64 `json:"seed,omitempty"`
}

// ExportRequest selects finished generations for packaging.
type ExportRequest struct {
	GenerationIDs []string `json:"generation_ids" binding:"required"`
	Platforms     []string `json:"platforms"`
	Format        string   `json:"format,omitempty"`
	CampaignID    string   `json:"campaign_id,omitempty"`
}

// FavoriteRequest toggles the owner-mutable favorite flag.
type FavoriteRequest struct {
	IsFavorite bool `json:"is_favorite"`
}
