package services

import (
	"fmt"

	"github.com/google/uuid"
	"adforge-backend/internal/models"
)

// Variation transform directives.
const (
	VariationSeedLock      = "seed_lock"
	VariationStyleTransfer = "style_transfer"
	VariationPromptTweak   = "prompt_tweak"
	VariationReformat      = "reformat"
)

// promptSeparator joins a source prompt and a tweak directive.
const promptSeparator = "\n\n"

// DeriveVariation builds a new dispatch request from a finished source record
// plus a transform directive and reuses the regular dispatch path, so quota
// and model routing apply exactly as for an initial generation.
func (d *DispatchService) DeriveVariation(userID, sourceID uuid.UUID, req models.VariationRequest) (*models.Generation, error) {
	source, err := d.db.GetGeneration(sourceID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceNotFound, err)
	}
	if source.Status != models.StatusCompleted {
		return nil, ErrSourceNotReady
	}

	switch req.VariationType {
	case VariationSeedLock, VariationStyleTransfer, VariationPromptTweak, VariationReformat:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidVariation, req.VariationType)
	}

	genReq := models.GenerateRequest{
		Prompt: source.Prompt,
		Model:  source.Model,
	}
	if source.BrandID.Valid {
		genReq.BrandID = source.BrandID.UUID.String()
	}
	if source.CampaignID.Valid {
		genReq.CampaignID = source.CampaignID.UUID.String()
	}
	if source.Angle.Valid {
		genReq.Angle = source.Angle.String
	}
	if source.Platform.Valid {
		genReq.Platform = source.Platform.String
	}

	if req.VariationType == VariationPromptTweak && req.PromptAddition != "" {
		genReq.Prompt = source.Prompt + promptSeparator + req.PromptAddition
	}
	if req.VariationType == VariationStyleTransfer {
		if req.Model == "" {
			return nil, fmt.Errorf("%w: style_transfer requires a model", ErrInvalidVariation)
		}
		genReq.Model = req.Model
	}

	if source.Kind.IsImage() {
		genReq.Kind = string(models.KindImageVariation)
		params := source.Params()

		genReq.Width = intParam(params, "width")
		genReq.Height = intParam(params, "height")
		if req.Width > 0 {
			genReq.Width = req.Width
		}
		if req.Height > 0 {
			genReq.Height = req.Height
		}

		if req.VariationType == VariationSeedLock {
			if req.Seed != nil {
				genReq.Seed = req.Seed
			} else if seed, ok := int64Param(params, "seed"); ok {
				genReq.Seed = &seed
			}
		}
	} else {
		genReq.Kind = string(models.KindCopyVariation)
	}

	return d.Dispatch(userID, genReq)
}

func intParam(params map[string]interface{}, key string) int {
	if v, ok := params[key].(float64); ok {
		return int(v)
	}
	return 0
}

func int64Param(params map[string]interface{}, key string) (int64, bool) {
	if v, ok := params[key].(float64); ok {
		return int64(v), true
	}
	return 0, false
}
