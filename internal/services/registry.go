package services

import "adforge-backend/internal/config"

type backendKind int

const (
	backendText backendKind = iota
	backendImage
)

type modelSpec struct {
	kind         backendKind
	defaultSteps int
}

// modelRegistry is the static model -> backend table. Unknown models are a
// dispatch error, never a fallback.
var modelRegistry = map[string]modelSpec{
	"gpt-4o":         {kind: backendText},
	"gpt-4o-mini":    {kind: backendText},
	"sdxl":           {kind: backendImage, defaultSteps: 25},
	"sdxl-lightning": {kind: backendImage, defaultSteps: 4},
	"flux-schnell":   {kind: backendImage, defaultSteps: 4},
}

// endpointTable resolves each async model to its serverless endpoint id from
// the injected configuration.
func endpointTable(cfg *config.Config) map[string]string {
	return map[string]string{
		"sdxl":           cfg.SDXLEndpointID,
		"sdxl-lightning": cfg.SDXLLightningEndpointID,
		"flux-schnell":   cfg.FluxEndpointID,
	}
}
