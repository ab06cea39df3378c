package services

import "errors"

var (
	// ErrQuotaExceeded rejects a dispatch before any record is created.
	ErrQuotaExceeded = errors.New("monthly generation quota exceeded")

	// ErrUnknownModel means the requested model maps to no backend, or to a
	// backend that cannot serve the requested kind.
	ErrUnknownModel = errors.New("unknown model")

	// ErrBackendSubmitFailed means the async submit call failed after the
	// record was created; the record is already marked failed.
	ErrBackendSubmitFailed = errors.New("backend submit failed")

	// ErrMissingBrandBrain means brand-context augmentation was requested but
	// the brand has no analyzed profile.
	ErrMissingBrandBrain = errors.New("brand has no analyzed profile")

	// ErrSourceNotFound means a variation's source record is missing or not
	// owned by the caller.
	ErrSourceNotFound = errors.New("source generation not found")

	// ErrSourceNotReady means a variation was requested from a record that
	// has not completed.
	ErrSourceNotReady = errors.New("source generation is not completed")

	// ErrInvalidVariation means the variation type is not one of seed_lock,
	// style_transfer, prompt_tweak, reformat.
	ErrInvalidVariation = errors.New("invalid variation type")

	// ErrGenerationsNotFound means none of an export's selected ids belong to
	// the caller.
	ErrGenerationsNotFound = errors.New("no generations found for export")
)
