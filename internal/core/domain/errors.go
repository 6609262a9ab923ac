package domain

import "errors"

// ============================================================================
// Prediction Errors
// ============================================================================

var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInferenceFailed  = errors.New("inference failed")
)

// ============================================================================
// Artifact Errors
// ============================================================================

var (
	ErrArtifactNotFound       = errors.New("model artifact not found")
	ErrArtifactInvalid        = errors.New("model artifact is invalid")
	ErrUnsupportedModelType   = errors.New("unsupported model type")
	ErrProbabilityUnsupported = errors.New("classifier does not produce probabilities")
)

// ============================================================================
// Audit Errors
// ============================================================================

var (
	ErrToolUnavailable  = errors.New("audit tool not available")
	ErrToolOutputFormat = errors.New("unrecognised audit tool output")
	ErrAuditStoreFailed = errors.New("audit store failed")
)
