package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeConfigurationError = "configuration_error"
	ErrCodeUpstreamError      = "upstream_error"

	// Question bank errors
	ErrCodeGenerationFailed = "generation_failed"
)
