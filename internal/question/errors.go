package question

import "errors"

var (
	ErrInvalidDifficulty      = errors.New("difficulty must be one of Easy, Medium, Hard")
	ErrInvalidModel           = errors.New("model is not supported")
	ErrGeneratorNotConfigured = errors.New("question generator not configured")
	ErrGenerationFailed       = errors.New("question generation failed")
	ErrQuestionNotFound       = errors.New("question not found")
)
