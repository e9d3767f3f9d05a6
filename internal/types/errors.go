package types

import "errors"

// Sentinel errors for collaborator and engine failures. None of these are
// fatal to the process; all degrade to a safe, inert engine state.
var (
	// ErrCaptureUnavailable is returned by a session provider when the
	// underlying capture mechanism cannot enumerate sessions.
	ErrCaptureUnavailable = errors.New("audio session capture unavailable")
	// ErrUnsupportedFormat is returned when a track's format cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrFileNotFound is returned when a track path does not exist.
	ErrFileNotFound = errors.New("audio file not found")
	// ErrNoPlayableTracks is surfaced when every track in a playlist failed to load.
	ErrNoPlayableTracks = errors.New("no playable tracks")
	// ErrConfigRejected is surfaced when a config reload fails validation;
	// the previous valid config stays in effect.
	ErrConfigRejected = errors.New("config rejected")
)

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`   // JSON path to the field (e.g., "silence_seconds")
	Message string `json:"message"` // Human-readable error message
	Value   any    `json:"value"`   // The invalid value that was provided
}

// ValidationError collects multiple field validation errors.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

// NewValidationError creates a new empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Errors: make([]FieldError, 0)}
}

// Add adds a field error to the collection.
func (v *ValidationError) Add(field, message string, value any) {
	v.Errors = append(v.Errors, FieldError{Field: field, Message: message, Value: value})
}
