package povguard

import (
	"errors"
	"strings"
)

// Custom errors
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("resource not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidationFailed = errors.New("launch validation failed")
	ErrAlreadyConfirmed = errors.New("launch already confirmed")
)

// ValidationError carries the launch blockers back to the caller so the UI
// can render each one.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "launch validation failed: " + strings.Join(e.Errors, "; ")
}

// Is makes errors.Is(err, ErrValidationFailed) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
