package service

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrVendorNotFound   = errors.New("vendor not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrSubsidyNotFound  = errors.New("subsidy not found")
	ErrTrainingNotFound = errors.New("training not found")
	ErrUserNotFound     = errors.New("user not found")

	ErrReasonRequired       = errors.New("rejection reason is required")
	ErrVendorDecided        = errors.New("vendor application already decided")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrMissingTraceability  = errors.New("product has no traceability id")

	ErrUnauthenticated = errors.New("unauthenticated")
	ErrAccessDenied    = errors.New("access denied")

	ErrValidation = errors.New("validation failed")
)

// ValidationError names the input field that was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
