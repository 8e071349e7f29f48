package errors

import (
	"errors"
	"fmt"
)

var (
	// Webhook pipeline errors
	ErrUnauthorizedSignature = errors.New("unauthorized signature")
	ErrMalformedEvent        = errors.New("malformed webhook event")
	ErrVerificationFailed    = errors.New("transaction verification failed")
	ErrAlreadyProcessed      = errors.New("transaction already processed")

	// Provider errors
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrProviderTimeout     = errors.New("provider request timeout")
	ErrTokenFetchFailed    = errors.New("provider token fetch failed")
	ErrCheckoutFailed      = errors.New("checkout initiation failed")

	// Identity / invite errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrEmailMismatch  = errors.New("invite email does not match session user")
	ErrInviteNotFound = errors.New("invite not found or no longer valid")
	ErrAlreadyMember  = errors.New("user is already a team member")
	ErrAlreadyInvited = errors.New("user already invited or registered")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
