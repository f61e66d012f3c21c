/**
 * @description
 * Sentinel and validation error types for the app layer. Handlers match
 * these with errors.Is / errors.As and translate them to HTTP status codes
 * and the console's human-readable messages; nothing in the app layer
 * fails silently.
 */
package app

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Login taxonomy.
	ErrMalformedEmail   = errors.New("email address is malformed")
	ErrUnknownUser      = errors.New("no user found with that email")
	ErrWrongCredential  = errors.New("incorrect password")
	ErrRateLimited      = errors.New("too many failed login attempts")
	ErrEmailNotVerified = errors.New("email is not verified")
	ErrInvalidRole      = errors.New("invalid user role")

	// Deposit gating.
	ErrKYCRequired          = errors.New("kyc approval required before depositing")
	ErrInvalidDepositAmount = errors.New("deposit amount must be positive")
	ErrUnsupportedCurrency  = errors.New("unsupported deposit currency")

	// Blob access.
	ErrForbiddenFile = errors.New("file key is outside the principal's namespace")

	// Session/middleware.
	ErrUnauthenticated = errors.New("request is not authenticated")
)

// ValidationError reports per-field failures for a flat form such as
// registration or deposit submission.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + joinFieldNames(e.Fields)
}

// KYCValidationError reports per-field failures for the multi-step KYC
// form along with the step the form snapped back to.
type KYCValidationError struct {
	Step   KYCStep
	Fields map[string]string
}

func (e *KYCValidationError) Error() string {
	return fmt.Sprintf("kyc validation failed at step %s: %s", e.Step, joinFieldNames(e.Fields))
}

func joinFieldNames(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
