// Package errors provides the categorized error taxonomy for the truth
// market. Categories map to HTTP status codes at the API boundary; transfer
// and mint failures are deliberately soft and surface as warnings instead.
package errors

import (
	"fmt"
	"net/http"

	"github.com/truth-market/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryValidation represents request validation errors (400)
	CategoryValidation ErrorCategory = "validation"
	// CategoryAgentRegistry represents agent-proof lookup failures (503)
	CategoryAgentRegistry ErrorCategory = "agent_registry"
	// CategoryStorage represents record store failures (500)
	CategoryStorage ErrorCategory = "storage"
	// CategoryLedger represents Hedera gateway failures
	CategoryLedger ErrorCategory = "ledger"
	// CategoryVerification represents AI verification failures
	CategoryVerification ErrorCategory = "verification"
	// CategoryNotFound represents missing resources (404)
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryRateLimit represents throttled requests (429)
	CategoryRateLimit ErrorCategory = "rate_limit"
	// CategorySystem represents everything else (500)
	CategorySystem ErrorCategory = "system"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError for JSON responses
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// NewValidationError creates a request validation error
func NewValidationError(field string, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid field '%s': %s", field, reason),
		Details: map[string]interface{}{
			"field":  field,
			"reason": reason,
		},
	}
}

// NewAgentUnavailableError creates an agent registry lookup error. The
// purchase path treats this as a hard stop; no sale may proceed without a
// resolvable agent proof.
func NewAgentUnavailableError(agentID string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryAgentRegistry,
		StatusCode: http.StatusServiceUnavailable,
		Code:       "AGENT_UNAVAILABLE",
		Message:    fmt.Sprintf("agent registration could not be verified: %s", agentID),
		Cause:      cause,
		Details: map[string]interface{}{
			"agentId": agentID,
		},
	}
}

// NewAgentInactiveError creates an error for a deregistered agent
func NewAgentInactiveError(agentID string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryAgentRegistry,
		StatusCode: http.StatusServiceUnavailable,
		Code:       "AGENT_INACTIVE",
		Message:    fmt.Sprintf("agent is no longer active in the registry: %s", agentID),
		Details: map[string]interface{}{
			"agentId": agentID,
		},
	}
}

// NewStorageError creates a record store error
func NewStorageError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryStorage,
		StatusCode: http.StatusInternalServerError,
		Code:       "STORAGE_ERROR",
		Message:    fmt.Sprintf("storage error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewTransferFailedError creates a revenue transfer error. Never mapped to a
// non-2xx response on its own; the sale stands and the error becomes a
// warning on the settlement result.
func NewTransferFailedError(seller string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryLedger,
		StatusCode: http.StatusBadGateway,
		Code:       "TRANSFER_FAILED",
		Message:    fmt.Sprintf("revenue transfer to %s failed", seller),
		Cause:      cause,
		Details: map[string]interface{}{
			"seller": seller,
		},
	}
}

// NewMintFailedError creates a badge mint error. Like transfers, mint
// failures degrade to demo badges rather than failing the settlement.
func NewMintFailedError(recipient string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryLedger,
		StatusCode: http.StatusBadGateway,
		Code:       "MINT_FAILED",
		Message:    fmt.Sprintf("badge mint for %s failed", recipient),
		Cause:      cause,
		Details: map[string]interface{}{
			"recipient": recipient,
		},
	}
}

// NewVerificationError creates an AI verification error
func NewVerificationError(cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryVerification,
		StatusCode: http.StatusBadGateway,
		Code:       "VERIFICATION_ERROR",
		Message:    "claim verification failed",
		Cause:      cause,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, id string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNotFound,
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]interface{}{
			"resource": resource,
			"id":       id,
		},
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(retryAfter int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryRateLimit,
		StatusCode: http.StatusTooManyRequests,
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "rate limit exceeded",
		Details: map[string]interface{}{
			"retryAfter": retryAfter,
		},
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	if catErr, ok := err.(*CategorizedError); ok {
		return catErr
	}

	if svcErr, ok := err.(*types.ServiceError); ok {
		return &CategorizedError{
			Category:   CategorySystem,
			StatusCode: http.StatusInternalServerError,
			Code:       svcErr.Code,
			Message:    svcErr.Message,
			Details:    svcErr.Details,
		}
	}

	return NewInternalError("unexpected error", err)
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsRetryable determines if an error is worth retrying
func IsRetryable(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	switch catErr.Category {
	case CategoryLedger, CategoryStorage, CategoryVerification:
		return true
	case CategorySystem:
		return catErr.StatusCode == http.StatusServiceUnavailable ||
			catErr.StatusCode == http.StatusGatewayTimeout
	default:
		return false
	}
}

// IsUserError determines if an error is a user error (4xx)
func IsUserError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}
	return catErr.StatusCode >= 400 && catErr.StatusCode < 500
}
