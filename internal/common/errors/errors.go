// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Resolution
	ErrCodeNoCandidates     ErrorCode = "NO_CANDIDATES"
	ErrCodeInvalidSelection ErrorCode = "INVALID_SELECTION"
	ErrCodeResolutionError  ErrorCode = "RESOLUTION_ERROR"

	// CRM upstream
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeCRMRequestFailed    ErrorCode = "CRM_REQUEST_FAILED"
	ErrCodeCRMRateLimited      ErrorCode = "CRM_RATE_LIMITED"
	ErrCodeResourceNotFound    ErrorCode = "RESOURCE_NOT_FOUND"

	// Query understanding
	ErrCodeIntentParsingFailed ErrorCode = "INTENT_PARSING_FAILED"
	ErrCodeIntentAPITimeout    ErrorCode = "INTENT_API_TIMEOUT"

	// Session state
	ErrCodeConfirmationStoreFailed ErrorCode = "CONFIRMATION_STORE_FAILED"

	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewNoCandidatesError reports a query that matched nothing above threshold.
func NewNoCandidatesError(query string) *StandardError {
	return newError(ErrCodeNoCandidates, "No matching CRM records", fmt.Sprintf("query: %s", query), false, nil)
}

// NewInvalidSelectionError reports a confirmation reply that did not pick a candidate.
func NewInvalidSelectionError(reply string, max int) *StandardError {
	return newError(ErrCodeInvalidSelection, "Selection is not a valid candidate number",
		fmt.Sprintf("reply: %q, valid range: 1-%d", reply, max), false, nil)
}

// NewResolutionError wraps an unexpected failure inside the resolution flow.
func NewResolutionError(err error) *StandardError {
	return newError(ErrCodeResolutionError, "Entity resolution failed", err.Error(), false, err)
}

// NewUpstreamUnavailableError reports a CRM collection that could not be fetched.
func NewUpstreamUnavailableError(collection string, err error) *StandardError {
	return newError(ErrCodeUpstreamUnavailable, "CRM collection unavailable",
		fmt.Sprintf("collection: %s, error: %s", collection, err.Error()), true, err)
}

// NewCRMRequestFailedError wraps a failed CRM API request.
func NewCRMRequestFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeCRMRequestFailed, "CRM request failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true, err)
}

// NewCRMRateLimitedError reports an HTTP 429 from the CRM.
func NewCRMRateLimitedError(operation string) *StandardError {
	return newError(ErrCodeCRMRateLimited, "CRM rate limit exceeded",
		fmt.Sprintf("operation: %s", operation), true, nil)
}

func NewIntentParsingFailedError(err error) *StandardError {
	return newError(ErrCodeIntentParsingFailed, "Failed to parse user intent", err.Error(), true, err)
}

func NewIntentAPITimeoutError() *StandardError {
	return newError(ErrCodeIntentAPITimeout, "Intent analysis API timeout", "", true, nil)
}

// NewConfirmationStoreError wraps a failure of the pending confirmation store.
func NewConfirmationStoreError(op string, err error) *StandardError {
	return newError(ErrCodeConfirmationStoreFailed, "Confirmation store failure",
		fmt.Sprintf("op: %s, error: %s", op, err.Error()), true, err)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false, nil)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("Resource not found in %s", service), details, false, nil)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternalError, "Unexpected error", err.Error(), false, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNoCandidates:            "NO_CANDIDATES",
	ErrCodeInvalidSelection:        "INVALID_SELECTION",
	ErrCodeResolutionError:         "RESOLUTION_ERROR",
	ErrCodeUpstreamUnavailable:     "UPSTREAM_UNAVAILABLE",
	ErrCodeCRMRequestFailed:        "CRM_REQUEST_FAILED",
	ErrCodeCRMRateLimited:          "CRM_RATE_LIMITED",
	ErrCodeResourceNotFound:        "RESOURCE_NOT_FOUND",
	ErrCodeIntentParsingFailed:     "INTENT_PARSING_FAILED",
	ErrCodeIntentAPITimeout:        "INTENT_API_TIMEOUT",
	ErrCodeConfirmationStoreFailed: "CONFIRMATION_STORE_FAILED",
	ErrCodeInvalidInput:            "INVALID_INPUT",
	ErrCodeInternalError:           "INTERNAL_ERROR",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeUpstreamUnavailable,
		ErrCodeCRMRequestFailed,
		ErrCodeConfirmationStoreFailed,
		ErrCodeIntentParsingFailed:
		return 3

	case ErrCodeCRMRateLimited,
		ErrCodeIntentAPITimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err to a *StandardError if one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CRM") || strings.Contains(codeStr, "UPSTREAM") || strings.Contains(codeStr, "RESOURCE"):
		return "CRM"
	case strings.Contains(codeStr, "INTENT"):
		return "AI"
	case strings.Contains(codeStr, "CONFIRMATION") || strings.Contains(codeStr, "SELECTION"):
		return "CONVERSATION"
	case strings.Contains(codeStr, "CANDIDATES") || strings.Contains(codeStr, "RESOLUTION"):
		return "RESOLUTION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
