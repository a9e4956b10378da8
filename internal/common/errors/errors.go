// Package errors provides standardized error handling for the application
// workflow engine and its BPMN job workers.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Engine error kinds surfaced to callers.
const (
	ErrCodeNotFound               ErrorCode = "NOT_FOUND"
	ErrCodeInvalidTransition      ErrorCode = "INVALID_TRANSITION"
	ErrCodeUnauthorized           ErrorCode = "UNAUTHORIZED"
	ErrCodeEmptySelection         ErrorCode = "EMPTY_SELECTION"
	ErrCodeTimeout                ErrorCode = "TIMEOUT"
	ErrCodeConflictRetryExhausted ErrorCode = "CONFLICT_RETRY_EXHAUSTED"
)

// Supporting codes for submission, persistence and request handling.
const (
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeCampaignNotActive    ErrorCode = "CAMPAIGN_NOT_ACTIVE"
	ErrCodeDuplicateApplication ErrorCode = "DUPLICATE_APPLICATION"
	ErrCodeProposalLocked       ErrorCode = "PROPOSAL_LOCKED"
	ErrCodeDatabaseQueryFailed  ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeNotificationFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// Sentinels for errors.Is comparisons. StandardError.Is matches on code only.
var (
	ErrNotFound               = &StandardError{Code: ErrCodeNotFound}
	ErrInvalidTransition      = &StandardError{Code: ErrCodeInvalidTransition}
	ErrUnauthorized           = &StandardError{Code: ErrCodeUnauthorized}
	ErrEmptySelection         = &StandardError{Code: ErrCodeEmptySelection}
	ErrTimeout                = &StandardError{Code: ErrCodeTimeout}
	ErrConflictRetryExhausted = &StandardError{Code: ErrCodeConflictRetryExhausted}
	ErrValidationFailed       = &StandardError{Code: ErrCodeValidationFailed}
	ErrCampaignNotActive      = &StandardError{Code: ErrCodeCampaignNotActive}
	ErrDuplicateApplication   = &StandardError{Code: ErrCodeDuplicateApplication}
	ErrProposalLocked         = &StandardError{Code: ErrCodeProposalLocked}
	ErrDatabaseQueryFailed    = &StandardError{Code: ErrCodeDatabaseQueryFailed}
	ErrNotificationFailed     = &StandardError{Code: ErrCodeNotificationFailed}
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is reports whether target is a StandardError carrying the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the receiver.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// CodeOf normalises any error to an ErrorCode. Context deadlines map to TIMEOUT.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}
	return ErrCodeInternal
}

// Normalize returns err as a *StandardError, wrapping foreign errors.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("operation", err)
	}
	return NewInternalError(err)
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

// NewNotFoundError reports a missing entity of the given kind.
func NewNotFoundError(kind, id string) *StandardError {
	return newError(ErrCodeNotFound, fmt.Sprintf("%s not found", kind), fmt.Sprintf("id: %s", id), false, nil).
		WithMetadata("kind", kind)
}

// NewInvalidTransitionError reports a status change with no edge in the lifecycle.
func NewInvalidTransitionError(from, to string) *StandardError {
	return newError(ErrCodeInvalidTransition, "Status transition not allowed",
		fmt.Sprintf("from: %s, to: %s", from, to), false, nil).
		WithMetadata("from", from).
		WithMetadata("to", to)
}

// NewUnauthorizedError reports an actor that does not own the resource.
func NewUnauthorizedError(details string) *StandardError {
	return newError(ErrCodeUnauthorized, "Actor is not permitted to perform this action", details, false, nil)
}

func NewEmptySelectionError() *StandardError {
	return newError(ErrCodeEmptySelection, "No applications selected", "", false, nil)
}

// NewTimeoutError creates a retryable timeout error for the named operation.
func NewTimeoutError(operation string, err error) *StandardError {
	details := fmt.Sprintf("operation: %s", operation)
	if err != nil {
		details = fmt.Sprintf("operation: %s, error: %s", operation, err.Error())
	}
	return newError(ErrCodeTimeout, "Operation timed out", details, true, err)
}

// NewConflictRetryExhaustedError is returned when a uniqueness race never settles.
func NewConflictRetryExhaustedError(attempts int, err error) *StandardError {
	return newError(ErrCodeConflictRetryExhausted, "Conversation creation conflict did not resolve",
		fmt.Sprintf("attempts: %d", attempts), false, err)
}

func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Request validation failed", details, false, nil)
}

func NewCampaignNotActiveError(campaignID, status string) *StandardError {
	return newError(ErrCodeCampaignNotActive, "Campaign is not accepting applications",
		fmt.Sprintf("campaignId: %s, status: %s", campaignID, status), false, nil)
}

// NewDuplicateApplicationError creates a non-retryable duplicate application error.
func NewDuplicateApplicationError(campaignID, creatorID string) *StandardError {
	return newError(ErrCodeDuplicateApplication, "Application already exists",
		fmt.Sprintf("campaignId: %s, creatorId: %s", campaignID, creatorID), false, nil)
}

func NewProposalLockedError(status string) *StandardError {
	return newError(ErrCodeProposalLocked, "Proposal can only be edited while pending",
		fmt.Sprintf("status: %s", status), false, nil)
}

// NewDatabaseQueryFailedError creates a retryable persistence error.
func NewDatabaseQueryFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeDatabaseQueryFailed, "Database query failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true, err)
}

// NewPersistenceError classifies a store failure. Context expiry becomes a
// retryable TIMEOUT, anything else DATABASE_QUERY_FAILED.
func NewPersistenceError(operation string, err error) *StandardError {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return NewTimeoutError(operation, err)
	}
	return NewDatabaseQueryFailedError(operation, err)
}

// NewNotificationFailedError creates a retryable notification publish error.
func NewNotificationFailedError(transport string, err error) *StandardError {
	return newError(ErrCodeNotificationFailed, "Notification delivery failed",
		fmt.Sprintf("transport: %s, error: %s", transport, err.Error()), true, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes used in the process models.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNotFound:               "APPLICATION_NOT_FOUND",
	ErrCodeInvalidTransition:      "INVALID_TRANSITION",
	ErrCodeUnauthorized:           "UNAUTHORIZED",
	ErrCodeEmptySelection:         "EMPTY_SELECTION",
	ErrCodeTimeout:                "TIMEOUT",
	ErrCodeConflictRetryExhausted: "CONFLICT_RETRY_EXHAUSTED",
	ErrCodeValidationFailed:       "VALIDATION_FAILED",
	ErrCodeCampaignNotActive:      "CAMPAIGN_NOT_ACTIVE",
	ErrCodeDuplicateApplication:   "DUPLICATE_APPLICATION",
	ErrCodeProposalLocked:         "PROPOSAL_LOCKED",
	ErrCodeDatabaseQueryFailed:    "DATABASE_QUERY_FAILED",
	ErrCodeNotificationFailed:     "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseQueryFailed,
		ErrCodeNotificationFailed:
		return 3

	case ErrCodeTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
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

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TRANSITION") || strings.Contains(codeStr, "PROPOSAL"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "UNAUTHORIZED"):
		return "AUTH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "CONFLICT"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "SELECTION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "TIMEOUT"):
		return "TIMEOUT"
	default:
		return "OTHER"
	}
}
