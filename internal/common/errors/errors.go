// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
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
	ErrCodeExtractorFailed          ErrorCode = "EXTRACTOR_FAILED"
	ErrCodeExtractorTimeout         ErrorCode = "EXTRACTOR_TIMEOUT"
	ErrCodeExtractorMalformedOutput ErrorCode = "EXTRACTOR_MALFORMED_OUTPUT"

	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"
	ErrCodeCatalogTimeout     ErrorCode = "CATALOG_TIMEOUT"
	ErrCodeNoResults          ErrorCode = "NO_RESULTS"

	ErrCodeComparisonTargetMissing ErrorCode = "COMPARISON_TARGET_MISSING"
	ErrCodeInsufficientIntent      ErrorCode = "INSUFFICIENT_INTENT"
	ErrCodeInvalidTurnInput        ErrorCode = "INVALID_TURN_INPUT"

	ErrCodeDatabaseConnectionFailed      ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeShopifyFetchFailed            ErrorCode = "SHOPIFY_FETCH_FAILED"
	ErrCodeNotificationSendFailed        ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
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

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func NewExtractorFailedError(err error) *StandardError {
	return newError(ErrCodeExtractorFailed, "Intent extraction failed", errDetails(err), true)
}

func NewExtractorTimeoutError() *StandardError {
	return newError(ErrCodeExtractorTimeout, "Intent extraction timed out", "", true)
}

func NewExtractorMalformedOutputError(details string) *StandardError {
	return newError(ErrCodeExtractorMalformedOutput, "Intent extractor returned malformed output", details, false)
}

func NewCatalogUnavailableError(err error) *StandardError {
	return newError(ErrCodeCatalogUnavailable, "Product catalog unavailable", errDetails(err), true)
}

func NewCatalogTimeoutError(backend string) *StandardError {
	return newError(ErrCodeCatalogTimeout, "Product catalog lookup timed out", backend, true)
}

func NewNoResultsError(query string) *StandardError {
	return newError(ErrCodeNoResults, "No products found matching criteria", query, false)
}

func NewComparisonTargetMissingError(id string) *StandardError {
	return newError(ErrCodeComparisonTargetMissing, "Comparison target not found", id, false).
		WithMetadata("productId", id)
}

func NewInsufficientIntentError(confidence float64) *StandardError {
	return newError(ErrCodeInsufficientIntent, "Not enough information to recommend products", "", false).
		WithMetadata("confidence", confidence)
}

func NewInvalidTurnInputError(details string) *StandardError {
	return newError(ErrCodeInvalidTurnInput, "Invalid turn input", details, false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Failed to connect to database", errDetails(err), true)
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Failed to connect to Elasticsearch", errDetails(err), true)
}

func NewShopifyFetchFailedError(err error) *StandardError {
	return newError(ErrCodeShopifyFetchFailed, "Failed to fetch products from Shopify", errDetails(err), true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Failed to send notification", errDetails(err), true).
		WithMetadata("channel", channel)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", errDetails(err), false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes caught by
// boundary events in the discovery process model.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeExtractorFailed:               "EXTRACTOR_FAILED",
	ErrCodeExtractorTimeout:              "EXTRACTOR_TIMEOUT",
	ErrCodeExtractorMalformedOutput:      "EXTRACTOR_MALFORMED_OUTPUT",
	ErrCodeCatalogUnavailable:            "CATALOG_UNAVAILABLE",
	ErrCodeCatalogTimeout:                "CATALOG_TIMEOUT",
	ErrCodeNoResults:                     "NO_RESULTS",
	ErrCodeComparisonTargetMissing:       "COMPARISON_TARGET_MISSING",
	ErrCodeInsufficientIntent:            "INSUFFICIENT_INTENT",
	ErrCodeInvalidTurnInput:              "INVALID_TURN_INPUT",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeShopifyFetchFailed:            "SHOPIFY_FETCH_FAILED",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeExtractorFailed,
		ErrCodeCatalogUnavailable,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeShopifyFetchFailed,
		ErrCodeNotificationSendFailed:
		return 3 // technical errors

	case ErrCodeExtractorTimeout,
		ErrCodeCatalogTimeout:
		return 2

	default:
		return 0 // business errors
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

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logging and dashboards.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "EXTRACTOR"):
		return "INTENT"
	case strings.HasPrefix(codeStr, "CATALOG") || codeStr == string(ErrCodeNoResults):
		return "CATALOG"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "ELASTICSEARCH"):
		return "STORAGE"
	case strings.Contains(codeStr, "SHOPIFY"):
		return "INGESTION"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "INSUFFICIENT") || strings.Contains(codeStr, "MISSING"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
