package response

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/gatepass/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Details string `json:"details,omitempty"`
}

// BlockedResponse is returned when a page must not be shown at all. The client has to
// navigate to RedirectTo and cannot dismiss the message.
type BlockedResponse struct {
	Error       string   `json:"error"`
	Code        string   `json:"code"`
	RedirectTo  string   `json:"redirect_to"`
	Dismissible bool     `json:"dismissible"`
	Missing     []string `json:"missing,omitempty"`
	Invalid     []string `json:"invalid,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WriteFieldError names the field and rule that failed validation
func WriteFieldError(w http.ResponseWriter, statusCode int, message, code, field, rule string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code, Field: field, Rule: rule})
}

// WriteErrorWithDetails writes a structured JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code, Details: details})
}

// WriteBlocked sets Location so non-JSON clients follow the redirect as well.
func WriteBlocked(w http.ResponseWriter, message, redirectTo string, missing, invalid []string) {
	w.Header().Set("Location", redirectTo)
	WriteJSON(w, http.StatusUnprocessableEntity, BlockedResponse{
		Error:       message,
		Code:        CodePassUnavailable,
		RedirectTo:  redirectTo,
		Dismissible: false,
		Missing:     missing,
		Invalid:     invalid,
	})
}

// Common error codes
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeNotFound            = "NOT_FOUND"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeDateRequired        = "DATE_REQUIRED"
	CodeFromTimeRequired    = "FROM_TIME_REQUIRED"
	CodeNonPositiveDuration = "NON_POSITIVE_DURATION"
	CodeDurationTooShort    = "DURATION_TOO_SHORT"
	CodeSubmissionInFlight  = "SUBMISSION_IN_FLIGHT"
	CodeDataIntegrity       = "DATA_INTEGRITY"
	CodePersistenceFailed   = "PERSISTENCE_FAILED"
	CodeSubmissionFailed    = "SUBMISSION_FAILED"
	CodePassUnavailable     = "PASS_UNAVAILABLE"
	CodeRateLimited         = "RATE_LIMITED"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
)

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimited)
}
