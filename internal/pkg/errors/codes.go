package errors

import "net/http"

// Error code constants. Errors contain code + params only; messages stay
// short and stable so dashboards can match on them.

// Application error codes.
const (
	CodeApplicationNotFound = "APPLICATION_NOT_FOUND"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodePersistenceFailed   = "PERSISTENCE_FAILED"
)

// Document error codes.
const (
	CodeDocumentNotFound = "DOCUMENT_NOT_FOUND"
	CodeDocumentExists   = "DOCUMENT_ALREADY_ATTACHED"
	CodeUnknownProgram   = "UNKNOWN_LOAN_PROGRAM"
)

// Field update error codes.
const (
	CodeInvalidFieldPath = "INVALID_FIELD_PATH"
	CodeUnknownSection   = "UNKNOWN_SECTION"
)

// Auth error codes.
const (
	CodeAuthFailed   = "AUTH_FAILED"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// Convenience constructors using predefined codes.

// ErrApplicationNotFoundf creates an application not found error.
func ErrApplicationNotFoundf(applicationID string) *AppError {
	return (&AppError{
		Code:       CodeApplicationNotFound,
		Message:    "loan application not found",
		HTTPStatus: http.StatusNotFound,
		Err:        ErrNotFound,
	}).WithParams(map[string]interface{}{"application_id": applicationID})
}

// ErrInvalidTransitionf creates an invalid status transition error.
func ErrInvalidTransitionf(from, to string) *AppError {
	return (&AppError{
		Code:       CodeInvalidTransition,
		Message:    "status transition not permitted",
		HTTPStatus: http.StatusConflict,
		Err:        ErrInvalidTransition,
	}).WithParams(map[string]interface{}{"from": from, "to": to})
}

// ErrPersistencef wraps a storage-layer failure. The caller decides whether
// to retry; nothing retries automatically.
func ErrPersistencef(err error) *AppError {
	return &AppError{
		Code:       CodePersistenceFailed,
		Message:    "storage operation failed",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// ErrInvalidFieldPathf creates a bad request error for a malformed dot path.
func ErrInvalidFieldPathf(path string) *AppError {
	return (&AppError{
		Code:       CodeInvalidFieldPath,
		Message:    "field path is not addressable",
		HTTPStatus: http.StatusBadRequest,
		Err:        ErrBadRequest,
	}).WithParams(map[string]interface{}{"path": path})
}
