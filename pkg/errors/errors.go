package errors

import (
	"fmt"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined errors
var (
	ErrNotFound = &AppError{
		Code:    "NOT_FOUND",
		Message: "Resource not found",
		Status:  http.StatusNotFound,
	}

	ErrBadRequest = &AppError{
		Code:    "BAD_REQUEST",
		Message: "Invalid request",
		Status:  http.StatusBadRequest,
	}

	ErrInternalServer = &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
	}

	ErrValidation = &AppError{
		Code:    "VALIDATION_ERROR",
		Message: "Validation failed",
		Status:  http.StatusBadRequest,
	}

	// ErrProcessingConflict is returned when a delivery loses the
	// processing claim to a concurrent delivery for the same job.
	ErrProcessingConflict = &AppError{
		Code:    "PROCESSING_IN_PROGRESS",
		Message: "Job is already being processed",
		Status:  http.StatusConflict,
	}
)

// Pipeline failure codes. They all surface as a 500 so the task queue
// retries the delivery; the code tells the classes apart in logs.
const (
	CodeUpstreamFetch      = "UPSTREAM_FETCH_ERROR"
	CodeAttachmentDownload = "ATTACHMENT_DOWNLOAD_ERROR"
	CodeObjectStoreWrite   = "OBJECT_STORE_WRITE_ERROR"
	CodeStatusStore        = "STATUS_STORE_ERROR"
)

func NewError(code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func WrapError(err error, code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ErrorResponse is a common error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
