package domain

import (
	"fmt"
	"net/http"
)

// AppError carries the HTTP status and stable code the dashboard shows for
// a failure, plus the underlying cause for logs.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
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

// Is faz errors.Is casar cópias criadas por WithError com o erro pré-definido.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

func newError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: status}
}

// Erros do painel e do cadastro. Mensagens vão para o usuário como estão.
var (
	ErrInternal         = newError(http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	ErrStoreUnavailable = newError(http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Database not available")

	ErrBadRequest         = newError(http.StatusBadRequest, "BAD_REQUEST", "Invalid request")
	ErrUnauthorized       = newError(http.StatusUnauthorized, "UNAUTHORIZED", "Not logged in")
	ErrInvalidCredentials = newError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	ErrRateLimitExceeded  = newError(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many attempts, try again later")

	ErrNotFound        = newError(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrStudentNotFound = newError(http.StatusNotFound, "STUDENT_NOT_FOUND", "Student not found")

	ErrValidationFailed = newError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Request validation failed")
	ErrInvalidDate      = newError(http.StatusUnprocessableEntity, "INVALID_DATE", "Dates must use the YYYY-MM-DD format")

	// Foto de cadastro.
	ErrInvalidImage    = newError(http.StatusUnprocessableEntity, "INVALID_IMAGE", "Invalid image format or corrupted file")
	ErrNoFaceDetected  = newError(http.StatusUnprocessableEntity, "NO_FACE_DETECTED", "No face found in the photo")
	ErrMultipleFaces   = newError(http.StatusUnprocessableEntity, "MULTIPLE_FACES", "More than one face in the photo, use a photo of the student alone")
	ErrLowQualityImage = newError(http.StatusUnprocessableEntity, "LOW_QUALITY_IMAGE", "Photo too dark or blurry for reliable recognition")
)
