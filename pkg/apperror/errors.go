package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrBadRequest          = errors.New("bad request")
	ErrConflict            = errors.New("conflict")
	ErrInternal            = errors.New("internal server error")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientStorage = errors.New("insufficient storage")
	ErrBadGateway          = errors.New("upstream unavailable")
	ErrGatewayTimeout      = errors.New("upstream timeout")
)

// Stable machine-readable error codes serialized to clients.
const (
	CodeBadRequest          = "bad_request"
	CodeUnauthorized        = "unauthorized"
	CodeForbidden           = "forbidden"
	CodeNotFound            = "not_found"
	CodeConflict            = "conflict"
	CodeDecisionPending     = "decision_pending"
	CodeEvidenceLimit       = "evidence_limit_reached"
	CodeInsufficientStorage = "insufficient_storage"
	CodePoWRequired         = "POW_REQUIRED"
	CodeBadGateway          = "bad_gateway"
	CodeGatewayTimeout      = "gateway_timeout"
	CodeInternal            = "internal_error"
)

// AppError is a custom error type carrying an HTTP status and a stable
// machine-readable code alongside the human message.
type AppError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapErrorToStatus maps common errors to HTTP status codes.
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInsufficientStorage) {
		return http.StatusInsufficientStorage
	}
	if errors.Is(err, ErrBadGateway) {
		return http.StatusBadGateway
	}
	if errors.Is(err, ErrGatewayTimeout) {
		return http.StatusGatewayTimeout
	}
	// Default to internal server error
	return http.StatusInternalServerError
}

// MapErrorToCode maps common errors to their stable client-facing code.
func MapErrorToCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	switch MapErrorToStatus(err) {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusConflict:
		return CodeConflict
	case http.StatusInsufficientStorage:
		return CodeInsufficientStorage
	case http.StatusBadGateway:
		return CodeBadGateway
	case http.StatusGatewayTimeout:
		return CodeGatewayTimeout
	default:
		return CodeInternal
	}
}
