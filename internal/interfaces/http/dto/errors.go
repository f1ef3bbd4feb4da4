package dto

import (
	"net/http"
	"strings"
)

// HTTP error codes raised by the interface layer itself. Domain error codes
// come from shared.DomainError and are mapped below as-is.
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Business-rule rejections (insufficient stock or balance, wrong state) are
// bad requests; duplicate and concurrent-modification rejections are
// conflicts.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeInternal:     http.StatusInternalServerError,

	"ALREADY_EXISTS":       http.StatusConflict,
	"ALREADY_CANCELLED":    http.StatusConflict,
	"ALREADY_INACTIVE":     http.StatusConflict,
	"ALREADY_REVERTED":     http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	"INVALID_STATE":        http.StatusBadRequest,
	"INSUFFICIENT_STOCK":   http.StatusBadRequest,
	"INSUFFICIENT_BALANCE": http.StatusBadRequest,

	"STORAGE_DISABLED": http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status for an error code. Validation codes
// (INVALID_*) map to 400; anything unknown is treated as an internal error.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
