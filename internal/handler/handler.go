// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/companyhub/companyhub/internal/handler/dto"
	"github.com/companyhub/companyhub/internal/middleware"
	"github.com/companyhub/companyhub/internal/service"
)

// Error codes produced at the HTTP layer itself.
const (
	codeInvalidJSON      = "INVALID_JSON"
	codeInternal         = "INTERNAL_ERROR"
	codeNotFound         = "NOT_FOUND"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// Handler serves router-level fallbacks.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, codeNotFound, "Not found.")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, fmt.Sprintf("Method \"%s\" not allowed.", r.Method))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, nothing useful can be done on failure.
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}

// decodeJSON decodes a request body into dst and translates decoding
// failures into field-level messages where possible.
func decodeJSON(r *http.Request, dst any) (string, bool) {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return "", true
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return fmt.Sprintf("%s: A valid %s is required.", typeErr.Field, expectedKind(typeErr.Type.Kind().String())), false
	case errors.As(err, &maxErr):
		return "Request body too large", false
	case errors.Is(err, io.EOF):
		return "No data provided.", false
	default:
		return "Invalid request body", false
	}
}

func expectedKind(kind string) string {
	switch {
	case strings.HasPrefix(kind, "int"), strings.HasPrefix(kind, "uint"):
		return "integer"
	case kind == "string":
		return "string"
	case kind == "bool":
		return "boolean"
	default:
		return "value"
	}
}

// statusForKind maps service error kinds to HTTP status codes.
func statusForKind(kind service.Kind) int {
	switch kind {
	case service.KindInvalidCredentials, service.KindInvalidToken, service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindBadRequest, service.KindInvalidOrderingField, service.KindQuotaExceeded:
		return http.StatusBadRequest
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindNotificationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	svcErr, ok := service.AsError(err)
	if !ok {
		logger.Error("internal error",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
			"path", r.URL.Path,
		)
		writeError(w, http.StatusInternalServerError, codeInternal, "An unexpected error occurred")
		return
	}

	status := statusForKind(svcErr.Kind)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	if svcErr.Kind == service.KindNotificationFailed {
		logger.Warn("notification_failed",
			"company_id", svcErr.RecordID,
			"error", svcErr.Err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}

	writeJSON(w, status, dto.ErrorResponse{
		Error:        svcErr.Error(),
		Code:         string(svcErr.Kind),
		ValidOptions: svcErr.ValidOptions,
		CompanyID:    svcErr.RecordID,
	})
}
