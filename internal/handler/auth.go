package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/companyhub/companyhub/internal/auth"
	"github.com/companyhub/companyhub/internal/handler/dto"
	"github.com/companyhub/companyhub/internal/middleware"
	"github.com/companyhub/companyhub/internal/service"
)

// msgAuthenticated is the body of the auth probe.
const msgAuthenticated = "You are authenticated!"

// AuthHandler handles token issuance and the auth probe.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Token handles POST /api/token/.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		writeError(w, http.StatusBadRequest, codeInvalidJSON, msg)
		return
	}

	var missing []string
	if strings.TrimSpace(req.UsernameOrEmail) == "" {
		missing = append(missing, "username_or_email: This field is required.")
	}
	if req.Password == "" {
		missing = append(missing, "password: This field is required.")
	}
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, string(service.KindBadRequest), strings.Join(missing, " "))
		return
	}

	pair, err := h.svc.Login(r.Context(), strings.TrimSpace(req.UsernameOrEmail), req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Warn("login_failed",
				"ip", r.RemoteAddr,
				"request_id", middleware.GetRequestID(r.Context()),
			)
		}
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenPairResponse{Access: pair.Access, Refresh: pair.Refresh})
}

// Refresh handles POST /api/token/refresh/.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		writeError(w, http.StatusBadRequest, codeInvalidJSON, msg)
		return
	}

	access, err := h.svc.Refresh(r.Context(), req.Refresh)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccessTokenResponse{Access: access})
}

// Protected handles GET /api/protected/. The auth middleware has already
// rejected anonymous callers by the time it runs.
func (h *AuthHandler) Protected(w http.ResponseWriter, r *http.Request) {
	if auth.AuthFromContext(r.Context()) == nil {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		writeError(w, http.StatusUnauthorized, string(service.KindUnauthenticated), "Authentication credentials were not provided.")
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: msgAuthenticated})
}
