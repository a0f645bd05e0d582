// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// Handler serves the auth API. It owns no state beyond its collaborators.
type Handler struct {
	svc     *auth.Service
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewHandler creates a Handler. metrics may be nil when the observability
// server is disabled.
func NewHandler(svc *auth.Service, logger *slog.Logger, metrics *observability.Metrics) (*Handler, error) {
	if svc == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Handler{svc: svc, logger: logger, metrics: metrics}, nil
}

// Register handles POST /api/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pair, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Login:    req.Login,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Tel,
	})
	if err != nil {
		h.countRegistration(errorCode(err))
		h.sendAuthError(w, r, "registration failed", err)
		return
	}

	h.countRegistration("success")
	h.setTokenCookies(w, pair)
	h.sendJSON(w, TokenResponse{
		Message:          "registration successful",
		AccessExpiresIn:  int(pair.AccessTTL.Seconds()),
		RefreshExpiresIn: int(pair.RefreshTTL.Seconds()),
	}, http.StatusOK)
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pair, err := h.svc.Login(r.Context(), auth.Credentials{
		Login:    req.Login,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		h.countLogin(errorCode(err))
		h.sendAuthError(w, r, "login failed", err)
		return
	}

	h.countLogin("success")
	h.setTokenCookies(w, pair)
	h.sendJSON(w, TokenResponse{
		Message:          "login successful",
		AccessExpiresIn:  int(pair.AccessTTL.Seconds()),
		RefreshExpiresIn: int(pair.RefreshTTL.Seconds()),
	}, http.StatusOK)
}

// Logout handles POST /api/logout. It revokes whatever tokens the request
// presents and always succeeds, so repeated logouts stay cheap for clients.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.svc.Logout(r.Context(), cookieValue(r, accessCookie), cookieValue(r, refreshCookie))

	if h.metrics != nil {
		h.metrics.LogoutsTotal.Inc()
	}
	h.clearTokenCookies(w)
	h.sendJSON(w, AckResponse{Message: "logout successful"}, http.StatusOK)
}

// LogoutAll handles POST /api/logout/all. It requires a valid access token
// and revokes every session of its owner.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	token := bearerOrCookie(r, accessCookie)
	if token == "" {
		h.sendError(w, "access token is required", http.StatusUnauthorized)
		return
	}

	n, err := h.svc.LogoutAll(r.Context(), token)
	if err != nil {
		h.sendAuthError(w, r, "logout-all failed", err)
		return
	}

	if h.metrics != nil {
		h.metrics.LogoutsTotal.Inc()
	}
	h.clearTokenCookies(w)
	h.sendJSON(w, LogoutAllResponse{Message: "logout successful", SessionsRevoked: n}, http.StatusOK)
}

// Session handles GET /api/session: validates the presented access token
// and returns the session it proves.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	token := bearerOrCookie(r, accessCookie)
	if token == "" {
		h.countValidation("missing")
		h.sendError(w, "access token is required", http.StatusUnauthorized)
		return
	}

	session, err := h.svc.ValidateToken(r.Context(), token)
	if err != nil {
		h.countValidation(errorCode(err))
		h.sendAuthError(w, r, "token validation failed", err)
		return
	}

	h.countValidation("success")
	h.sendJSON(w, SessionResponse{
		Login:     session.OwnerLogin,
		Kind:      string(session.Kind),
		IssuedAt:  session.IssuedAt,
		ExpiresAt: session.ExpiresAt,
	}, http.StatusOK)
}

// setTokenCookies writes the pair as HttpOnly cookies with Max-Age = TTL.
func (h *Handler) setTokenCookies(w http.ResponseWriter, pair *auth.SessionPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(pair.AccessTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(pair.RefreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// sendAuthError maps a core error to an HTTP status. Unexpected errors are
// logged and reported as a generic 500 so internals never leak.
func (h *Handler) sendAuthError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	code := errorCode(err)
	status, message := statusFor(code)
	if status == http.StatusInternalServerError {
		errutil.LogError(h.logger, msg, err)
	} else {
		h.logger.WarnContext(r.Context(), msg, "code", code)
	}
	h.sendError(w, message, status)
}

// statusFor maps error codes to HTTP statuses: 400 for bad input and
// duplicates, 401 for credential and token failures, 500 otherwise.
func statusFor(code string) (int, string) {
	switch code {
	case "AUTH_MISSING_FIELD", "AUTH_INVALID_LOGIN", "AUTH_INVALID_EMAIL", "AUTH_EMPTY_PASSWORD":
		return http.StatusBadRequest, "required field is missing or invalid"
	case "AUTH_DUPLICATE_LOGIN":
		return http.StatusBadRequest, "login already taken"
	case "AUTH_DUPLICATE_EMAIL":
		return http.StatusBadRequest, "email already taken"
	case "AUTH_INVALID_CREDENTIALS":
		return http.StatusUnauthorized, "invalid login or password"
	case "SESSION_TOKEN_NOT_FOUND":
		return http.StatusUnauthorized, "unknown session token"
	case "SESSION_EXPIRED":
		return http.StatusUnauthorized, "session has expired"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// errorCode extracts the oops code, or "internal" for plain errors.
func errorCode(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok && code != "" {
			return code
		}
	}
	return "internal"
}

func (h *Handler) countRegistration(result string) {
	if h.metrics != nil {
		h.metrics.RegistrationsTotal.WithLabelValues(metricResult(result)).Inc()
	}
}

func (h *Handler) countLogin(result string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(metricResult(result)).Inc()
	}
}

func (h *Handler) countValidation(result string) {
	if h.metrics != nil {
		h.metrics.ValidationsTotal.WithLabelValues(metricResult(result)).Inc()
	}
}

// metricResult lowers error codes into stable label values.
func metricResult(code string) string {
	switch code {
	case "success", "missing":
		return code
	case "AUTH_DUPLICATE_LOGIN":
		return "duplicate_login"
	case "AUTH_DUPLICATE_EMAIL":
		return "duplicate_email"
	case "AUTH_MISSING_FIELD", "AUTH_INVALID_LOGIN", "AUTH_INVALID_EMAIL", "AUTH_EMPTY_PASSWORD":
		return "invalid_input"
	case "AUTH_INVALID_CREDENTIALS":
		return "invalid_credentials"
	case "SESSION_TOKEN_NOT_FOUND":
		return "token_not_found"
	case "SESSION_EXPIRED":
		return "token_expired"
	default:
		return "internal"
	}
}

// bearerOrCookie extracts a token from the Authorization header, falling
// back to the named cookie.
func bearerOrCookie(r *http.Request, cookie string) string {
	const bearerPrefix = "Bearer "
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		if token := header[len(bearerPrefix):]; token != "" {
			return token
		}
	}
	return cookieValue(r, cookie)
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// sendJSON writes a JSON response.
func (h *Handler) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

// sendError writes a JSON error response.
func (h *Handler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}, statusCode)
}
