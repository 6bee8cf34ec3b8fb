package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"jobportal/internal/config"
	"jobportal/internal/model"
	"jobportal/internal/service"
	"jobportal/internal/util"
)

// Response is the standard API envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func successResponse(data interface{}, message string) Response {
	return Response{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func errorResponse(err error, message string) Response {
	return Response{
		Success: false,
		Error:   err.Error(),
		Message: message,
	}
}

func respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		util.Error("failed to encode JSON response", util.ErrorField(err))
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, err error, message string) {
	util.Warn("HTTP error response",
		util.ErrorField(err),
		util.Int("status_code", statusCode),
		util.String("message", message),
	)
	respondWithJSON(w, statusCode, errorResponse(err, message))
}

func getStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidOtp):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrSendFailed):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Role cookie names kept from the portal's original web client contract.
func roleCookieName(role model.Role) string {
	switch role {
	case model.RoleCandidate:
		return "candidateId"
	case model.RoleEmployer:
		return "employeeid"
	case model.RoleAdmin:
		return "adminid"
	}
	return ""
}

// CookieWriter issues and clears the HTTP-only role cookies that carry the
// signed-in account ID.
type CookieWriter struct {
	config *config.ServerConfig
}

func NewCookieWriter(cfg *config.ServerConfig) *CookieWriter {
	return &CookieWriter{config: cfg}
}

func (c *CookieWriter) Set(w http.ResponseWriter, role model.Role, accountID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     roleCookieName(role),
		Value:    accountID,
		Path:     "/",
		Domain:   c.config.Domain,
		MaxAge:   int(c.config.CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (c *CookieWriter) Clear(w http.ResponseWriter, role model.Role) {
	http.SetCookie(w, &http.Cookie{
		Name:     roleCookieName(role),
		Value:    "",
		Path:     "/",
		Domain:   c.config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// accountIDFromCookie resolves the signed-in account for the role, or an
// ErrAuth when the cookie is absent.
func accountIDFromCookie(r *http.Request, role model.Role) (string, error) {
	cookie, err := r.Cookie(roleCookieName(role))
	if err != nil || cookie.Value == "" {
		return "", fmt.Errorf("%w: not signed in", service.ErrAuth)
	}
	return cookie.Value, nil
}

func decodeBody(r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: invalid request body", service.ErrValidation)
	}
	return nil
}
