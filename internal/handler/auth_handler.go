package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"jobportal/internal/model"
	"jobportal/internal/service"
	"jobportal/internal/util"
)

// AuthHandler exposes the OTP-gated signup, password reset, and login routes
// for all three roles.
type AuthHandler struct {
	provisioning *service.ProvisioningService
	cookies      *CookieWriter
}

func NewAuthHandler(provisioning *service.ProvisioningService, cookies *CookieWriter) *AuthHandler {
	return &AuthHandler{
		provisioning: provisioning,
		cookies:      cookies,
	}
}

func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Post("/candidate-signup", h.requestSignupOtp(model.RoleCandidate))
	router.Post("/verify-candidate-otp", h.verifySignupOtp(model.RoleCandidate))
	router.Post("/employer-signup", h.requestSignupOtp(model.RoleEmployer))
	router.Post("/verify-employer-otp", h.verifySignupOtp(model.RoleEmployer))
	router.Post("/admin-signup", h.requestSignupOtp(model.RoleAdmin))
	router.Post("/verify-admin-otp", h.verifySignupOtp(model.RoleAdmin))

	router.Post("/candidate-request-otp", h.requestResetOtp(model.RoleCandidate))
	router.Post("/candidate-reset-password", h.resetPassword(model.RoleCandidate))
	router.Post("/employer-request-otp", h.requestResetOtp(model.RoleEmployer))
	router.Post("/employer-reset-password", h.resetPassword(model.RoleEmployer))
	router.Post("/admin-request-otp", h.requestResetOtp(model.RoleAdmin))
	router.Post("/admin-reset-password", h.resetPassword(model.RoleAdmin))

	router.Post("/candidate-login", h.login(model.RoleCandidate))
	router.Post("/employer-login", h.login(model.RoleEmployer))
	router.Post("/admin-login", h.login(model.RoleAdmin))
	router.Post("/logout", h.Logout)
}

type signupBody struct {
	Username string            `json:"username"`
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Phone    string            `json:"phone"`
	Category string            `json:"category"`
	Profile  map[string]string `json:"profile"`
	Otp      string            `json:"otp"`
}

func (b *signupBody) toRequest(role model.Role) *service.SignupRequest {
	return &service.SignupRequest{
		Role:     role,
		Username: util.SanitizeInput(b.Username),
		Email:    util.NormalizeEmail(b.Email),
		Password: b.Password,
		Phone:    util.SanitizeInput(b.Phone),
		Category: util.SanitizeInput(b.Category),
		Profile:  b.Profile,
	}
}

func (h *AuthHandler) requestSignupOtp(role model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body signupBody
		if err := decodeBody(r, &body); err != nil {
			respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
			return
		}

		if err := h.provisioning.RequestSignupOtp(r.Context(), body.toRequest(role)); err != nil {
			respondWithError(w, getStatusCode(err), err, "Failed to send verification code")
			return
		}
		respondWithJSON(w, http.StatusOK, successResponse(nil, "Verification code sent"))
	}
}

func (h *AuthHandler) verifySignupOtp(role model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body signupBody
		if err := decodeBody(r, &body); err != nil {
			respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
			return
		}

		acct, err := h.provisioning.VerifySignupOtp(r.Context(), body.toRequest(role), body.Otp)
		if err != nil {
			respondWithError(w, getStatusCode(err), err, "Verification failed")
			return
		}

		h.cookies.Set(w, role, acct.AccountID)
		respondWithJSON(w, http.StatusCreated, successResponse(map[string]string{
			"account_id": acct.AccountID,
		}, "Account created"))
	}
}

type resetBody struct {
	Email       string `json:"email"`
	Otp         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHandler) requestResetOtp(role model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body resetBody
		if err := decodeBody(r, &body); err != nil {
			respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
			return
		}

		err := h.provisioning.RequestPasswordResetOtp(r.Context(), role, util.NormalizeEmail(body.Email))
		if err != nil {
			respondWithError(w, getStatusCode(err), err, "Failed to send reset code")
			return
		}
		respondWithJSON(w, http.StatusOK, successResponse(nil, "Reset code sent"))
	}
}

func (h *AuthHandler) resetPassword(role model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body resetBody
		if err := decodeBody(r, &body); err != nil {
			respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
			return
		}

		err := h.provisioning.ResetPassword(r.Context(), role,
			util.NormalizeEmail(body.Email), body.Otp, body.NewPassword)
		if err != nil {
			respondWithError(w, getStatusCode(err), err, "Password reset failed")
			return
		}
		respondWithJSON(w, http.StatusOK, successResponse(nil, "Password updated"))
	}
}

type loginBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) login(role model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginBody
		if err := decodeBody(r, &body); err != nil {
			respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
			return
		}

		// Candidates and employers sign in by username, admins by email;
		// either field is accepted and the service routes the lookup.
		identity := util.SanitizeInput(body.Username)
		if identity == "" {
			identity = util.NormalizeEmail(body.Email)
		}
		acct, err := h.provisioning.Login(r.Context(), role, identity, body.Password)
		if err != nil {
			respondWithError(w, getStatusCode(err), err, "Login failed")
			return
		}

		h.cookies.Set(w, role, acct.AccountID)
		respondWithJSON(w, http.StatusOK, successResponse(map[string]string{
			"account_id": acct.AccountID,
			"username":   acct.Username,
		}, "Logged in"))
	}
}

// Logout clears every role cookie present on the request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, role := range []model.Role{model.RoleCandidate, model.RoleEmployer, model.RoleAdmin} {
		if _, err := r.Cookie(roleCookieName(role)); err == nil {
			h.cookies.Clear(w, role)
		}
	}
	respondWithJSON(w, http.StatusOK, successResponse(nil, "Logged out"))
}
