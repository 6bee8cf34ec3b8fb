package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"jobportal/internal/model"
	"jobportal/internal/service"
)

// AccountHandler serves profile reads and updates for signed-in candidates
// and employers, plus the employer delete cascade.
type AccountHandler struct {
	accounts *service.AccountService
	jobs     *service.JobService
	resumes  *service.ResumeService
	cookies  *CookieWriter
}

func NewAccountHandler(
	accounts *service.AccountService,
	jobs *service.JobService,
	resumes *service.ResumeService,
	cookies *CookieWriter,
) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		jobs:     jobs,
		resumes:  resumes,
		cookies:  cookies,
	}
}

func (h *AccountHandler) RegisterRoutes(router chi.Router) {
	router.Get("/get-candidate-info", h.getInfo(model.RoleCandidate))
	router.Post("/update-candidate-info", h.updateInfo(model.RoleCandidate))
	router.Get("/get-employer-info", h.getInfo(model.RoleEmployer))
	router.Post("/update-employer-info", h.updateInfo(model.RoleEmployer))

	router.Post("/update-password", h.UpdatePassword)
	router.Post("/delete-profile", h.DeleteProfile)

	router.Get("/resume", h.GetResume)
	router.Post("/resume", h.UpdateResume)
}

func (h *AccountHandler) getInfo(role model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := accountIDFromCookie(r, role)
		if err != nil {
			respondWithError(w, getStatusCode(err), err, "Not signed in")
			return
		}

		info, err := h.accounts.GetInfo(r.Context(), role, accountID)
		if err != nil {
			respondWithError(w, getStatusCode(err), err, "Failed to load profile")
			return
		}
		respondWithJSON(w, http.StatusOK, successResponse(info, "Profile retrieved"))
	}
}

func (h *AccountHandler) updateInfo(role model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := accountIDFromCookie(r, role)
		if err != nil {
			respondWithError(w, getStatusCode(err), err, "Not signed in")
			return
		}

		var updates map[string]string
		if err := decodeBody(r, &updates); err != nil {
			respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
			return
		}

		if err := h.accounts.UpdateProfile(r.Context(), role, accountID, updates); err != nil {
			respondWithError(w, getStatusCode(err), err, "Failed to update profile")
			return
		}
		respondWithJSON(w, http.StatusOK, successResponse(nil, "Profile updated"))
	}
}

type updatePasswordBody struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// UpdatePassword works for whichever role cookie is present.
func (h *AccountHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	role, accountID, err := anyRoleFromCookies(r)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Not signed in")
		return
	}

	var body updatePasswordBody
	if err := decodeBody(r, &body); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	err = h.accounts.UpdatePassword(r.Context(), role, accountID,
		body.CurrentPassword, body.NewPassword, body.ConfirmPassword)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to update password")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(nil, "Password updated"))
}

// DeleteProfile removes the signed-in account. Employer deletion cascades to
// the employer's postings and their search documents, then the cookie is
// cleared.
func (h *AccountHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	role, accountID, err := anyRoleFromCookies(r)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Not signed in")
		return
	}

	deletedJobs, err := h.accounts.DeleteProfile(r.Context(), role, accountID)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to delete profile")
		return
	}
	h.jobs.RemoveFromIndex(r.Context(), deletedJobs)

	h.cookies.Clear(w, role)
	respondWithJSON(w, http.StatusOK, successResponse(map[string]int{
		"deleted_jobs": len(deletedJobs),
	}, "Profile deleted"))
}

func (h *AccountHandler) GetResume(w http.ResponseWriter, r *http.Request) {
	candidateID, err := accountIDFromCookie(r, model.RoleCandidate)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Not signed in")
		return
	}

	resume, err := h.resumes.Get(r.Context(), candidateID)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to load resume")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(resume, "Resume retrieved"))
}

func (h *AccountHandler) UpdateResume(w http.ResponseWriter, r *http.Request) {
	candidateID, err := accountIDFromCookie(r, model.RoleCandidate)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Not signed in")
		return
	}

	var update model.Resume
	if err := decodeBody(r, &update); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	resume, err := h.resumes.Update(r.Context(), candidateID, &update)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to update resume")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(resume, "Resume updated"))
}

// anyRoleFromCookies returns the first role cookie found on the request.
func anyRoleFromCookies(r *http.Request) (model.Role, string, error) {
	for _, role := range []model.Role{model.RoleCandidate, model.RoleEmployer, model.RoleAdmin} {
		if accountID, err := accountIDFromCookie(r, role); err == nil {
			return role, accountID, nil
		}
	}
	return "", "", fmt.Errorf("%w: not signed in", service.ErrAuth)
}
