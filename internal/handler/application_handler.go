package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"jobportal/internal/model"
	"jobportal/internal/service"
)

type ApplicationHandler struct {
	applications *service.ApplicationService
}

func NewApplicationHandler(applications *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

func (h *ApplicationHandler) RegisterRoutes(router chi.Router) {
	router.Post("/apply-job", h.Apply)
	router.Get("/apply-job", h.ListMine)
	router.Get("/applications/{applicationID}", h.Get)
	router.Post("/withdraw-application/{applicationID}", h.Withdraw)
	router.Get("/job-applications/{jobID}", h.ListForJob)
}

type applyBody struct {
	JobID     string   `json:"job_id"`
	ResumeRef string   `json:"resume_ref"`
	VideoRefs []string `json:"video_refs"`
	CoverNote string   `json:"cover_note"`
}

func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	candidateID, err := accountIDFromCookie(r, model.RoleCandidate)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Not signed in")
		return
	}

	var body applyBody
	if err := decodeBody(r, &body); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	app, err := h.applications.Apply(r.Context(), candidateID, &model.Application{
		JobID:     body.JobID,
		ResumeRef: body.ResumeRef,
		VideoRefs: body.VideoRefs,
		CoverNote: body.CoverNote,
	})
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to submit application")
		return
	}
	respondWithJSON(w, http.StatusCreated, successResponse(map[string]string{
		"application_id": app.ApplicationID,
	}, "Application submitted"))
}

func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	candidateID, err := accountIDFromCookie(r, model.RoleCandidate)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Not signed in")
		return
	}

	apps, err := h.applications.ListForCandidate(r.Context(), candidateID)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to list applications")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(apps, "Applications retrieved"))
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	app, err := h.applications.Get(r.Context(), chi.URLParam(r, "applicationID"))
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to load application")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(app, "Application retrieved"))
}

func (h *ApplicationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	candidateID, err := accountIDFromCookie(r, model.RoleCandidate)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Not signed in")
		return
	}

	err = h.applications.Withdraw(r.Context(), candidateID, chi.URLParam(r, "applicationID"))
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to withdraw application")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(nil, "Application withdrawn"))
}

func (h *ApplicationHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	employerID, err := accountIDFromCookie(r, model.RoleEmployer)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Not signed in")
		return
	}

	apps, err := h.applications.ListForJob(r.Context(), employerID, chi.URLParam(r, "jobID"))
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to list applications")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(apps, "Applications retrieved"))
}
