package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"jobportal/internal/model"
	"jobportal/internal/service"
)

// JobHandler serves the posting lifecycle and the public browse/search
// routes.
type JobHandler struct {
	jobs *service.JobService
}

func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

func (h *JobHandler) RegisterRoutes(router chi.Router) {
	router.Post("/post-job", h.Create)
	router.Get("/post-job", h.ListMine)
	router.Get("/post-job/{jobID}", h.Get)
	router.Post("/delete-job/{jobID}", h.Delete)
	router.Get("/latest-jobs", h.Latest)
	router.Get("/job-categories", h.Categories)
	router.Get("/jobs/search", h.Search)
}

func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	employerID, err := accountIDFromCookie(r, model.RoleEmployer)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Not signed in")
		return
	}

	var job model.JobPosting
	if err := decodeBody(r, &job); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	created, err := h.jobs.Create(r.Context(), employerID, &job)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to create posting")
		return
	}
	respondWithJSON(w, http.StatusCreated, successResponse(map[string]string{
		"job_id": created.JobID,
	}, "Posting created"))
}

func (h *JobHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	employerID, err := accountIDFromCookie(r, model.RoleEmployer)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Not signed in")
		return
	}

	jobs, err := h.jobs.ListByEmployer(r.Context(), employerID)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to list postings")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(jobs, "Postings retrieved"))
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to load posting")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(job, "Posting retrieved"))
}

func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	employerID, err := accountIDFromCookie(r, model.RoleEmployer)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Not signed in")
		return
	}

	if err := h.jobs.Delete(r.Context(), employerID, chi.URLParam(r, "jobID")); err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to delete posting")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(nil, "Posting deleted"))
}

func (h *JobHandler) Latest(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.Latest(r.Context(), 20)
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to list postings")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(jobs, "Postings retrieved"))
}

func (h *JobHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.jobs.Categories(r.Context())
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to list categories")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(categories, "Categories retrieved"))
}

func (h *JobHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jobs, err := h.jobs.Search(r.Context(),
		q.Get("q"), q.Get("category"), q.Get("city"), q.Get("limit"))
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Search failed")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(jobs, "Search results"))
}
