package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"jobportal/internal/model"
	"jobportal/internal/service"
)

// AdminHandler serves the dashboard routes. Every route requires the admin
// role cookie.
type AdminHandler struct {
	stats *service.StatsService
}

func NewAdminHandler(stats *service.StatsService) *AdminHandler {
	return &AdminHandler{stats: stats}
}

func (h *AdminHandler) RegisterRoutes(router chi.Router) {
	router.Get("/admin/stats", h.Stats)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if _, err := accountIDFromCookie(r, model.RoleAdmin); err != nil {
		respondWithError(w, getStatusCode(err), err, "Not signed in")
		return
	}

	stats, err := h.stats.Portal(r.Context())
	if err != nil {
		respondWithError(w, getStatusCode(err), err, "Failed to load stats")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(stats, "Stats retrieved"))
}
