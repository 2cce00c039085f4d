// internal/scheduler/handler.go
package scheduler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rejestr/internal/identity"
	"rejestr/internal/roles"
)

type Handler struct {
	scheduler *Scheduler
}

func NewHandler(s *Scheduler) *Handler {
	return &Handler{scheduler: s}
}

// Mount registers the manual-trigger route.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/recalculate", h.handleRecalculate)
}

func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	if identity.Role(r.Context()).Tier != roles.TierNationalAdmin {
		http.Error(w, "operation not permitted for role", http.StatusForbidden)
		return
	}

	updated, err := h.scheduler.RecalculateAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"members_updated": updated})
}
