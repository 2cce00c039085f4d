// internal/lifecycle/handler.go
package lifecycle

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"rejestr/internal/archive"
	"rejestr/internal/identity"
	"rejestr/internal/registry"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Mount(r chi.Router) {
	r.Post("/members/{id}/ban", h.handleBan)
	r.Delete("/members/{id}", h.handleDelete)
	r.Post("/members/{id}/restore", h.handleRestore)
	r.Get("/archive/{kind}", h.handleList)
	r.Delete("/archive/{kind}/{id}", h.handlePurge)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleBan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid member ID", http.StatusBadRequest)
		return
	}
	var req reasonRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req) // reason is optional
	}

	if err := h.service.Ban(r.Context(), identity.Role(r.Context()), id, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "banned"})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid member ID", http.StatusBadRequest)
		return
	}
	var req reasonRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.service.Delete(r.Context(), identity.Role(r.Context()), id, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid member ID", http.StatusBadRequest)
		return
	}

	member, err := h.service.Restore(r.Context(), identity.Role(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(member)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	kind := archive.Kind(chi.URLParam(r, "kind"))
	records, err := h.service.ListArchived(r.Context(), identity.Role(r.Context()), kind)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []archive.Record{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid record ID", http.StatusBadRequest)
		return
	}
	kind := archive.Kind(chi.URLParam(r, "kind"))

	if err := h.service.Purge(r.Context(), identity.Role(r.Context()), kind, id); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "purged"})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, archive.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, registry.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, archive.ErrAlreadyHeld), errors.Is(err, registry.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
