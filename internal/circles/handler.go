// internal/circles/handler.go
package circles

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"rejestr/internal/identity"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Mount registers the circle routes.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/circles", h.handleCreate)
	r.Get("/circles", h.handleList)
	r.Patch("/circles/{id}", h.handleUpdate)
	r.Delete("/circles/{id}", h.handleDelete)
}

type circleRequest struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req circleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	circle, err := h.service.Create(r.Context(), identity.Role(r.Context()), req.Name, req.Region)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(circle)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context(), identity.Role(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []Circle{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid circle ID", http.StatusBadRequest)
		return
	}

	var patch CirclePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	circle, err := h.service.Update(r.Context(), identity.Role(r.Context()), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(circle)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid circle ID", http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), identity.Role(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
