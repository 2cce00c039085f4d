// internal/registry/handler.go
package registry

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

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

// Mount registers the member routes. The identity middleware has already
// resolved the caller's RoleDescriptor into the request context.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/members", h.handleRegister)
	r.Get("/members", h.handleList)
	r.Get("/members/{id}", h.handleGet)
	r.Patch("/members/{id}", h.handleUpdate)
	r.Get("/documents/{filename}", h.handleDocument)
}

const dateLayout = "2006-01-02"

type memberRequest struct {
	FirstName              string `json:"first_name"`
	LastName               string `json:"last_name"`
	DateOfBirth            string `json:"date_of_birth"`
	PlaceOfBirth           string `json:"place_of_birth"`
	JoinDateToOrganization string `json:"join_date_to_organization"`
	JoinDateToCircle       string `json:"join_date_to_circle"`
	IDDocumentNumber       string `json:"id_document_number"`
	PhoneNumber            string `json:"phone_number"`
	Email                  string `json:"email"`
	Circle                 string `json:"circle"`
	Region                 string `json:"region"`
	MembershipFormScan     string `json:"membership_form_scan"`
	AdditionalFields       string `json:"additional_fields"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	in := RegisterInput{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		PlaceOfBirth:       req.PlaceOfBirth,
		IDDocumentNumber:   req.IDDocumentNumber,
		PhoneNumber:        req.PhoneNumber,
		Email:              req.Email,
		Circle:             req.Circle,
		Region:             req.Region,
		MembershipFormScan: req.MembershipFormScan,
		AdditionalFields:   req.AdditionalFields,
	}
	var err error
	if in.DateOfBirth, err = parseDate(req.DateOfBirth); err != nil {
		http.Error(w, "invalid date_of_birth", http.StatusBadRequest)
		return
	}
	if in.JoinDateToOrganization, err = parseDate(req.JoinDateToOrganization); err != nil {
		http.Error(w, "invalid join_date_to_organization", http.StatusBadRequest)
		return
	}
	if in.JoinDateToCircle, err = parseDate(req.JoinDateToCircle); err != nil {
		http.Error(w, "invalid join_date_to_circle", http.StatusBadRequest)
		return
	}

	member, err := h.service.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(member)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.List(r.Context(), identity.Role(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if members == nil {
		members = []Member{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(members)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid member ID", http.StatusBadRequest)
		return
	}
	member, err := h.service.Get(r.Context(), identity.Role(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(member)
}

type patchRequest struct {
	FirstName              *string `json:"first_name"`
	LastName               *string `json:"last_name"`
	DateOfBirth            *string `json:"date_of_birth"`
	PlaceOfBirth           *string `json:"place_of_birth"`
	JoinDateToOrganization *string `json:"join_date_to_organization"`
	JoinDateToCircle       *string `json:"join_date_to_circle"`
	IDDocumentNumber       *string `json:"id_document_number"`
	PhoneNumber            *string `json:"phone_number"`
	Email                  *string `json:"email"`
	Contribution           *int    `json:"contribution"`
	Circle                 *string `json:"circle"`
	Region                 *string `json:"region"`
	AdditionalFields       *string `json:"additional_fields"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid member ID", http.StatusBadRequest)
		return
	}

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	patch := MemberPatch{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		PlaceOfBirth:     req.PlaceOfBirth,
		IDDocumentNumber: req.IDDocumentNumber,
		PhoneNumber:      req.PhoneNumber,
		Email:            req.Email,
		Contribution:     req.Contribution,
		Circle:           req.Circle,
		Region:           req.Region,
		AdditionalFields: req.AdditionalFields,
	}
	for _, d := range []struct {
		src string
		in  *string
		out **time.Time
	}{
		{"date_of_birth", req.DateOfBirth, &patch.DateOfBirth},
		{"join_date_to_organization", req.JoinDateToOrganization, &patch.JoinDateToOrganization},
		{"join_date_to_circle", req.JoinDateToCircle, &patch.JoinDateToCircle},
	} {
		if d.in == nil {
			continue
		}
		t, err := parseDate(*d.in)
		if err != nil {
			http.Error(w, "invalid "+d.src, http.StatusBadRequest)
			return
		}
		*d.out = &t
	}

	member, err := h.service.Update(r.Context(), identity.Role(r.Context()), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(member)
}

// handleDocument answers the authorization question only; serving file bytes
// belongs to the upload storage outside this service.
func (h *Handler) handleDocument(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if err := h.service.AuthorizeDocument(r.Context(), identity.Role(r.Context()), filename); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"filename": filename, "access": "granted"})
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func writeError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &validationErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
