// internal/registry/domain.go
package registry

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means no active member matches the given key.
	ErrNotFound = errors.New("member not found")
	// ErrConflict means a unique field (document number, phone, email) is
	// already registered.
	ErrConflict = errors.New("duplicate unique field")
	// ErrForbidden means the caller's scope does not cover the record.
	ErrForbidden = errors.New("record outside caller scope")
)

// Member is an active registry record. The document number is the member's
// stable external identity; edit flows may re-key it, subject to uniqueness.
type Member struct {
	ID                     uuid.UUID `json:"id"`
	FirstName              string    `json:"first_name"`
	LastName               string    `json:"last_name"`
	DateOfBirth            time.Time `json:"date_of_birth"`
	PlaceOfBirth           string    `json:"place_of_birth,omitempty"`
	JoinDateToOrganization time.Time `json:"join_date_to_organization"`
	JoinDateToCircle       time.Time `json:"join_date_to_circle"`
	IDDocumentNumber       string    `json:"id_document_number"`
	PhoneNumber            string    `json:"phone_number"`
	Email                  string    `json:"email"`
	Contribution           int       `json:"contribution"`
	Circle                 string    `json:"circle"`
	Region                 string    `json:"region"`
	MembershipFormScan     string    `json:"membership_form_scan,omitempty"`
	AdditionalFields       string    `json:"additional_fields,omitempty"`
}

// RegisterInput carries the fields required to create a member. Contribution
// is always computed, never supplied.
type RegisterInput struct {
	FirstName              string    `json:"first_name"`
	LastName               string    `json:"last_name"`
	DateOfBirth            time.Time `json:"date_of_birth"`
	PlaceOfBirth           string    `json:"place_of_birth"`
	JoinDateToOrganization time.Time `json:"join_date_to_organization"`
	JoinDateToCircle       time.Time `json:"join_date_to_circle"`
	IDDocumentNumber       string    `json:"id_document_number"`
	PhoneNumber            string    `json:"phone_number"`
	Email                  string    `json:"email"`
	Circle                 string    `json:"circle"`
	Region                 string    `json:"region"`
	MembershipFormScan     string    `json:"membership_form_scan"`
	AdditionalFields       string    `json:"additional_fields"`
}

// MemberPatch is a partial update; nil fields are left untouched.
type MemberPatch struct {
	FirstName              *string    `json:"first_name,omitempty"`
	LastName               *string    `json:"last_name,omitempty"`
	DateOfBirth            *time.Time `json:"date_of_birth,omitempty"`
	PlaceOfBirth           *string    `json:"place_of_birth,omitempty"`
	JoinDateToOrganization *time.Time `json:"join_date_to_organization,omitempty"`
	JoinDateToCircle       *time.Time `json:"join_date_to_circle,omitempty"`
	IDDocumentNumber       *string    `json:"id_document_number,omitempty"`
	PhoneNumber            *string    `json:"phone_number,omitempty"`
	Email                  *string    `json:"email,omitempty"`
	Contribution           *int       `json:"contribution,omitempty"`
	Circle                 *string    `json:"circle,omitempty"`
	Region                 *string    `json:"region,omitempty"`
	AdditionalFields       *string    `json:"additional_fields,omitempty"`
}
