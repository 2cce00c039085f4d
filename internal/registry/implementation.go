// internal/registry/implementation.go
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"rejestr/internal/dues"
	"rejestr/internal/roles"
	"rejestr/internal/scoping"
)

// ArchiveSearcher locates an archived member by document number so document
// downloads for banned or deleted members stay authorized the same way.
type ArchiveSearcher interface {
	FindByDocumentNumber(ctx context.Context, documentNumber string) (region, circle string, err error)
}

// service implements the Service interface.
type service struct {
	store       *Store
	dues        *dues.Engine
	archive     ArchiveSearcher
	rateLimiter *rate.Limiter
}

// NewService creates a new registry service instance.
func NewService(store *Store, engine *dues.Engine, archive ArchiveSearcher) Service {
	return &service{
		store:       store,
		dues:        engine,
		archive:     archive,
		rateLimiter: rate.NewLimiter(rate.Every(1*time.Minute), 5), // 5 registrations per minute
	}
}

// Register validates the input, pre-checks the unique fields, computes the
// initial contribution and inserts the member.
func (s *service) Register(ctx context.Context, in RegisterInput) (*Member, error) {
	if !s.rateLimiter.Allow() {
		return nil, fmt.Errorf("rate limit exceeded")
	}
	if err := validateRegisterInput(in); err != nil {
		return nil, err
	}

	uniques := []struct{ column, value string }{
		{"id_document_number", in.IDDocumentNumber},
		{"phone_number", in.PhoneNumber},
		{"email", in.Email},
	}
	for _, u := range uniques {
		taken, err := s.store.UniqueFieldTaken(ctx, u.column, u.value)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%s already registered: %w", u.column, ErrConflict)
		}
	}

	member := &Member{
		ID:                     uuid.New(),
		FirstName:              in.FirstName,
		LastName:               in.LastName,
		DateOfBirth:            in.DateOfBirth,
		PlaceOfBirth:           in.PlaceOfBirth,
		JoinDateToOrganization: in.JoinDateToOrganization,
		JoinDateToCircle:       in.JoinDateToCircle,
		IDDocumentNumber:       in.IDDocumentNumber,
		PhoneNumber:            in.PhoneNumber,
		Email:                  in.Email,
		Circle:                 in.Circle,
		Region:                 in.Region,
		MembershipFormScan:     in.MembershipFormScan,
		AdditionalFields:       in.AdditionalFields,
	}
	member.Contribution = s.dues.Accrue(
		member.JoinDateToOrganization, member.DateOfBirth, currentMonthStart())

	if err := s.store.Insert(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// Get returns a single member, fail-closed: records outside the caller's
// scope read as forbidden.
func (s *service) Get(ctx context.Context, caller roles.RoleDescriptor, id uuid.UUID) (*Member, error) {
	member, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scoping.Visible(caller, member.Region, member.Circle) {
		return nil, ErrForbidden
	}
	return member, nil
}

// List returns exactly the subset of members the caller may see.
func (s *service) List(ctx context.Context, caller roles.RoleDescriptor) ([]Member, error) {
	members, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return scoping.Members(caller, members, func(m Member) (string, string) {
		return m.Region, m.Circle
	}), nil
}

// Update applies a partial edit. The scope predicate runs against the stored
// record before any field changes; auditors and out-of-scope callers are
// rejected.
func (s *service) Update(ctx context.Context, caller roles.RoleDescriptor, id uuid.UUID, patch MemberPatch) (*Member, error) {
	member, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scoping.AllowsMutation(caller, member.Region, member.Circle) {
		return nil, ErrForbidden
	}

	if err := applyPatch(member, patch); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func applyPatch(m *Member, p MemberPatch) error {
	if p.Email != nil {
		if err := validateEmail(*p.Email); err != nil {
			return err
		}
		m.Email = *p.Email
	}
	if p.PhoneNumber != nil {
		if err := validatePhone(*p.PhoneNumber); err != nil {
			return err
		}
		m.PhoneNumber = *p.PhoneNumber
	}
	if p.IDDocumentNumber != nil {
		if err := validateDocumentNumber(*p.IDDocumentNumber); err != nil {
			return err
		}
		m.IDDocumentNumber = *p.IDDocumentNumber
	}
	if p.FirstName != nil {
		m.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		m.LastName = *p.LastName
	}
	if p.DateOfBirth != nil {
		m.DateOfBirth = *p.DateOfBirth
	}
	if p.PlaceOfBirth != nil {
		m.PlaceOfBirth = *p.PlaceOfBirth
	}
	if p.JoinDateToOrganization != nil {
		m.JoinDateToOrganization = *p.JoinDateToOrganization
	}
	if p.JoinDateToCircle != nil {
		m.JoinDateToCircle = *p.JoinDateToCircle
	}
	if m.JoinDateToCircle.Before(m.JoinDateToOrganization) {
		return invalid("join_date_to_circle", "precedes join date to organization")
	}
	if p.Contribution != nil {
		m.Contribution = *p.Contribution
	}
	if p.Circle != nil {
		m.Circle = *p.Circle
	}
	if p.Region != nil {
		m.Region = *p.Region
	}
	if p.AdditionalFields != nil {
		m.AdditionalFields = *p.AdditionalFields
	}
	return nil
}

// AuthorizeDocument checks document-download access. Scanned documents are
// named after the owning member's document number; the owner may be active or
// archived.
func (s *service) AuthorizeDocument(ctx context.Context, caller roles.RoleDescriptor, filename string) error {
	documentNumber, _, _ := strings.Cut(filename, ".")
	if documentNumber == "" {
		return invalid("filename", "missing document number")
	}

	region, circle := "", ""
	member, err := s.store.GetByDocumentNumber(ctx, documentNumber)
	switch {
	case err == nil:
		region, circle = member.Region, member.Circle
	case errors.Is(err, ErrNotFound) && s.archive != nil:
		region, circle, err = s.archive.FindByDocumentNumber(ctx, documentNumber)
		if err != nil {
			return fmt.Errorf("no member owns document %s: %w", documentNumber, ErrNotFound)
		}
	default:
		return err
	}

	if !scoping.CanFetchDocument(caller, region, circle) {
		return ErrForbidden
	}
	return nil
}

func currentMonthStart() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
