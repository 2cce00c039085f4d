// internal/registry/service.go
package registry

import (
	"context"

	"github.com/google/uuid"

	"rejestr/internal/roles"
)

// Service defines the member registry operations. Every multi-record read and
// every record-level mutation is scoped by the caller's RoleDescriptor.
type Service interface {
	Register(ctx context.Context, in RegisterInput) (*Member, error)
	Get(ctx context.Context, caller roles.RoleDescriptor, id uuid.UUID) (*Member, error)
	List(ctx context.Context, caller roles.RoleDescriptor) ([]Member, error)
	Update(ctx context.Context, caller roles.RoleDescriptor, id uuid.UUID, patch MemberPatch) (*Member, error)
	// AuthorizeDocument decides whether the caller may download the scanned
	// document with the given filename (the document number plus extension).
	AuthorizeDocument(ctx context.Context, caller roles.RoleDescriptor, filename string) error
}
