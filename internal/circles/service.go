// internal/circles/service.go
package circles

import (
	"context"

	"github.com/google/uuid"

	"rejestr/internal/roles"
)

// Service administers the circle catalog. Create, Update and Delete are
// reserved for national administrators; List is filtered to the caller's
// scope.
type Service interface {
	Create(ctx context.Context, caller roles.RoleDescriptor, name, region string) (*Circle, error)
	List(ctx context.Context, caller roles.RoleDescriptor) ([]Circle, error)
	Update(ctx context.Context, caller roles.RoleDescriptor, id uuid.UUID, patch CirclePatch) (*Circle, error)
	Delete(ctx context.Context, caller roles.RoleDescriptor, id uuid.UUID) error
}
