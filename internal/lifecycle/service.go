// internal/lifecycle/service.go

// Package lifecycle governs the member state machine: Active records move
// into the banned or deleted archive, banned records can be restored, and
// archived records can be purged for good.
package lifecycle

import (
	"context"

	"github.com/google/uuid"

	"rejestr/internal/archive"
	"rejestr/internal/registry"
	"rejestr/internal/roles"
)

// ActiveStore is the active member collection as the state machine sees it.
type ActiveStore interface {
	Get(ctx context.Context, id uuid.UUID) (*registry.Member, error)
	Insert(ctx context.Context, m *registry.Member) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Archive is the durable snapshot store for the banned and deleted
// collections.
type Archive interface {
	Append(ctx context.Context, rec archive.Record) error
	List(ctx context.Context, kind archive.Kind) ([]archive.Record, error)
	Take(ctx context.Context, kind archive.Kind, id uuid.UUID) (*archive.Record, error)
	Remove(ctx context.Context, kind archive.Kind, id uuid.UUID) error
}

// Service defines the lifecycle transitions. Ban and Delete require the
// caller's scope to cover the member; Restore, Purge and ListArchived are
// national-administrator operations.
type Service interface {
	Ban(ctx context.Context, caller roles.RoleDescriptor, id uuid.UUID, reason string) error
	Delete(ctx context.Context, caller roles.RoleDescriptor, id uuid.UUID, reason string) error
	Restore(ctx context.Context, caller roles.RoleDescriptor, id uuid.UUID) (*registry.Member, error)
	Purge(ctx context.Context, caller roles.RoleDescriptor, kind archive.Kind, id uuid.UUID) error
	ListArchived(ctx context.Context, caller roles.RoleDescriptor, kind archive.Kind) ([]archive.Record, error)
}
