// internal/lifecycle/implementation.go
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rejestr/internal/archive"
	"rejestr/internal/registry"
	"rejestr/internal/roles"
	"rejestr/internal/scoping"
)

// service implements the Service interface.
type service struct {
	store   ActiveStore
	archive Archive
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new lifecycle service instance.
func NewService(store ActiveStore, arch Archive, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		store:   store,
		archive: arch,
		logger:  logger,
		now:     time.Now,
	}
}

// Ban moves an active member into the banned archive.
func (s *service) Ban(ctx context.Context, caller roles.RoleDescriptor, id uuid.UUID, reason string) error {
	return s.retire(ctx, caller, id, reason, archive.KindBanned)
}

// Delete moves an active member into the deleted archive. There is no restore
// path out of it; only purge.
func (s *service) Delete(ctx context.Context, caller roles.RoleDescriptor, id uuid.UUID, reason string) error {
	return s.retire(ctx, caller, id, reason, archive.KindDeleted)
}

// retire snapshots the member into the archive and then removes the active
// record. If the removal fails, the archived snapshot is taken back out so
// the member is never in both stores.
func (s *service) retire(ctx context.Context, caller roles.RoleDescriptor, id uuid.UUID, reason string, kind archive.Kind) error {
	member, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load member: %w", err)
	}
	if !scoping.AllowsMutation(caller, member.Region, member.Circle) {
		return registry.ErrForbidden
	}

	snapshot, err := json.Marshal(member)
	if err != nil {
		return fmt.Errorf("snapshot member: %w", err)
	}

	rec := archive.Record{
		ID:         member.ID,
		Kind:       kind,
		Snapshot:   snapshot,
		Reason:     reason,
		ArchivedAt: s.now().UTC(),
	}
	if err := s.archive.Append(ctx, rec); err != nil {
		return fmt.Errorf("archive member: %w", err)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Warn("compensating failed retirement",
			"member_id", id, "archive_kind", string(kind), "error", err)
		if _, takeErr := s.archive.Take(ctx, kind, id); takeErr != nil {
			s.logger.Error("failed to compensate archive append",
				"member_id", id, "archive_kind", string(kind), "error", takeErr)
		}
		return fmt.Errorf("remove active member: %w", err)
	}
	return nil
}

// Restore claims a snapshot from the banned archive and re-creates the active
// member with the original id and fields. Deleted records have no restore
// path.
func (s *service) Restore(ctx context.Context, caller roles.RoleDescriptor, id uuid.UUID) (*registry.Member, error) {
	if caller.Tier != roles.TierNationalAdmin {
		return nil, registry.ErrForbidden
	}

	rec, err := s.archive.Take(ctx, archive.KindBanned, id)
	if err != nil {
		return nil, err
	}

	var member registry.Member
	if err := json.Unmarshal(rec.Snapshot, &member); err != nil {
		// Put the snapshot back; a corrupt record must not vanish.
		if appendErr := s.archive.Append(ctx, *rec); appendErr != nil {
			s.logger.Error("failed to return corrupt snapshot to archive",
				"member_id", id, "error", appendErr)
		}
		return nil, fmt.Errorf("decode archived snapshot: %w", err)
	}

	if err := s.store.Insert(ctx, &member); err != nil {
		if appendErr := s.archive.Append(ctx, *rec); appendErr != nil {
			s.logger.Error("failed to compensate archive take",
				"member_id", id, "error", appendErr)
		}
		return nil, fmt.Errorf("re-create active member: %w", err)
	}
	return &member, nil
}

// Purge removes a snapshot permanently from either archive.
func (s *service) Purge(ctx context.Context, caller roles.RoleDescriptor, kind archive.Kind, id uuid.UUID) error {
	if caller.Tier != roles.TierNationalAdmin {
		return registry.ErrForbidden
	}
	return s.archive.Remove(ctx, kind, id)
}

// ListArchived returns a collection's snapshots for the admin panel.
func (s *service) ListArchived(ctx context.Context, caller roles.RoleDescriptor, kind archive.Kind) ([]archive.Record, error) {
	if caller.Tier != roles.TierNationalAdmin {
		return nil, registry.ErrForbidden
	}
	return s.archive.List(ctx, kind)
}
