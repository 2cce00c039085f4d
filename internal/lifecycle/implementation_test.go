// internal/lifecycle/implementation_test.go
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rejestr/internal/archive"
	"rejestr/internal/registry"
	"rejestr/internal/roles"
)

type fakeActiveStore struct {
	mu        sync.Mutex
	members   map[uuid.UUID]registry.Member
	failOnDel bool
	failOnIns bool
}

func newFakeActiveStore() *fakeActiveStore {
	return &fakeActiveStore{members: make(map[uuid.UUID]registry.Member)}
}

func (f *fakeActiveStore) Get(_ context.Context, id uuid.UUID) (*registry.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[id]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return &m, nil
}

func (f *fakeActiveStore) Insert(_ context.Context, m *registry.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOnIns {
		return errors.New("insert failure injected")
	}
	f.members[m.ID] = *m
	return nil
}

func (f *fakeActiveStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOnDel {
		return errors.New("delete failure injected")
	}
	if _, ok := f.members[id]; !ok {
		return registry.ErrNotFound
	}
	delete(f.members, id)
	return nil
}

type fakeArchive struct {
	mu      sync.Mutex
	records map[archive.Kind][]archive.Record
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{records: make(map[archive.Kind][]archive.Record)}
}

func (f *fakeArchive) Append(_ context.Context, rec archive.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records[rec.Kind] {
		if r.ID == rec.ID {
			return archive.ErrAlreadyHeld
		}
	}
	f.records[rec.Kind] = append(f.records[rec.Kind], rec)
	return nil
}

func (f *fakeArchive) List(_ context.Context, kind archive.Kind) ([]archive.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]archive.Record(nil), f.records[kind]...), nil
}

func (f *fakeArchive) Take(_ context.Context, kind archive.Kind, id uuid.UUID) (*archive.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records[kind] {
		if r.ID == id {
			f.records[kind] = append(f.records[kind][:i], f.records[kind][i+1:]...)
			return &r, nil
		}
	}
	return nil, archive.ErrNotFound
}

func (f *fakeArchive) Remove(_ context.Context, kind archive.Kind, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records[kind] {
		if r.ID == id {
			f.records[kind] = append(f.records[kind][:i], f.records[kind][i+1:]...)
			return nil
		}
	}
	return archive.ErrNotFound
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testMember() registry.Member {
	return registry.Member{
		ID:                     uuid.New(),
		FirstName:              "Anna",
		LastName:               "Kowalska",
		DateOfBirth:            date(2000, time.June, 1),
		PlaceOfBirth:           "Płock",
		JoinDateToOrganization: date(2025, time.January, 15),
		JoinDateToCircle:       date(2025, time.February, 1),
		IDDocumentNumber:       "00060112345",
		PhoneNumber:            "+48500100200",
		Email:                  "anna.kowalska@example.com",
		Contribution:           30,
		Circle:                 "Koło Płock",
		Region:                 "Mazowieckie",
		AdditionalFields:       "vegetarian catering",
	}
}

var admin = roles.RoleDescriptor{Tier: roles.TierNationalAdmin}

func newTestService(store *fakeActiveStore, arch *fakeArchive) Service {
	return NewService(store, arch, nil)
}

func TestBanThenRestoreRoundTrips(t *testing.T) {
	store := newFakeActiveStore()
	arch := newFakeArchive()
	svc := newTestService(store, arch)
	ctx := context.Background()

	m := testMember()
	require.NoError(t, store.Insert(ctx, &m))

	require.NoError(t, svc.Ban(ctx, admin, m.ID, "statute violation"))

	// The member left the active store and sits in the banned archive with
	// the reason attached.
	_, err := store.Get(ctx, m.ID)
	assert.ErrorIs(t, err, registry.ErrNotFound)
	banned, err := arch.List(ctx, archive.KindBanned)
	require.NoError(t, err)
	require.Len(t, banned, 1)
	assert.Equal(t, "statute violation", banned[0].Reason)
	assert.False(t, banned[0].ArchivedAt.IsZero())

	restored, err := svc.Restore(ctx, admin, m.ID)
	require.NoError(t, err)

	// Restore reproduces the original record exactly, id included.
	wantJSON, err := json.Marshal(m)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(restored)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))

	// And the archive no longer holds it.
	banned, err = arch.List(ctx, archive.KindBanned)
	require.NoError(t, err)
	assert.Empty(t, banned)
}

func TestDeleteHasNoRestorePath(t *testing.T) {
	store := newFakeActiveStore()
	arch := newFakeArchive()
	svc := newTestService(store, arch)
	ctx := context.Background()

	m := testMember()
	require.NoError(t, store.Insert(ctx, &m))
	require.NoError(t, svc.Delete(ctx, admin, m.ID, "left the organization"))

	// Restore only searches the banned archive.
	_, err := svc.Restore(ctx, admin, m.ID)
	assert.ErrorIs(t, err, archive.ErrNotFound)

	deleted, err := arch.List(ctx, archive.KindDeleted)
	require.NoError(t, err)
	assert.Len(t, deleted, 1)
}

func TestBanRequiresScope(t *testing.T) {
	store := newFakeActiveStore()
	arch := newFakeArchive()
	svc := newTestService(store, arch)
	ctx := context.Background()

	m := testMember() // Mazowieckie
	require.NoError(t, store.Insert(ctx, &m))

	otherRegion := roles.RoleDescriptor{Tier: roles.TierRegionalAdmin, Region: "pomorskie"}
	assert.ErrorIs(t, svc.Ban(ctx, otherRegion, m.ID, ""), registry.ErrForbidden)

	auditor := roles.RoleDescriptor{Tier: roles.TierRegionalAuditor, Region: "mazowieckie"}
	assert.ErrorIs(t, svc.Delete(ctx, auditor, m.ID, ""), registry.ErrForbidden)

	sameRegion := roles.RoleDescriptor{Tier: roles.TierRegionalAdmin, Region: "mazowieckie"}
	assert.NoError(t, svc.Ban(ctx, sameRegion, m.ID, ""))
}

func TestBanMissingMember(t *testing.T) {
	svc := newTestService(newFakeActiveStore(), newFakeArchive())
	err := svc.Ban(context.Background(), admin, uuid.New(), "")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestBanCompensatesWhenRemovalFails(t *testing.T) {
	store := newFakeActiveStore()
	arch := newFakeArchive()
	svc := newTestService(store, arch)
	ctx := context.Background()

	m := testMember()
	require.NoError(t, store.Insert(ctx, &m))
	store.failOnDel = true

	require.Error(t, svc.Ban(ctx, admin, m.ID, ""))

	// The snapshot must not linger in the archive while the member is still
	// active.
	banned, err := arch.List(ctx, archive.KindBanned)
	require.NoError(t, err)
	assert.Empty(t, banned)
	_, err = store.Get(ctx, m.ID)
	assert.NoError(t, err)
}

func TestRestoreCompensatesWhenInsertFails(t *testing.T) {
	store := newFakeActiveStore()
	arch := newFakeArchive()
	svc := newTestService(store, arch)
	ctx := context.Background()

	m := testMember()
	require.NoError(t, store.Insert(ctx, &m))
	require.NoError(t, svc.Ban(ctx, admin, m.ID, "reason"))

	store.failOnIns = true
	_, err := svc.Restore(ctx, admin, m.ID)
	require.Error(t, err)

	// The snapshot went back into the archive.
	banned, err := arch.List(ctx, archive.KindBanned)
	require.NoError(t, err)
	assert.Len(t, banned, 1)
}

func TestPurge(t *testing.T) {
	store := newFakeActiveStore()
	arch := newFakeArchive()
	svc := newTestService(store, arch)
	ctx := context.Background()

	m := testMember()
	require.NoError(t, store.Insert(ctx, &m))
	require.NoError(t, svc.Delete(ctx, admin, m.ID, ""))

	// Purging an absent id fails and leaves the collection unchanged.
	assert.ErrorIs(t, svc.Purge(ctx, admin, archive.KindDeleted, uuid.New()), archive.ErrNotFound)
	deleted, err := arch.List(ctx, archive.KindDeleted)
	require.NoError(t, err)
	assert.Len(t, deleted, 1)

	require.NoError(t, svc.Purge(ctx, admin, archive.KindDeleted, m.ID))
	deleted, err = arch.List(ctx, archive.KindDeleted)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestArchiveAdministrationRequiresNationalAdmin(t *testing.T) {
	store := newFakeActiveStore()
	arch := newFakeArchive()
	svc := newTestService(store, arch)
	ctx := context.Background()

	regional := roles.RoleDescriptor{Tier: roles.TierRegionalAdmin, Region: "mazowieckie"}

	_, err := svc.Restore(ctx, regional, uuid.New())
	assert.ErrorIs(t, err, registry.ErrForbidden)
	assert.ErrorIs(t, svc.Purge(ctx, regional, archive.KindBanned, uuid.New()), registry.ErrForbidden)
	_, err = svc.ListArchived(ctx, regional, archive.KindBanned)
	assert.ErrorIs(t, err, registry.ErrForbidden)
}
