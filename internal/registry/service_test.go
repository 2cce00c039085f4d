// internal/registry/service_test.go
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rejestr/internal/dues"
	"rejestr/internal/roles"
)

func setupTestDB(t testing.TB) *sql.DB {
	t.Helper()

	env := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		env("PGHOST", "localhost"), env("PGPORT", "5432"),
		env("PGUSER", "user"), env("PGPASSWORD", "password"), env("PGDATABASE", "testdb"))

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database connection: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("skipping registry tests: could not connect to postgres: %v", err)
	}

	return db
}

func setupService(t *testing.T) (Service, *Store) {
	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	store := NewStore(db)
	require.NoError(t, store.EnsureSchema(context.Background()))
	_, err := db.Exec("TRUNCATE TABLE members")
	require.NoError(t, err)

	engine := dues.NewEngine(date(2025, time.January, 1), dues.DefaultRates())
	return NewService(store, engine, nil), store
}

var admin = roles.RoleDescriptor{Tier: roles.TierNationalAdmin}

func TestRegisterComputesContribution(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	member, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	assert.NotEqual(t, member.ID.String(), "00000000-0000-0000-0000-000000000000")
	// The join date is in the past, so at least one monthly rate accrued.
	assert.Positive(t, member.Contribution)

	got, err := svc.Get(ctx, admin, member.ID)
	require.NoError(t, err)
	assert.Equal(t, member.Contribution, got.Contribution)
}

func TestRegisterUniqueFields(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	dup := validInput()
	dup.PhoneNumber = "+48700300400"
	dup.Email = "other@example.com"
	_, err = svc.Register(ctx, dup)
	assert.ErrorIs(t, err, ErrConflict)

	dup = validInput()
	dup.IDDocumentNumber = "99010154321"
	dup.PhoneNumber = "+48700300400"
	_, err = svc.Register(ctx, dup)
	assert.ErrorIs(t, err, ErrConflict, "duplicate email")
}

func TestGetFailsClosed(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	member, err := svc.Register(ctx, validInput()) // Mazowieckie
	require.NoError(t, err)

	otherRegion := roles.RoleDescriptor{Tier: roles.TierRegionalAdmin, Region: "pomorskie"}
	_, err = svc.Get(ctx, otherRegion, member.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	sameRegion := roles.RoleDescriptor{Tier: roles.TierRegionalAuditor, Region: "mazowieckie"}
	_, err = svc.Get(ctx, sameRegion, member.ID)
	assert.NoError(t, err)
}

func TestListScoped(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	second := validInput()
	second.IDDocumentNumber = "99010154321"
	second.PhoneNumber = "+48600200300"
	second.Email = "barbara@example.com"
	second.Circle = "Koło Gdańsk"
	second.Region = "Pomorskie"
	_, err = svc.Register(ctx, second)
	require.NoError(t, err)

	all, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	regional := roles.RoleDescriptor{Tier: roles.TierRegionalAdmin, Region: "mazowieckie"}
	scoped, err := svc.List(ctx, regional)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, first.ID, scoped[0].ID)

	// A unit member matches on the member's circle field.
	unit := roles.RoleDescriptor{Tier: roles.TierUnitMember, Unit: "kołogdansk"}
	scoped, err = svc.List(ctx, unit)
	require.NoError(t, err)
	assert.Len(t, scoped, 1)
}

func TestUpdateEnforcesScopeAndValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	member, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	auditor := roles.RoleDescriptor{Tier: roles.TierRegionalAuditor, Region: "mazowieckie"}
	place := "Radom"
	_, err = svc.Update(ctx, auditor, member.ID, MemberPatch{PlaceOfBirth: &place})
	assert.ErrorIs(t, err, ErrForbidden)

	badEmail := "not-an-address"
	_, err = svc.Update(ctx, admin, member.ID, MemberPatch{Email: &badEmail})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	updated, err := svc.Update(ctx, admin, member.ID, MemberPatch{PlaceOfBirth: &place})
	require.NoError(t, err)
	assert.Equal(t, "Radom", updated.PlaceOfBirth)
}

func TestUpdateContributionsBatch(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()

	member, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	updated, err := store.UpdateContributions(ctx, func(Member) int { return 42 })
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	got, err := store.Get(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, got.Contribution)
}

func TestAuthorizeDocument(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput()) // document 00060112345
	require.NoError(t, err)

	require.NoError(t, svc.AuthorizeDocument(ctx, admin, "00060112345.pdf"))

	sameCircle := roles.RoleDescriptor{Tier: roles.TierUnitMember, Unit: "kołopłock"}
	assert.NoError(t, svc.AuthorizeDocument(ctx, sameCircle, "00060112345.pdf"))

	otherRegion := roles.RoleDescriptor{Tier: roles.TierRegionalAdmin, Region: "pomorskie"}
	assert.ErrorIs(t, svc.AuthorizeDocument(ctx, otherRegion, "00060112345.pdf"), ErrForbidden)

	assert.ErrorIs(t, svc.AuthorizeDocument(ctx, admin, "unknown.pdf"), ErrNotFound)
}
