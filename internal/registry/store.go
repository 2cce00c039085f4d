// internal/registry/store.go
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store is the postgres-backed active member collection.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const memberColumns = `id, first_name, last_name, date_of_birth, place_of_birth,
	join_date_to_organization, join_date_to_circle, id_document_number,
	phone_number, email, contribution, circle, region,
	membership_form_scan, additional_fields`

// EnsureSchema creates the members table when absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS members (
			id UUID PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			date_of_birth DATE NOT NULL,
			place_of_birth TEXT NOT NULL DEFAULT '',
			join_date_to_organization DATE NOT NULL,
			join_date_to_circle DATE NOT NULL,
			id_document_number TEXT NOT NULL UNIQUE,
			phone_number TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			contribution INT NOT NULL DEFAULT 0,
			circle TEXT NOT NULL,
			region TEXT NOT NULL,
			membership_form_scan TEXT NOT NULL DEFAULT '',
			additional_fields TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure members schema: %w", err)
	}
	return nil
}

// Insert adds an active member. A unique-constraint violation is reported as
// ErrConflict.
func (s *Store) Insert(ctx context.Context, m *Member) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (`+memberColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		m.ID, m.FirstName, m.LastName, m.DateOfBirth, m.PlaceOfBirth,
		m.JoinDateToOrganization, m.JoinDateToCircle, m.IDDocumentNumber,
		m.PhoneNumber, m.Email, m.Contribution, m.Circle, m.Region,
		m.MembershipFormScan, m.AdditionalFields,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	return scanMember(row)
}

func (s *Store) GetByDocumentNumber(ctx context.Context, documentNumber string) (*Member, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id_document_number = $1`, documentNumber)
	return scanMember(row)
}

func scanMember(row *sql.Row) (*Member, error) {
	m := &Member{}
	err := row.Scan(
		&m.ID, &m.FirstName, &m.LastName, &m.DateOfBirth, &m.PlaceOfBirth,
		&m.JoinDateToOrganization, &m.JoinDateToCircle, &m.IDDocumentNumber,
		&m.PhoneNumber, &m.Email, &m.Contribution, &m.Circle, &m.Region,
		&m.MembershipFormScan, &m.AdditionalFields,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan member: %w", err)
	}
	return m, nil
}

// List returns every active member in registration order.
func (s *Store) List(ctx context.Context) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM members ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		err := rows.Scan(
			&m.ID, &m.FirstName, &m.LastName, &m.DateOfBirth, &m.PlaceOfBirth,
			&m.JoinDateToOrganization, &m.JoinDateToCircle, &m.IDDocumentNumber,
			&m.PhoneNumber, &m.Email, &m.Contribution, &m.Circle, &m.Region,
			&m.MembershipFormScan, &m.AdditionalFields,
		)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// Update rewrites the full record by id.
func (s *Store) Update(ctx context.Context, m *Member) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE members SET
			first_name = $2, last_name = $3, date_of_birth = $4, place_of_birth = $5,
			join_date_to_organization = $6, join_date_to_circle = $7,
			id_document_number = $8, phone_number = $9, email = $10,
			contribution = $11, circle = $12, region = $13,
			membership_form_scan = $14, additional_fields = $15
		WHERE id = $1
	`,
		m.ID, m.FirstName, m.LastName, m.DateOfBirth, m.PlaceOfBirth,
		m.JoinDateToOrganization, m.JoinDateToCircle, m.IDDocumentNumber,
		m.PhoneNumber, m.Email, m.Contribution, m.Circle, m.Region,
		m.MembershipFormScan, m.AdditionalFields,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the active record; the archival snapshot is the lifecycle
// machine's responsibility.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UniqueFieldTaken pre-checks one of the unique columns before registration,
// so callers can report which field collided.
func (s *Store) UniqueFieldTaken(ctx context.Context, column, value string) (bool, error) {
	switch column {
	case "id_document_number", "phone_number", "email":
	default:
		return false, fmt.Errorf("column %q is not a unique member field", column)
	}
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM members WHERE `+column+` = $1)`, value).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check unique %s: %w", column, err)
	}
	return exists, nil
}

// UpdateContributions recomputes every member's contribution inside a single
// transaction. A failure anywhere rolls the whole batch back; there is no
// partial commit. Returns the number of members written.
func (s *Store) UpdateContributions(ctx context.Context, compute func(Member) int) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT `+memberColumns+` FROM members FOR UPDATE`)
	if err != nil {
		return 0, fmt.Errorf("query members: %w", err)
	}

	var members []Member
	for rows.Next() {
		var m Member
		err := rows.Scan(
			&m.ID, &m.FirstName, &m.LastName, &m.DateOfBirth, &m.PlaceOfBirth,
			&m.JoinDateToOrganization, &m.JoinDateToCircle, &m.IDDocumentNumber,
			&m.PhoneNumber, &m.Email, &m.Contribution, &m.Circle, &m.Region,
			&m.MembershipFormScan, &m.AdditionalFields,
		)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Close(); err != nil {
		return 0, fmt.Errorf("close rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate members: %w", err)
	}

	for _, m := range members {
		if _, err := tx.ExecContext(ctx,
			`UPDATE members SET contribution = $2 WHERE id = $1`, m.ID, compute(m)); err != nil {
			return 0, fmt.Errorf("update contribution for %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return len(members), nil
}
