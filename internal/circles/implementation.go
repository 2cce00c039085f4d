// internal/circles/implementation.go
package circles

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rejestr/internal/roles"
	"rejestr/internal/scoping"
)

type service struct {
	db *sql.DB
}

// NewService creates a circle administration service over the given database.
func NewService(db *sql.DB) Service {
	return &service{db: db}
}

// EnsureSchema creates the circles table if it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS circles (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			region TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create circles schema: %w", err)
	}
	return nil
}

func (s *service) Create(ctx context.Context, caller roles.RoleDescriptor, name, region string) (*Circle, error) {
	if caller.Tier != roles.TierNationalAdmin {
		return nil, ErrForbidden
	}
	if name == "" {
		return nil, fmt.Errorf("circle name must not be empty")
	}

	circle := &Circle{ID: uuid.New(), Name: name, Region: region}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO circles (id, name, region) VALUES ($1, $2, $3)`,
		circle.ID, circle.Name, circle.Region)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, fmt.Errorf("%s: %w", name, ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert circle: %w", err)
	}
	return circle, nil
}

func (s *service) List(ctx context.Context, caller roles.RoleDescriptor) ([]Circle, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, region FROM circles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list circles: %w", err)
	}
	defer rows.Close()

	var all []Circle
	for rows.Next() {
		var c Circle
		if err := rows.Scan(&c.ID, &c.Name, &c.Region); err != nil {
			return nil, fmt.Errorf("failed to scan circle: %w", err)
		}
		all = append(all, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return scoping.Circles(caller, all, func(c Circle) (string, string) {
		return c.Region, c.Name
	}), nil
}

func (s *service) get(ctx context.Context, id uuid.UUID) (*Circle, error) {
	c := &Circle{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, region FROM circles WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Region)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get circle: %w", err)
	}
	return c, nil
}

func (s *service) Update(ctx context.Context, caller roles.RoleDescriptor, id uuid.UUID, patch CirclePatch) (*Circle, error) {
	if caller.Tier != roles.TierNationalAdmin {
		return nil, ErrForbidden
	}

	circle, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, fmt.Errorf("circle name must not be empty")
		}
		circle.Name = *patch.Name
	}
	if patch.Region != nil {
		circle.Region = *patch.Region
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE circles SET name = $1, region = $2 WHERE id = $3`,
		circle.Name, circle.Region, circle.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, fmt.Errorf("%s: %w", circle.Name, ErrConflict)
		}
		return nil, fmt.Errorf("failed to update circle: %w", err)
	}
	return circle, nil
}

func (s *service) Delete(ctx context.Context, caller roles.RoleDescriptor, id uuid.UUID) error {
	if caller.Tier != roles.TierNationalAdmin {
		return ErrForbidden
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM circles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete circle: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
