// internal/archive/archive.go

// Package archive is the durable out-of-band store for banned and deleted
// member snapshots. Each collection is append-ordered and id-keyed; a record
// present here is never simultaneously an active member.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNotFound    = errors.New("archived record not found")
	ErrAlreadyHeld = errors.New("record already archived")
)

// Kind names one of the two archive collections.
type Kind string

const (
	KindBanned  Kind = "banned"
	KindDeleted Kind = "deleted"
)

func (k Kind) valid() bool { return k == KindBanned || k == KindDeleted }

func (k Kind) table() string {
	if k == KindBanned {
		return "banned_members"
	}
	return "deleted_members"
}

// Record is a full member snapshot plus the archival metadata.
type Record struct {
	ID         uuid.UUID       `json:"id"`
	Kind       Kind            `json:"kind"`
	Snapshot   json.RawMessage `json:"snapshot"`
	Reason     string          `json:"reason,omitempty"`
	ArchivedAt time.Time       `json:"archived_at"`
}

// Store provides the append / list / take / remove operations over the two
// collections. Writes are serialized per collection so concurrent ban and
// restore calls cannot interleave on the same kind.
type Store struct {
	db     *sql.DB
	tracer trace.Tracer
	mu     [2]sync.Mutex // one writer lock per kind
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:     db,
		tracer: otel.Tracer("rejestr/archive"),
	}
}

func (s *Store) lock(k Kind) *sync.Mutex {
	if k == KindBanned {
		return &s.mu[0]
	}
	return &s.mu[1]
}

// EnsureSchema creates both archive tables when absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, kind := range []Kind{KindBanned, KindDeleted} {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS `+kind.table()+` (
				seq BIGSERIAL,
				id UUID PRIMARY KEY,
				snapshot JSONB NOT NULL,
				reason TEXT NOT NULL DEFAULT '',
				archived_at TIMESTAMPTZ NOT NULL
			)
		`)
		if err != nil {
			return fmt.Errorf("ensure %s schema: %w", kind.table(), err)
		}
	}
	return nil
}

// Append stores a snapshot in the collection. Appending an id that is already
// archived in the same collection fails with ErrAlreadyHeld.
func (s *Store) Append(ctx context.Context, rec Record) error {
	if !rec.Kind.valid() {
		return fmt.Errorf("unknown archive kind %q", rec.Kind)
	}
	ctx, span := s.tracer.Start(ctx, "archive.append",
		trace.WithAttributes(
			attribute.String("archive.kind", string(rec.Kind)),
			attribute.String("record.id", rec.ID.String()),
		),
	)
	defer span.End()

	s.lock(rec.Kind).Lock()
	defer s.lock(rec.Kind).Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+rec.Kind.table()+` (id, snapshot, reason, archived_at)
		VALUES ($1, $2, $3, $4)
	`, rec.ID, rec.Snapshot, rec.Reason, rec.ArchivedAt.UTC())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyHeld
		}
		return fmt.Errorf("append to %s archive: %w", rec.Kind, err)
	}

	span.SetAttributes(attribute.Bool("append.success", true))
	return nil
}

// List returns a collection's records in append order.
func (s *Store) List(ctx context.Context, kind Kind) ([]Record, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("unknown archive kind %q", kind)
	}
	ctx, span := s.tracer.Start(ctx, "archive.list",
		trace.WithAttributes(attribute.String("archive.kind", string(kind))),
	)
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, snapshot, reason, archived_at
		FROM `+kind.table()+`
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query %s archive: %w", kind, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec := Record{Kind: kind}
		if err := rows.Scan(&rec.ID, &rec.Snapshot, &rec.Reason, &rec.ArchivedAt); err != nil {
			return nil, fmt.Errorf("scan archived record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s archive: %w", kind, err)
	}

	span.SetAttributes(attribute.Int("records.listed", len(records)))
	return records, nil
}

// Take removes a record by id and returns it, atomically: the read and the
// delete share one transaction so two restores cannot both claim the same
// snapshot. Fails with ErrNotFound when the id is absent.
func (s *Store) Take(ctx context.Context, kind Kind, id uuid.UUID) (*Record, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("unknown archive kind %q", kind)
	}
	ctx, span := s.tracer.Start(ctx, "archive.take",
		trace.WithAttributes(
			attribute.String("archive.kind", string(kind)),
			attribute.String("record.id", id.String()),
		),
	)
	defer span.End()

	s.lock(kind).Lock()
	defer s.lock(kind).Unlock()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	rec := Record{Kind: kind}
	err = tx.QueryRowContext(ctx, `
		SELECT id, snapshot, reason, archived_at
		FROM `+kind.table()+`
		WHERE id = $1
	`, id).Scan(&rec.ID, &rec.Snapshot, &rec.Reason, &rec.ArchivedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load archived record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+kind.table()+` WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("remove archived record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	span.SetAttributes(attribute.Bool("take.success", true))
	return &rec, nil
}

// Remove permanently purges a record by id. Irreversible; fails with
// ErrNotFound when the id is absent, leaving the collection unchanged.
func (s *Store) Remove(ctx context.Context, kind Kind, id uuid.UUID) error {
	if !kind.valid() {
		return fmt.Errorf("unknown archive kind %q", kind)
	}
	ctx, span := s.tracer.Start(ctx, "archive.remove",
		trace.WithAttributes(
			attribute.String("archive.kind", string(kind)),
			attribute.String("record.id", id.String()),
		),
	)
	defer span.End()

	s.lock(kind).Lock()
	defer s.lock(kind).Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM `+kind.table()+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("purge from %s archive: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("purge from %s archive: %w", kind, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	span.SetAttributes(attribute.Bool("remove.success", true))
	return nil
}

// FindByDocumentNumber searches both collections for a snapshot owning the
// given document number and returns its region and circle. Used by
// document-download authorization for archived members.
func (s *Store) FindByDocumentNumber(ctx context.Context, documentNumber string) (region, circle string, err error) {
	ctx, span := s.tracer.Start(ctx, "archive.find_by_document",
		trace.WithAttributes(attribute.String("document.number", documentNumber)),
	)
	defer span.End()

	for _, kind := range []Kind{KindDeleted, KindBanned} {
		err = s.db.QueryRowContext(ctx, `
			SELECT snapshot->>'region', snapshot->>'circle'
			FROM `+kind.table()+`
			WHERE snapshot->>'id_document_number' = $1
		`, documentNumber).Scan(&region, &circle)
		if err == nil {
			return region, circle, nil
		}
		if err != sql.ErrNoRows {
			return "", "", fmt.Errorf("search %s archive: %w", kind, err)
		}
	}
	return "", "", ErrNotFound
}
