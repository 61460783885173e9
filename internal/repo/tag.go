// Package repo contains all database access logic for the ParkShield API.
// No business logic lives here — only SQL and type mapping.
//
// The tags table is the single source of truth for tag-code uniqueness
// (unique index on tag_id) and activation state. The alerts table is an
// append-only ledger: this package issues INSERTs and SELECTs against it,
// never UPDATE or DELETE.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/parkshield/backend/internal/domain"
)

// uniqueViolation is the Postgres SQLSTATE for a unique-constraint breach.
const uniqueViolation = "23505"

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TagRepo defines the persistence operations for tags and their alert ledger.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TagRepo interface {
	// Create inserts a new tag and returns the persisted record (with
	// DB-generated id and created_at populated). Returns domain.ErrConflict
	// if the tag code is already registered — the unique index makes the
	// check-and-create atomic, so two concurrent registrations can never
	// both claim the same code.
	Create(ctx context.Context, tag domain.Tag) (domain.Tag, error)

	// GetByCode retrieves a tag by its public short code.
	// Returns domain.ErrNotFound if no tag with that code exists.
	GetByCode(ctx context.Context, code string) (domain.Tag, error)

	// AppendAlert adds one entry to a tag's ledger and returns it with
	// DB-generated id and created_at populated. Returns domain.ErrNotFound
	// when the tag row is gone (foreign-key violation).
	AppendAlert(ctx context.Context, alert domain.Alert) (domain.Alert, error)

	// LastAlert returns the tail of a tag's ledger, or nil when the tag has
	// never been alerted. The rate limiter needs only this single row, never
	// the full history.
	LastAlert(ctx context.Context, tagID uuid.UUID) (*domain.Alert, error)

	// ListAlerts returns one page of a tag's ledger, newest first, and the
	// total ledger length.
	ListAlerts(ctx context.Context, tagID uuid.UUID, p domain.PaginationParams) ([]domain.Alert, int64, error)

	// SetActive flips a tag's activation flag by public code.
	// Returns domain.ErrNotFound if no tag with that code exists.
	SetActive(ctx context.Context, code string, active bool) error
}

// pgTagRepo is the Postgres implementation of TagRepo.
type pgTagRepo struct {
	db db
}

// NewTagRepo constructs a TagRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTagRepo(db db) TagRepo {
	return &pgTagRepo{db: db}
}

// Create inserts a new tag row. A unique-index violation on tag_id comes
// back as domain.ErrConflict so the service can either retry with a fresh
// generated code or report "already registered" for a claimed code.
func (r *pgTagRepo) Create(ctx context.Context, tag domain.Tag) (domain.Tag, error) {
	const q = `
		INSERT INTO tags (tag_id, vehicle_number, owner_phone)
		VALUES (@tag_id, @vehicle_number, @owner_phone)
		RETURNING id, tag_id, vehicle_number, owner_phone, active, created_at`

	args := pgx.NamedArgs{
		"tag_id":         tag.TagID,
		"vehicle_number": tag.VehicleNumber,
		"owner_phone":    tag.OwnerPhone,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTag(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Tag{}, fmt.Errorf("repo.TagRepo.Create: %w", domain.ErrConflict)
		}
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Create: %w", err)
	}
	return result, nil
}

// GetByCode retrieves a tag by its public short code.
func (r *pgTagRepo) GetByCode(ctx context.Context, code string) (domain.Tag, error) {
	const q = `
		SELECT id, tag_id, vehicle_number, owner_phone, active, created_at
		FROM tags
		WHERE tag_id = @tag_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"tag_id": code})
	result, err := scanTag(row)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.GetByCode: %w", err)
	}
	return result, nil
}

// AppendAlert inserts one ledger entry. created_at is assigned by the
// database so entry order matches the server clock, not the caller's.
func (r *pgTagRepo) AppendAlert(ctx context.Context, alert domain.Alert) (domain.Alert, error) {
	const q = `
		INSERT INTO alerts (tag_id, kind, message, origin_address)
		VALUES (@tag_id, @kind, @message, @origin_address)
		RETURNING id, tag_id, kind, message, origin_address, created_at`

	args := pgx.NamedArgs{
		"tag_id":         alert.TagID,
		"kind":           string(alert.Kind),
		"message":        alert.Message,
		"origin_address": alert.OriginAddress,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanAlert(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return domain.Alert{}, fmt.Errorf("repo.TagRepo.AppendAlert: %w", domain.ErrNotFound)
		}
		return domain.Alert{}, fmt.Errorf("repo.TagRepo.AppendAlert: %w", err)
	}
	return result, nil
}

// LastAlert returns the most recent ledger entry for a tag, or nil if none.
func (r *pgTagRepo) LastAlert(ctx context.Context, tagID uuid.UUID) (*domain.Alert, error) {
	const q = `
		SELECT id, tag_id, kind, message, origin_address, created_at
		FROM alerts
		WHERE tag_id = @tag_id
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"tag_id": tagID})
	alert, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil // empty ledger, not an error
		}
		return nil, fmt.Errorf("repo.TagRepo.LastAlert: %w", err)
	}
	return &alert, nil
}

// ListAlerts returns one page of the ledger, newest first, plus the total count.
func (r *pgTagRepo) ListAlerts(ctx context.Context, tagID uuid.UUID, p domain.PaginationParams) ([]domain.Alert, int64, error) {
	const q = `
		SELECT id, tag_id, kind, message, origin_address, created_at,
		       count(*) OVER () AS total
		FROM alerts
		WHERE tag_id = @tag_id
		ORDER BY created_at DESC, id DESC
		LIMIT @limit OFFSET @offset`

	args := pgx.NamedArgs{
		"tag_id": tagID,
		"limit":  p.Limit,
		"offset": p.Offset(),
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TagRepo.ListAlerts: %w", err)
	}
	defer rows.Close()

	var total int64
	alerts := []domain.Alert{}
	for rows.Next() {
		var (
			a  domain.Alert
			id pgtype.UUID
			tg pgtype.UUID
		)
		if err := rows.Scan(&id, &tg, &a.Kind, &a.Message, &a.OriginAddress, &a.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("repo.TagRepo.ListAlerts: scan: %w", err)
		}
		a.ID = uuid.UUID(id.Bytes)
		a.TagID = uuid.UUID(tg.Bytes)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TagRepo.ListAlerts: rows: %w", err)
	}
	return alerts, total, nil
}

// SetActive flips the activation flag for a tag by public code.
func (r *pgTagRepo) SetActive(ctx context.Context, code string, active bool) error {
	const q = `UPDATE tags SET active = @active WHERE tag_id = @tag_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"tag_id": code, "active": active})
	if err != nil {
		return fmt.Errorf("repo.TagRepo.SetActive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TagRepo.SetActive: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTag maps a single database row into a domain.Tag.
func scanTag(s scanner) (domain.Tag, error) {
	var (
		t  domain.Tag
		id pgtype.UUID
	)
	err := s.Scan(&id, &t.TagID, &t.VehicleNumber, &t.OwnerPhone, &t.Active, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tag{}, domain.ErrNotFound
		}
		return domain.Tag{}, err
	}
	t.ID = uuid.UUID(id.Bytes)
	return t, nil
}

// scanAlert maps a single database row into a domain.Alert.
func scanAlert(s scanner) (domain.Alert, error) {
	var (
		a    domain.Alert
		id   pgtype.UUID
		tg   pgtype.UUID
		kind string
	)
	err := s.Scan(&id, &tg, &kind, &a.Message, &a.OriginAddress, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Alert{}, domain.ErrNotFound
		}
		return domain.Alert{}, err
	}
	a.ID = uuid.UUID(id.Bytes)
	a.TagID = uuid.UUID(tg.Bytes)
	a.Kind = domain.AlertKind(kind)
	return a, nil
}
