package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DerivationRepository handles derivation history operations.
type DerivationRepository struct {
	pool *pgxpool.Pool
}

const derivationColumns = `id, input_text, distribution, color, created_at`

// Create inserts a derivation, assigning an ID if it has none.
func (r *DerivationRepository) Create(ctx context.Context, d *Derivation) error {
	query := `
		INSERT INTO derivations (id, input_text, distribution, color, created_at)
		VALUES ($1, $2, $3::jsonb, $4, NOW())
		RETURNING created_at
	`
	payload, err := json.Marshal(d.Distribution)
	if err != nil {
		return fmt.Errorf("encoding distribution: %w", err)
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	err = r.pool.QueryRow(ctx, query,
		d.ID,
		d.InputText,
		payload,
		d.Color,
	).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting derivation: %w", err)
	}
	return nil
}

// Get retrieves a derivation by ID.
func (r *DerivationRepository) Get(ctx context.Context, id uuid.UUID) (*Derivation, error) {
	query := `SELECT ` + derivationColumns + ` FROM derivations WHERE id = $1`

	d, err := scanDerivation(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying derivation: %w", err)
	}
	return d, nil
}

// ListRecent returns up to limit derivations, newest first.
func (r *DerivationRepository) ListRecent(ctx context.Context, limit int) ([]Derivation, error) {
	query := `
		SELECT ` + derivationColumns + `
		FROM derivations
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent derivations: %w", err)
	}
	return scanDerivations(rows)
}

// ListSince returns derivations created at or after since, oldest first.
func (r *DerivationRepository) ListSince(ctx context.Context, since time.Time) ([]Derivation, error) {
	query := `
		SELECT ` + derivationColumns + `
		FROM derivations
		WHERE created_at >= $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("querying derivations since %s: %w", since.Format(time.RFC3339), err)
	}
	return scanDerivations(rows)
}

// DeleteOlderThan removes derivations created before t and returns how many were removed.
func (r *DerivationRepository) DeleteOlderThan(ctx context.Context, t time.Time) (int64, error) {
	query := `DELETE FROM derivations WHERE created_at < $1`
	result, err := r.pool.Exec(ctx, query, t)
	if err != nil {
		return 0, fmt.Errorf("deleting old derivations: %w", err)
	}
	return result.RowsAffected(), nil
}

// scanDerivations reads all rows and closes them.
func scanDerivations(rows pgx.Rows) ([]Derivation, error) {
	defer rows.Close()

	var out []Derivation
	for rows.Next() {
		d, err := scanDerivation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning derivation: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// scanDerivation scans one row, decoding the JSONB distribution.
func scanDerivation(row pgx.Row) (*Derivation, error) {
	var d Derivation
	var payload []byte
	if err := row.Scan(
		&d.ID,
		&d.InputText,
		&payload,
		&d.Color,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &d.Distribution); err != nil {
		return nil, fmt.Errorf("decoding distribution: %w", err)
	}
	return &d, nil
}
