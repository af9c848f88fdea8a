package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
)

const restrictionColumns = `id, record_id, category, ceiling, spent, active`

type RestrictionRepository struct {
	db *sql.DB
}

func NewRestrictionRepository(db *sql.DB) *RestrictionRepository {
	return &RestrictionRepository{db: db}
}

func (r *RestrictionRepository) Create(ctx context.Context, rs *domain.Restriction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO restrictions (`+restrictionColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		rs.ID, rs.RecordID, rs.Category, rs.Ceiling, rs.Spent, rs.Active,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("Create: active restriction for %q exists: %w", rs.Category, domain.ErrInvalidCategory)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *RestrictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Restriction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+restrictionColumns+` FROM restrictions WHERE id = $1`, id,
	)
	rs, err := scanRestriction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return rs, nil
}

// ListActiveForUpdate locks the active restrictions of the given records.
func (r *RestrictionRepository) ListActiveForUpdate(ctx context.Context, tx *sql.Tx, recordIDs []uuid.UUID) ([]*domain.Restriction, error) {
	if len(recordIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(recordIDs))
	for i, id := range recordIDs {
		ids[i] = id.String()
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+restrictionColumns+` FROM restrictions
		WHERE active AND record_id = ANY($1::uuid[])
		ORDER BY id FOR UPDATE`, pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("ListActiveForUpdate: %w", err)
	}
	return collectRestrictions(rows, "ListActiveForUpdate")
}

// ListExceeded returns active restrictions whose spending passed the ceiling.
func (r *RestrictionRepository) ListExceeded(ctx context.Context, recordID uuid.UUID) ([]*domain.Restriction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+restrictionColumns+` FROM restrictions
		WHERE active AND record_id = $1 AND spent > ceiling
		ORDER BY category`, recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListExceeded: %w", err)
	}
	return collectRestrictions(rows, "ListExceeded")
}

func (r *RestrictionRepository) UpdateSpent(ctx context.Context, tx *sql.Tx, id uuid.UUID, spent int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE restrictions SET spent = $1 WHERE id = $2`, spent, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateSpent: %w", err)
	}
	return expectOneRow(res, "UpdateSpent")
}

func collectRestrictions(rows *sql.Rows, op string) ([]*domain.Restriction, error) {
	defer rows.Close()

	var out []*domain.Restriction
	for rows.Next() {
		rs, err := scanRestriction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return out, nil
}

func scanRestriction(s scanner) (*domain.Restriction, error) {
	var rs domain.Restriction
	if err := s.Scan(&rs.ID, &rs.RecordID, &rs.Category, &rs.Ceiling, &rs.Spent, &rs.Active); err != nil {
		return nil, err
	}
	return &rs, nil
}
