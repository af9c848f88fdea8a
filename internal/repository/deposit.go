package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
)

const depositColumns = `id, record_id, account_id, start_value, current_value, opened_at,
	period_months, annual_rate, capitalisation, active, is_over, accrued_periods, closed_at, created_at`

type DepositRepository struct {
	db *sql.DB
}

func NewDepositRepository(db *sql.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

func (r *DepositRepository) Create(ctx context.Context, tx *sql.Tx, d *domain.Deposit) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO deposits (`+depositColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		d.ID, d.RecordID, d.AccountID, d.StartValue, d.CurrentValue, d.OpenedAt,
		d.PeriodMonths, d.AnnualRate, d.Capitalisation, d.Active, d.IsOver, d.AccruedPeriods, d.ClosedAt, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *DepositRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+depositColumns+` FROM deposits WHERE id = $1`, id,
	)
	d, err := scanDeposit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return d, nil
}

func (r *DepositRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Deposit, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+depositColumns+` FROM deposits WHERE id = $1 FOR UPDATE`, id,
	)
	d, err := scanDeposit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return d, nil
}

func (r *DepositRepository) ListActiveForUpdate(ctx context.Context, tx *sql.Tx) ([]*domain.Deposit, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+depositColumns+` FROM deposits WHERE active ORDER BY id FOR UPDATE`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListActiveForUpdate: %w", err)
	}
	defer rows.Close()

	var deposits []*domain.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActiveForUpdate: scan: %w", err)
		}
		deposits = append(deposits, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActiveForUpdate: rows: %w", err)
	}
	return deposits, nil
}

func (r *DepositRepository) Update(ctx context.Context, tx *sql.Tx, d *domain.Deposit) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE deposits SET current_value = $1, active = $2, is_over = $3,
			accrued_periods = $4, closed_at = $5
		WHERE id = $6`,
		d.CurrentValue, d.Active, d.IsOver, d.AccruedPeriods, d.ClosedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return expectOneRow(res, "Update")
}

func (r *DepositRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM deposits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return expectOneRow(res, "Delete")
}

func scanDeposit(s scanner) (*domain.Deposit, error) {
	var d domain.Deposit
	err := s.Scan(
		&d.ID, &d.RecordID, &d.AccountID, &d.StartValue, &d.CurrentValue, &d.OpenedAt,
		&d.PeriodMonths, &d.AnnualRate, &d.Capitalisation, &d.Active, &d.IsOver, &d.AccruedPeriods, &d.ClosedAt, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
