package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
)

const creditColumns = `id, record_id, start_value, current_value, opened_at, period_months,
	annual_rate, payment_account_id, disbursement_account_id, active, is_over,
	overdue_count, penalty_sum, paid_periods, early_repayment_requested, closed_at, created_at`

type CreditRepository struct {
	db *sql.DB
}

func NewCreditRepository(db *sql.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

func (r *CreditRepository) Create(ctx context.Context, tx *sql.Tx, c *domain.Credit) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO credits (`+creditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		c.ID, c.RecordID, c.StartValue, c.CurrentValue, c.OpenedAt, c.PeriodMonths,
		c.AnnualRate, c.PaymentAccountID, c.DisbursementAccountID, c.Active, c.IsOver,
		c.OverdueCount, c.PenaltySum, c.PaidPeriods, c.EarlyRepaymentRequested, c.ClosedAt, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *CreditRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Credit, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+creditColumns+` FROM credits WHERE id = $1`, id,
	)
	c, err := scanCredit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}

	c.Penalties, err = r.GetPenalties(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

func (r *CreditRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Credit, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+creditColumns+` FROM credits WHERE id = $1 FOR UPDATE`, id,
	)
	c, err := scanCredit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return c, nil
}

// ListActiveForUpdate locks and returns every active credit. Penalty history
// is not loaded; the engine only appends to it.
func (r *CreditRepository) ListActiveForUpdate(ctx context.Context, tx *sql.Tx) ([]*domain.Credit, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+creditColumns+` FROM credits WHERE active ORDER BY id FOR UPDATE`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListActiveForUpdate: %w", err)
	}
	defer rows.Close()

	var credits []*domain.Credit
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActiveForUpdate: scan: %w", err)
		}
		credits = append(credits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActiveForUpdate: rows: %w", err)
	}
	return credits, nil
}

func (r *CreditRepository) Update(ctx context.Context, tx *sql.Tx, c *domain.Credit) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE credits SET current_value = $1, active = $2, is_over = $3, overdue_count = $4,
			penalty_sum = $5, paid_periods = $6, early_repayment_requested = $7, closed_at = $8
		WHERE id = $9`,
		c.CurrentValue, c.Active, c.IsOver, c.OverdueCount,
		c.PenaltySum, c.PaidPeriods, c.EarlyRepaymentRequested, c.ClosedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return expectOneRow(res, "Update")
}

func (r *CreditRepository) SetEarlyRepaymentRequested(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE credits SET early_repayment_requested = true WHERE id = $1 AND active`, id,
	)
	if err != nil {
		return fmt.Errorf("SetEarlyRepaymentRequested: %w", err)
	}
	return expectOneRow(res, "SetEarlyRepaymentRequested")
}

func (r *CreditRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM credits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return expectOneRow(res, "Delete")
}

func (r *CreditRepository) AppendPenalty(ctx context.Context, tx *sql.Tx, p *domain.Penalty) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO credit_penalties (id, credit_id, amount, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.CreditID, p.Amount, p.Reason, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("AppendPenalty: %w", err)
	}
	return nil
}

func (r *CreditRepository) GetPenalties(ctx context.Context, creditID uuid.UUID) ([]domain.Penalty, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, credit_id, amount, reason, created_at FROM credit_penalties
		WHERE credit_id = $1 ORDER BY created_at, id`, creditID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetPenalties: %w", err)
	}
	defer rows.Close()

	var penalties []domain.Penalty
	for rows.Next() {
		var p domain.Penalty
		if err := rows.Scan(&p.ID, &p.CreditID, &p.Amount, &p.Reason, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("GetPenalties: scan: %w", err)
		}
		penalties = append(penalties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetPenalties: rows: %w", err)
	}
	return penalties, nil
}

func scanCredit(s scanner) (*domain.Credit, error) {
	var c domain.Credit
	err := s.Scan(
		&c.ID, &c.RecordID, &c.StartValue, &c.CurrentValue, &c.OpenedAt, &c.PeriodMonths,
		&c.AnnualRate, &c.PaymentAccountID, &c.DisbursementAccountID, &c.Active, &c.IsOver,
		&c.OverdueCount, &c.PenaltySum, &c.PaidPeriods, &c.EarlyRepaymentRequested, &c.ClosedAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func expectOneRow(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}
