package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
)

const regularColumns = `id, record_id, account_id, category, amount, is_add, period_days, created_at`

type RegularTransactionRepository struct {
	db *sql.DB
}

func NewRegularTransactionRepository(db *sql.DB) *RegularTransactionRepository {
	return &RegularTransactionRepository{db: db}
}

func (r *RegularTransactionRepository) Create(ctx context.Context, def *domain.RegularTransaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO regular_transactions (`+regularColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		def.ID, def.RecordID, def.AccountID, def.Category, def.Amount, def.IsAdd, def.PeriodDays, def.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *RegularTransactionRepository) List(ctx context.Context, tx *sql.Tx) ([]domain.RegularTransaction, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+regularColumns+` FROM regular_transactions ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var defs []domain.RegularTransaction
	for rows.Next() {
		var d domain.RegularTransaction
		if err := rows.Scan(
			&d.ID, &d.RecordID, &d.AccountID, &d.Category,
			&d.Amount, &d.IsAdd, &d.PeriodDays, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return defs, nil
}

const subscriptionColumns = `id, record_id, account_id, category, amount, type, period_days, start_date, active, created_at`

type SubscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sub.ID, sub.RecordID, sub.AccountID, sub.Category, sub.Amount, sub.Type,
		sub.PeriodDays, sub.StartDate, sub.Active, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) ListActive(ctx context.Context, tx *sql.Tx) ([]domain.Subscription, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE active ORDER BY start_date, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var s domain.Subscription
		if err := rows.Scan(
			&s.ID, &s.RecordID, &s.AccountID, &s.Category, &s.Amount, &s.Type,
			&s.PeriodDays, &s.StartDate, &s.Active, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ListActive: scan: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActive: rows: %w", err)
	}
	return subs, nil
}
