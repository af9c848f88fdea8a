package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
)

const transactionColumns = `id, record_id, account_id, category, amount, type, description, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.RecordID, t.AccountID, t.Category, t.Amount, t.Type, t.Description, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// LatestByDescription returns the creation instant of the newest transaction
// carrying the given provenance tag.
func (r *TransactionRepository) LatestByDescription(ctx context.Context, tx *sql.Tx, description string) (time.Time, bool, error) {
	var at time.Time
	err := tx.QueryRowContext(ctx,
		`SELECT created_at FROM transactions
		WHERE description = $1 ORDER BY created_at DESC LIMIT 1`, description,
	).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("LatestByDescription: %w", err)
	}
	return at, true, nil
}

// LatestByCategory returns the creation instant of the newest transaction of
// a record with the given category and type.
func (r *TransactionRepository) LatestByCategory(ctx context.Context, tx *sql.Tx, recordID uuid.UUID, category string, txType domain.TransactionType) (time.Time, bool, error) {
	var at time.Time
	err := tx.QueryRowContext(ctx,
		`SELECT created_at FROM transactions
		WHERE record_id = $1 AND category = $2 AND type = $3
		ORDER BY created_at DESC LIMIT 1`, recordID, category, txType,
	).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("LatestByCategory: %w", err)
	}
	return at, true, nil
}

func (r *TransactionRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("GetByAccountID: scan: %w", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: rows: %w", err)
	}
	return txs, total, nil
}

func (r *TransactionRepository) GetByDescription(ctx context.Context, description string) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE description = $1 ORDER BY created_at`, description,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByDescription: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByDescription: scan: %w", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByDescription: rows: %w", err)
	}
	return txs, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(
		&t.ID, &t.RecordID, &t.AccountID, &t.Category,
		&t.Amount, &t.Type, &t.Description, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
