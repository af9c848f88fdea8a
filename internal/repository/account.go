package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
)

const accountColumns = `id, record_id, name, balance, version, created_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, record_id, name, balance, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID, account.RecordID, account.Name, account.Balance, account.Version, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance int64, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1, version = $2 WHERE id = $3 AND version = $4`,
		newBalance, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrVersionConflict)
	}
	return nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(&a.ID, &a.RecordID, &a.Name, &a.Balance, &a.Version, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
