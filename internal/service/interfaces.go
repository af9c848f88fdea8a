package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
)

type accountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance int64, newVersion int64) error
}

type transactionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	LatestByDescription(ctx context.Context, tx *sql.Tx, description string) (time.Time, bool, error)
	LatestByCategory(ctx context.Context, tx *sql.Tx, recordID uuid.UUID, category string, txType domain.TransactionType) (time.Time, bool, error)
}

type regularRepository interface {
	Create(ctx context.Context, def *domain.RegularTransaction) error
	List(ctx context.Context, tx *sql.Tx) ([]domain.RegularTransaction, error)
}

type subscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	ListActive(ctx context.Context, tx *sql.Tx) ([]domain.Subscription, error)
}

type creditRepository interface {
	Create(ctx context.Context, tx *sql.Tx, c *domain.Credit) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Credit, error)
	ListActiveForUpdate(ctx context.Context, tx *sql.Tx) ([]*domain.Credit, error)
	Update(ctx context.Context, tx *sql.Tx, c *domain.Credit) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
	AppendPenalty(ctx context.Context, tx *sql.Tx, p *domain.Penalty) error
	SetEarlyRepaymentRequested(ctx context.Context, id uuid.UUID) error
}

type depositRepository interface {
	Create(ctx context.Context, tx *sql.Tx, d *domain.Deposit) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Deposit, error)
	ListActiveForUpdate(ctx context.Context, tx *sql.Tx) ([]*domain.Deposit, error)
	Update(ctx context.Context, tx *sql.Tx, d *domain.Deposit) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type restrictionRepository interface {
	Create(ctx context.Context, rs *domain.Restriction) error
	ListActiveForUpdate(ctx context.Context, tx *sql.Tx, recordIDs []uuid.UUID) ([]*domain.Restriction, error)
	UpdateSpent(ctx context.Context, tx *sql.Tx, id uuid.UUID, spent int64) error
}

type operationRepository interface {
	Create(ctx context.Context, tx *sql.Tx, op *domain.Operation) error
}

// Stores bundles the repositories shared by the engine and the finance
// service.
type Stores struct {
	Accounts      accountRepository
	Transactions  transactionRepository
	Regulars      regularRepository
	Subscriptions subscriptionRepository
	Credits       creditRepository
	Deposits      depositRepository
	Restrictions  restrictionRepository
	Operations    operationRepository
}
