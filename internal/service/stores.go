package service

import (
	"database/sql"

	"github.com/josh-kwaku/finance-accrual/internal/repository"
)

func NewStores(db *sql.DB) Stores {
	return Stores{
		Accounts:      repository.NewAccountRepository(db),
		Transactions:  repository.NewTransactionRepository(db),
		Regulars:      repository.NewRegularTransactionRepository(db),
		Subscriptions: repository.NewSubscriptionRepository(db),
		Credits:       repository.NewCreditRepository(db),
		Deposits:      repository.NewDepositRepository(db),
		Restrictions:  repository.NewRestrictionRepository(db),
		Operations:    repository.NewOperationRepository(db),
	}
}
