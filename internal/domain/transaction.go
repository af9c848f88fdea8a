package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// TypeFor maps the isAdd flag of a recurring definition to a transaction type.
func TypeFor(isAdd bool) TransactionType {
	if isAdd {
		return TransactionTypeIncome
	}
	return TransactionTypeExpense
}

type Transaction struct {
	ID          uuid.UUID
	RecordID    uuid.UUID
	AccountID   uuid.UUID
	Category    string
	Amount      int64
	Type        TransactionType
	Description *string
	CreatedAt   time.Time
}
