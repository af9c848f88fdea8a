package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID        uuid.UUID
	RecordID  uuid.UUID
	Name      string
	Balance   int64
	Version   int64
	CreatedAt time.Time
}

// CanCredit reports whether amount can be added without leaving the int64 range.
func (a *Account) CanCredit(amount int64) bool {
	return a.Balance <= math.MaxInt64-amount
}

// CanDebit reports whether amount can be taken without going negative.
func (a *Account) CanDebit(amount int64) bool {
	return a.Balance >= amount
}
