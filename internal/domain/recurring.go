package domain

import (
	"time"

	"github.com/google/uuid"
)

type RegularTransaction struct {
	ID         uuid.UUID
	RecordID   uuid.UUID
	AccountID  uuid.UUID
	Category   string
	Amount     int64
	IsAdd      bool
	PeriodDays int
	CreatedAt  time.Time
}

type Subscription struct {
	ID         uuid.UUID
	RecordID   uuid.UUID
	AccountID  uuid.UUID
	Category   string
	Amount     int64
	Type       TransactionType
	PeriodDays int
	StartDate  time.Time
	Active     bool
	CreatedAt  time.Time
}
