package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Deposit struct {
	ID             uuid.UUID
	RecordID       uuid.UUID
	AccountID      uuid.UUID
	StartValue     int64
	CurrentValue   int64
	OpenedAt       time.Time
	PeriodMonths   int
	AnnualRate     decimal.Decimal
	Capitalisation bool
	Active         bool
	IsOver         bool
	// AccruedPeriods counts monthly accruals already applied.
	AccruedPeriods int
	ClosedAt       *time.Time
	CreatedAt      time.Time
}

func (d *Deposit) Close(at time.Time) {
	d.Active = false
	d.ClosedAt = &at
}
