package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Credit struct {
	ID                    uuid.UUID
	RecordID              uuid.UUID
	StartValue            int64
	CurrentValue          int64
	OpenedAt              time.Time
	PeriodMonths          int
	AnnualRate            decimal.Decimal
	PaymentAccountID      uuid.UUID
	DisbursementAccountID uuid.UUID
	Active                bool
	IsOver                bool
	OverdueCount          int
	PenaltySum            int64
	// PaidPeriods counts monthly installments already processed,
	// whether paid or penalized.
	PaidPeriods             int
	EarlyRepaymentRequested bool
	ClosedAt                *time.Time
	Penalties               []Penalty
	CreatedAt               time.Time
}

// Penalty is one entry of a credit's append-only penalty history.
type Penalty struct {
	ID        uuid.UUID
	CreditID  uuid.UUID
	Amount    int64
	Reason    string
	CreatedAt time.Time
}

func (c *Credit) Close(at time.Time) {
	c.Active = false
	c.CurrentValue = 0
	c.EarlyRepaymentRequested = false
	c.ClosedAt = &at
}
