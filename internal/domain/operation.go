package domain

import (
	"time"

	"github.com/google/uuid"
)

type EntityType string

const (
	EntityTypeCredit  EntityType = "credit"
	EntityTypeDeposit EntityType = "deposit"
)

type OperationType string

const (
	OperationTypeCreditClosed       OperationType = "credit_closed"
	OperationTypeCreditClosedEarly  OperationType = "credit_closed_early"
	OperationTypeDepositClosed      OperationType = "deposit_closed"
	OperationTypeDepositClosedEarly OperationType = "deposit_closed_early"
)

// Operation is an operation-history record written when a credit or deposit
// is settled manually. It outlives the entity it describes.
type Operation struct {
	ID          uuid.UUID
	RecordID    uuid.UUID
	EntityType  EntityType
	EntityID    uuid.UUID
	Type        OperationType
	Amount      int64
	Description string
	CreatedAt   time.Time
}
