package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Provenance tags written to Transaction.Description by the engine.
// The regular tag doubles as the recurrence cursor for its definition.

func RegularTag(id uuid.UUID) string {
	return fmt.Sprintf("Regular:%s", id)
}

func CreditTag(id uuid.UUID) string {
	return fmt.Sprintf("Credit:%s", id)
}

func DepositTag(id uuid.UUID) string {
	return fmt.Sprintf("Deposit:%s", id)
}
