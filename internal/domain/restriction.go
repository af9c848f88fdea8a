package domain

import (
	"math"

	"github.com/google/uuid"
)

type Restriction struct {
	ID       uuid.UUID
	RecordID uuid.UUID
	Category string
	Ceiling  int64
	Spent    int64
	Active   bool
}

func (r *Restriction) Exceeded() bool {
	return r.Spent > r.Ceiling
}

// CanAccrue reports whether amount can be added to Spent without leaving the
// int64 range.
func (r *Restriction) CanAccrue(amount int64) bool {
	return r.Spent <= math.MaxInt64-amount
}
