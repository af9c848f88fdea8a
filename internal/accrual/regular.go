package accrual

import (
	"errors"
	"fmt"
	"time"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
	"github.com/josh-kwaku/finance-accrual/internal/period"
)

// RegularResult describes what one pass did for a regular transaction.
type RegularResult struct {
	Created int
	// Halted is set when the chain stopped early on funds or overflow;
	// the remaining backlog is left for a later pass.
	Halted bool
}

// MaterializeRegular replays def from anchor up to now. Each due instant
// becomes one transaction timestamped at that instant and tagged with the
// definition, so the newest tagged transaction is the next anchor.
func MaterializeRegular(b *Book, def domain.RegularTransaction, anchor, now time.Time, limit int) (RegularResult, error) {
	var res RegularResult
	if def.PeriodDays <= 0 || def.Amount <= 0 {
		return res, nil
	}

	tag := domain.RegularTag(def.ID)
	for _, at := range period.DueInstants(anchor, period.Days(def.PeriodDays), now, limit) {
		_, err := b.Post(domain.Transaction{
			RecordID:    def.RecordID,
			AccountID:   def.AccountID,
			Category:    def.Category,
			Amount:      def.Amount,
			Type:        domain.TypeFor(def.IsAdd),
			Description: &tag,
			CreatedAt:   at,
		})
		if errors.Is(err, domain.ErrInsufficientFunds) || errors.Is(err, domain.ErrAmountOverflow) {
			res.Halted = true
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("MaterializeRegular %s: %w", def.ID, err)
		}
		res.Created++
	}
	return res, nil
}
