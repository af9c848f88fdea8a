package accrual

import (
	"errors"
	"fmt"
	"time"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
	"github.com/josh-kwaku/finance-accrual/internal/period"
)

// SubscriptionAnchor is the instant a subscription with no prior charge is
// treated as last charged: one period before its start date.
func SubscriptionAnchor(sub domain.Subscription) time.Time {
	return sub.StartDate.Add(-period.Days(sub.PeriodDays))
}

// MatchesSubscription reports whether tx is a charge of sub.
func MatchesSubscription(sub domain.Subscription, tx domain.Transaction) bool {
	return tx.RecordID == sub.RecordID && tx.Category == sub.Category && tx.Type == sub.Type
}

// ChargeSubscription posts at most one charge for sub when at least one full
// period (by calendar date) separates anchor from now. It reports whether a
// charge was created. A charge the account cannot take is skipped for this
// pass.
func ChargeSubscription(b *Book, sub domain.Subscription, anchor, now time.Time) (bool, error) {
	if !sub.Active || sub.PeriodDays <= 0 || sub.Amount <= 0 {
		return false, nil
	}
	if period.DaysBetween(anchor, now) < sub.PeriodDays {
		return false, nil
	}

	_, err := b.Post(domain.Transaction{
		RecordID:  sub.RecordID,
		AccountID: sub.AccountID,
		Category:  sub.Category,
		Amount:    sub.Amount,
		Type:      sub.Type,
		CreatedAt: now,
	})
	if errors.Is(err, domain.ErrInsufficientFunds) || errors.Is(err, domain.ErrAmountOverflow) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ChargeSubscription %s: %w", sub.ID, err)
	}
	return true, nil
}
