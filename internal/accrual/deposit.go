package accrual

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
	"github.com/josh-kwaku/finance-accrual/internal/period"
)

const CategoryDeposit = "Deposit"

type DepositResult struct {
	Accrued  int
	Interest int64
	Closed   bool
}

// DepositRate is AnnualRate/100. Unlike credits it is not divided by twelve.
func DepositRate(d *domain.Deposit) decimal.Decimal {
	return d.AnnualRate.Div(hundred)
}

// AdvanceDeposit accrues interest on an active deposit for every unprocessed
// month up to now. With capitalisation the interest compounds into the
// deposit; without it the interest is paid to the linked account and the
// deposit value stays put. A matured deposit is closed without interest.
func AdvanceDeposit(b *Book, d *domain.Deposit, now time.Time) (DepositResult, error) {
	var res DepositResult
	if !d.Active || d.PeriodMonths <= 0 || d.CurrentValue <= 0 {
		return res, nil
	}

	months := period.MonthsBetween(d.OpenedAt, now)
	if months >= d.PeriodMonths {
		d.Close(now)
		res.Closed = true
		return res, nil
	}

	rate := DepositRate(d)
	tag := domain.DepositTag(d.ID)
	for k := d.AccruedPeriods + 1; k <= months; k++ {
		interest, err := toMinor(fromMinor(d.CurrentValue).Mul(rate))
		if err != nil {
			return res, nil
		}
		if interest > 0 {
			if d.Capitalisation {
				if d.CurrentValue > math.MaxInt64-interest {
					return res, nil
				}
				d.CurrentValue += interest
			} else {
				_, err := b.Post(domain.Transaction{
					RecordID:    d.RecordID,
					AccountID:   d.AccountID,
					Category:    CategoryDeposit,
					Amount:      interest,
					Type:        domain.TransactionTypeIncome,
					Description: &tag,
					CreatedAt:   period.AddMonths(d.OpenedAt, k),
				})
				if errors.Is(err, domain.ErrAmountOverflow) {
					return res, nil
				}
				if err != nil {
					return res, fmt.Errorf("AdvanceDeposit %s: month %d: %w", d.ID, k, err)
				}
			}
		}
		d.AccruedPeriods = k
		res.Accrued++
		res.Interest += interest
	}
	return res, nil
}

// DepositPayout is what a manual closure pays: the start value plus its
// interest pro-rated by elapsed months, cut to a third for early closure.
func DepositPayout(d *domain.Deposit, isEarly bool, now time.Time) (int64, error) {
	start := fromMinor(d.StartValue)
	if d.PeriodMonths <= 0 {
		return d.StartValue, nil
	}
	months := monthsClamped(period.MonthsBetween(d.OpenedAt, now), d.PeriodMonths)
	gain := start.Mul(DepositRate(d)).
		Mul(decimal.NewFromInt(int64(months))).
		Div(decimal.NewFromInt(int64(d.PeriodMonths)))
	if isEarly {
		gain = gain.Div(three)
	}
	return toMinor(start.Add(gain))
}

// CloseDeposit pays a deposit out into accountID. An early closure is
// expected to be followed by deleting the deposit; a normal one marks it
// over.
func CloseDeposit(b *Book, d *domain.Deposit, accountID uuid.UUID, isEarly bool, now time.Time) (domain.Operation, error) {
	if d.IsOver || (isEarly && !d.Active) {
		return domain.Operation{}, fmt.Errorf("CloseDeposit %s: %w", d.ID, domain.ErrAlreadyClosed)
	}

	acct, err := b.Account(accountID)
	if err != nil {
		return domain.Operation{}, fmt.Errorf("CloseDeposit %s: %w", d.ID, err)
	}
	if acct.RecordID != d.RecordID {
		return domain.Operation{}, fmt.Errorf("CloseDeposit %s: %w", d.ID, domain.ErrAccountMismatch)
	}

	payout, err := DepositPayout(d, isEarly, now)
	if err != nil {
		return domain.Operation{}, fmt.Errorf("CloseDeposit %s: %w", d.ID, err)
	}
	tag := domain.DepositTag(d.ID)
	if _, err := b.Post(domain.Transaction{
		RecordID:    d.RecordID,
		AccountID:   acct.ID,
		Category:    CategoryDeposit,
		Amount:      payout,
		Type:        domain.TransactionTypeIncome,
		Description: &tag,
		CreatedAt:   now,
	}); err != nil {
		return domain.Operation{}, fmt.Errorf("CloseDeposit %s: %w", d.ID, err)
	}

	op := domain.Operation{
		ID:         uuid.New(),
		RecordID:   d.RecordID,
		EntityType: domain.EntityTypeDeposit,
		EntityID:   d.ID,
		Amount:     payout,
		CreatedAt:  now,
	}
	d.Close(now)
	d.CurrentValue = 0
	if isEarly {
		op.Type = domain.OperationTypeDepositClosedEarly
		op.Description = fmt.Sprintf("deposit closed early, paid %s", formatMinor(payout))
	} else {
		d.IsOver = true
		op.Type = domain.OperationTypeDepositClosed
		op.Description = fmt.Sprintf("deposit closed, paid %s", formatMinor(payout))
	}
	return op, nil
}
