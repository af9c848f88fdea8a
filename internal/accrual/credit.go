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

const CategoryCredit = "Credit"

// DefaultPenaltyRate is the share of a missed installment added to the
// credit's penalty sum.
var DefaultPenaltyRate = decimal.NewFromFloat(0.05)

type CreditProcessor struct {
	PenaltyRate decimal.Decimal
}

func NewCreditProcessor(penaltyRate decimal.Decimal) *CreditProcessor {
	return &CreditProcessor{PenaltyRate: penaltyRate}
}

type CreditResult struct {
	Installments int
	Penalties    []domain.Penalty
	Closed       bool
	RepaidEarly  bool
}

// MonthlyCreditRate is AnnualRate/12/100.
func MonthlyCreditRate(c *domain.Credit) decimal.Decimal {
	return c.AnnualRate.Div(twelve).Div(hundred)
}

// MonthlyPayment is the fixed annuity installment computed from the original
// principal: P*r*(1+r)^n / ((1+r)^n - 1), or P/n at a zero rate.
func MonthlyPayment(c *domain.Credit) decimal.Decimal {
	p := fromMinor(c.StartValue)
	n := decimal.NewFromInt(int64(c.PeriodMonths))
	r := MonthlyCreditRate(c)
	if r.IsZero() {
		return p.Div(n)
	}
	growth := one.Add(r).Pow(n)
	return p.Mul(r).Mul(growth).Div(growth.Sub(one))
}

// Advance moves an active credit forward to now. A matured credit is closed
// without a payment. Otherwise every unprocessed month is billed oldest
// first: the installment is taken when the payment account covers it, and a
// penalty is recorded instead when it does not. A pending early repayment is
// honoured afterwards if the account covers the outstanding value.
func (p *CreditProcessor) Advance(b *Book, c *domain.Credit, now time.Time) (CreditResult, error) {
	var res CreditResult
	if !c.Active || c.PeriodMonths <= 0 || c.StartValue <= 0 {
		return res, nil
	}

	months := period.MonthsBetween(c.OpenedAt, now)
	if months >= c.PeriodMonths {
		c.Close(now)
		res.Closed = true
		return res, nil
	}

	acct, err := b.Account(c.PaymentAccountID)
	if err != nil {
		return res, fmt.Errorf("Advance credit %s: %w", c.ID, err)
	}

	payment := MonthlyPayment(c)
	installment, err := toMinor(payment)
	if err != nil {
		return res, nil
	}
	rate := MonthlyCreditRate(c)
	tag := domain.CreditTag(c.ID)

	for k := c.PaidPeriods + 1; k <= months && installment > 0; k++ {
		dueAt := period.AddMonths(c.OpenedAt, k)
		if c.CurrentValue > 0 {
			if acct.CanDebit(installment) {
				interest := fromMinor(c.CurrentValue).Mul(rate)
				principal, err := toMinor(payment.Sub(interest))
				if err != nil {
					return res, fmt.Errorf("Advance credit %s: installment %d: %w", c.ID, k, err)
				}
				principal = max(0, principal)
				if _, err := b.Post(domain.Transaction{
					RecordID:    c.RecordID,
					AccountID:   acct.ID,
					Category:    CategoryCredit,
					Amount:      installment,
					Type:        domain.TransactionTypeExpense,
					Description: &tag,
					CreatedAt:   dueAt,
				}); errors.Is(err, domain.ErrAmountOverflow) {
					return res, nil
				} else if err != nil {
					return res, fmt.Errorf("Advance credit %s: installment %d: %w", c.ID, k, err)
				}
				c.CurrentValue = max(0, c.CurrentValue-principal)
				res.Installments++
			} else {
				pen, err := p.penalize(c, k, installment, acct.Balance, dueAt)
				if err != nil {
					return res, fmt.Errorf("Advance credit %s: installment %d: %w", c.ID, k, err)
				}
				res.Penalties = append(res.Penalties, pen)
			}
		}
		c.PaidPeriods = k
	}

	if c.EarlyRepaymentRequested && c.CurrentValue > 0 && months >= 1 && acct.CanDebit(c.CurrentValue) {
		if _, err := b.Post(domain.Transaction{
			RecordID:    c.RecordID,
			AccountID:   acct.ID,
			Category:    CategoryCredit,
			Amount:      c.CurrentValue,
			Type:        domain.TransactionTypeExpense,
			Description: &tag,
			CreatedAt:   now,
		}); errors.Is(err, domain.ErrAmountOverflow) {
			return res, nil
		} else if err != nil {
			return res, fmt.Errorf("Advance credit %s: early repayment: %w", c.ID, err)
		}
		c.Close(now)
		res.RepaidEarly = true
	}

	return res, nil
}

func (p *CreditProcessor) penalize(c *domain.Credit, k int, installment, balance int64, at time.Time) (domain.Penalty, error) {
	amount, err := toMinor(fromMinor(installment).Mul(p.PenaltyRate))
	if err != nil {
		return domain.Penalty{}, err
	}
	if c.PenaltySum > math.MaxInt64-amount {
		return domain.Penalty{}, fmt.Errorf("penalty sum: %w", domain.ErrAmountOverflow)
	}
	pen := domain.Penalty{
		ID:       uuid.New(),
		CreditID: c.ID,
		Amount:   amount,
		Reason: fmt.Sprintf("installment %d of %d missed: balance %s below payment %s",
			k, c.PeriodMonths, formatMinor(balance), formatMinor(installment)),
		CreatedAt: at,
	}
	c.OverdueCount++
	c.PenaltySum += amount
	c.Penalties = append(c.Penalties, pen)
	return pen, nil
}

// Payoff is the amount a manual closure charges: the original principal plus
// its interest at AnnualRate/100, pro-rated by elapsed months for an early
// closure.
func Payoff(c *domain.Credit, isEarly bool, now time.Time) (int64, error) {
	p := fromMinor(c.StartValue)
	interest := p.Mul(c.AnnualRate.Div(hundred))
	if isEarly && c.PeriodMonths > 0 {
		months := monthsClamped(period.MonthsBetween(c.OpenedAt, now), c.PeriodMonths)
		interest = interest.Mul(decimal.NewFromInt(int64(months))).Div(decimal.NewFromInt(int64(c.PeriodMonths)))
	}
	return toMinor(p.Add(interest))
}

// Close settles a credit from the given account. The closure is refused with
// ErrInsufficientFunds, leaving everything untouched, when the account
// cannot cover the payoff. An early closure is expected to be followed by
// deleting the credit; a normal one marks it over.
func (p *CreditProcessor) Close(b *Book, c *domain.Credit, accountID uuid.UUID, isEarly bool, now time.Time) (domain.Operation, error) {
	if c.IsOver || (isEarly && !c.Active) {
		return domain.Operation{}, fmt.Errorf("Close credit %s: %w", c.ID, domain.ErrAlreadyClosed)
	}

	acct, err := b.Account(accountID)
	if err != nil {
		return domain.Operation{}, fmt.Errorf("Close credit %s: %w", c.ID, err)
	}
	if acct.RecordID != c.RecordID {
		return domain.Operation{}, fmt.Errorf("Close credit %s: %w", c.ID, domain.ErrAccountMismatch)
	}

	payoff, err := Payoff(c, isEarly, now)
	if err != nil {
		return domain.Operation{}, fmt.Errorf("Close credit %s: %w", c.ID, err)
	}
	tag := domain.CreditTag(c.ID)
	if _, err := b.Post(domain.Transaction{
		RecordID:    c.RecordID,
		AccountID:   acct.ID,
		Category:    CategoryCredit,
		Amount:      payoff,
		Type:        domain.TransactionTypeExpense,
		Description: &tag,
		CreatedAt:   now,
	}); err != nil {
		return domain.Operation{}, fmt.Errorf("Close credit %s: %w", c.ID, err)
	}

	op := domain.Operation{
		ID:         uuid.New(),
		RecordID:   c.RecordID,
		EntityType: domain.EntityTypeCredit,
		EntityID:   c.ID,
		Amount:     payoff,
		CreatedAt:  now,
	}
	c.Close(now)
	if isEarly {
		op.Type = domain.OperationTypeCreditClosedEarly
		op.Description = fmt.Sprintf("credit closed early after %d of %d months, paid %s",
			monthsClamped(period.MonthsBetween(c.OpenedAt, now), c.PeriodMonths), c.PeriodMonths, formatMinor(payoff))
	} else {
		c.IsOver = true
		op.Type = domain.OperationTypeCreditClosed
		op.Description = fmt.Sprintf("credit closed, paid %s", formatMinor(payoff))
	}
	return op, nil
}
