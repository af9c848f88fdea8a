package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
	"github.com/josh-kwaku/finance-accrual/internal/repository"
)

// Now returns the current instant at database precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func SeedRecord(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()

	id := uuid.New()
	err := repository.NewRecordRepository(db).Create(context.Background(), id, "record-"+id.String()[:8])
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return id
}

func SeedAccount(t *testing.T, db *sql.DB, recordID uuid.UUID, balance int64) *domain.Account {
	t.Helper()

	a := &domain.Account{
		ID:        uuid.New(),
		RecordID:  recordID,
		Name:      "checking",
		Balance:   balance,
		Version:   0,
		CreatedAt: Now(),
	}

	if err := repository.NewAccountRepository(db).Create(context.Background(), a); err != nil {
		t.Fatalf("seed account for record %s: %v", recordID, err)
	}
	return a
}

func SeedRegularTransaction(t *testing.T, db *sql.DB, acct *domain.Account, amount int64, isAdd bool, periodDays int, createdAt time.Time) *domain.RegularTransaction {
	t.Helper()

	def := &domain.RegularTransaction{
		ID:         uuid.New(),
		RecordID:   acct.RecordID,
		AccountID:  acct.ID,
		Category:   "Salary",
		Amount:     amount,
		IsAdd:      isAdd,
		PeriodDays: periodDays,
		CreatedAt:  createdAt,
	}
	if !isAdd {
		def.Category = "Rent"
	}

	_, err := db.Exec(
		`INSERT INTO regular_transactions (id, record_id, account_id, category, amount, is_add, period_days, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		def.ID, def.RecordID, def.AccountID, def.Category, def.Amount, def.IsAdd, def.PeriodDays, def.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed regular transaction: %v", err)
	}
	return def
}

func SeedSubscription(t *testing.T, db *sql.DB, acct *domain.Account, category string, amount int64, periodDays int, startDate time.Time) *domain.Subscription {
	t.Helper()

	sub := &domain.Subscription{
		ID:         uuid.New(),
		RecordID:   acct.RecordID,
		AccountID:  acct.ID,
		Category:   category,
		Amount:     amount,
		Type:       domain.TransactionTypeExpense,
		PeriodDays: periodDays,
		StartDate:  startDate,
		Active:     true,
		CreatedAt:  Now(),
	}

	_, err := db.Exec(
		`INSERT INTO subscriptions (id, record_id, account_id, category, amount, type, period_days, start_date, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sub.ID, sub.RecordID, sub.AccountID, sub.Category, sub.Amount, sub.Type,
		sub.PeriodDays, sub.StartDate, sub.Active, sub.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	return sub
}

func SeedCredit(t *testing.T, db *sql.DB, acct *domain.Account, principal int64, annualRate string, months int, openedAt time.Time) *domain.Credit {
	t.Helper()

	c := &domain.Credit{
		ID:                    uuid.New(),
		RecordID:              acct.RecordID,
		StartValue:            principal,
		CurrentValue:          principal,
		OpenedAt:              openedAt,
		PeriodMonths:          months,
		AnnualRate:            decimal.RequireFromString(annualRate),
		PaymentAccountID:      acct.ID,
		DisbursementAccountID: acct.ID,
		Active:                true,
		CreatedAt:             openedAt,
	}

	_, err := db.Exec(
		`INSERT INTO credits (id, record_id, start_value, current_value, opened_at, period_months,
			annual_rate, payment_account_id, disbursement_account_id, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.RecordID, c.StartValue, c.CurrentValue, c.OpenedAt, c.PeriodMonths,
		c.AnnualRate, c.PaymentAccountID, c.DisbursementAccountID, c.Active, c.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed credit: %v", err)
	}
	return c
}

func SeedDeposit(t *testing.T, db *sql.DB, acct *domain.Account, startValue int64, annualRate string, months int, capitalisation bool, openedAt time.Time) *domain.Deposit {
	t.Helper()

	d := &domain.Deposit{
		ID:             uuid.New(),
		RecordID:       acct.RecordID,
		AccountID:      acct.ID,
		StartValue:     startValue,
		CurrentValue:   startValue,
		OpenedAt:       openedAt,
		PeriodMonths:   months,
		AnnualRate:     decimal.RequireFromString(annualRate),
		Capitalisation: capitalisation,
		Active:         true,
		CreatedAt:      openedAt,
	}

	_, err := db.Exec(
		`INSERT INTO deposits (id, record_id, account_id, start_value, current_value, opened_at,
			period_months, annual_rate, capitalisation, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.RecordID, d.AccountID, d.StartValue, d.CurrentValue, d.OpenedAt,
		d.PeriodMonths, d.AnnualRate, d.Capitalisation, d.Active, d.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed deposit: %v", err)
	}
	return d
}

func SeedRestriction(t *testing.T, db *sql.DB, recordID uuid.UUID, category string, ceiling int64) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO restrictions (id, record_id, category, ceiling, spent, active)
		 VALUES ($1, $2, $3, $4, 0, true)`,
		id, recordID, category, ceiling,
	)
	if err != nil {
		t.Fatalf("seed restriction %s: %v", category, err)
	}
	return id
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", accountID, err)
	}
	return balance
}

func GetRestrictionSpent(t *testing.T, db *sql.DB, restrictionID uuid.UUID) int64 {
	t.Helper()

	var spent int64
	err := db.QueryRow(`SELECT spent FROM restrictions WHERE id = $1`, restrictionID).Scan(&spent)
	if err != nil {
		t.Fatalf("get restriction spent %s: %v", restrictionID, err)
	}
	return spent
}

func CountTransactionsByDescription(t *testing.T, db *sql.DB, description string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE description = $1`, description).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions %q: %v", description, err)
	}
	return count
}

func CountTransactionsByAccount(t *testing.T, db *sql.DB, accountID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for account %s: %v", accountID, err)
	}
	return count
}
