package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
	"github.com/josh-kwaku/finance-accrual/internal/repository"
	"github.com/josh-kwaku/finance-accrual/internal/testutil"
)

func TestCloseCredit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, fin, _ := setupServices(t, db, 100)
	ctx := context.Background()
	credits := repository.NewCreditRepository(db)
	operations := repository.NewOperationRepository(db)

	t.Run("normal closure marks the credit over", func(t *testing.T) {
		record := testutil.SeedRecord(t, db)
		acct := testutil.SeedAccount(t, db, record, 2_000_000)
		c := testutil.SeedCredit(t, db, acct, 1_200_000, "12", 12, testNow.AddDate(0, -6, 0))

		op, err := fin.CloseCredit(ctx, c.ID, acct.ID, false)
		require.NoError(t, err)
		assert.Equal(t, int64(1_344_000), op.Amount)
		assert.Equal(t, domain.OperationTypeCreditClosed, op.Type)
		assert.Equal(t, int64(656_000), testutil.GetAccountBalance(t, db, acct.ID))

		got, err := credits.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, got.IsOver)
		assert.False(t, got.Active)
		assert.Equal(t, int64(0), got.CurrentValue)

		ops, err := operations.ListByRecord(ctx, record)
		require.NoError(t, err)
		require.Len(t, ops, 1)
		assert.Equal(t, c.ID, ops[0].EntityID)
		assert.Equal(t, domain.EntityTypeCredit, ops[0].EntityType)

		_, err = fin.CloseCredit(ctx, c.ID, acct.ID, false)
		assert.ErrorIs(t, err, domain.ErrAlreadyClosed)
		assert.Equal(t, int64(656_000), testutil.GetAccountBalance(t, db, acct.ID))
	})

	t.Run("early closure removes the credit", func(t *testing.T) {
		record := testutil.SeedRecord(t, db)
		acct := testutil.SeedAccount(t, db, record, 2_000_000)
		c := testutil.SeedCredit(t, db, acct, 1_200_000, "12", 12, testNow.AddDate(0, -6, 0))

		op, err := fin.CloseCredit(ctx, c.ID, acct.ID, true)
		require.NoError(t, err)
		assert.Equal(t, int64(1_272_000), op.Amount)
		assert.Equal(t, domain.OperationTypeCreditClosedEarly, op.Type)
		assert.Equal(t, int64(728_000), testutil.GetAccountBalance(t, db, acct.ID))

		_, err = credits.GetByID(ctx, c.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		ops, err := operations.ListByRecord(ctx, record)
		require.NoError(t, err)
		require.Len(t, ops, 1)
		assert.Equal(t, c.ID, ops[0].EntityID)
		assert.Equal(t, int64(1_272_000), ops[0].Amount)
	})

	t.Run("insufficient funds leaves everything untouched", func(t *testing.T) {
		record := testutil.SeedRecord(t, db)
		acct := testutil.SeedAccount(t, db, record, 1_000)
		c := testutil.SeedCredit(t, db, acct, 1_200_000, "12", 12, testNow.AddDate(0, -6, 0))

		_, err := fin.CloseCredit(ctx, c.ID, acct.ID, false)
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
		assert.Equal(t, int64(1_000), testutil.GetAccountBalance(t, db, acct.ID))

		got, err := credits.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, got.Active)
		assert.False(t, got.IsOver)

		ops, err := operations.ListByRecord(ctx, record)
		require.NoError(t, err)
		assert.Empty(t, ops)
	})

	t.Run("account of another record is refused", func(t *testing.T) {
		record := testutil.SeedRecord(t, db)
		acct := testutil.SeedAccount(t, db, record, 0)
		c := testutil.SeedCredit(t, db, acct, 1_200_000, "12", 12, testNow.AddDate(0, -6, 0))
		foreign := testutil.SeedAccount(t, db, testutil.SeedRecord(t, db), 5_000_000)

		_, err := fin.CloseCredit(ctx, c.ID, foreign.ID, false)
		assert.ErrorIs(t, err, domain.ErrAccountMismatch)
		assert.Equal(t, int64(5_000_000), testutil.GetAccountBalance(t, db, foreign.ID))
	})

	t.Run("unknown credit", func(t *testing.T) {
		record := testutil.SeedRecord(t, db)
		acct := testutil.SeedAccount(t, db, record, 0)

		_, err := fin.CloseCredit(ctx, uuid.New(), acct.ID, true)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCloseDeposit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, fin, _ := setupServices(t, db, 100)
	ctx := context.Background()
	deposits := repository.NewDepositRepository(db)

	tests := []struct {
		name       string
		isEarly    bool
		wantPayout int64
		wantType   domain.OperationType
	}{
		{name: "normal", wantPayout: 106_000, wantType: domain.OperationTypeDepositClosed},
		{name: "early", isEarly: true, wantPayout: 102_000, wantType: domain.OperationTypeDepositClosedEarly},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			record := testutil.SeedRecord(t, db)
			acct := testutil.SeedAccount(t, db, record, 0)
			d := testutil.SeedDeposit(t, db, acct, 100_000, "12", 12, false, testNow.AddDate(0, -6, 0))

			op, err := fin.CloseDeposit(ctx, d.ID, acct.ID, tc.isEarly)
			require.NoError(t, err)
			assert.Equal(t, tc.wantPayout, op.Amount)
			assert.Equal(t, tc.wantType, op.Type)
			assert.Equal(t, tc.wantPayout, testutil.GetAccountBalance(t, db, acct.ID))

			got, err := deposits.GetByID(ctx, d.ID)
			if tc.isEarly {
				assert.ErrorIs(t, err, domain.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.IsOver)
			assert.False(t, got.Active)

			_, err = fin.CloseDeposit(ctx, d.ID, acct.ID, false)
			assert.ErrorIs(t, err, domain.ErrAlreadyClosed)
		})
	}
}

func TestOpenCredit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, fin, _ := setupServices(t, db, 100)
	ctx := context.Background()

	record := testutil.SeedRecord(t, db)
	payer := testutil.SeedAccount(t, db, record, 0)
	payee := testutil.SeedAccount(t, db, record, 0)
	foreign := testutil.SeedAccount(t, db, testutil.SeedRecord(t, db), 0)

	c, err := fin.OpenCredit(ctx, domain.Credit{
		RecordID:              record,
		StartValue:            1_200_000,
		PeriodMonths:          12,
		AnnualRate:            decimal.NewFromInt(12),
		PaymentAccountID:      payer.ID,
		DisbursementAccountID: payee.ID,
	})
	require.NoError(t, err)
	assert.True(t, c.Active)
	assert.Equal(t, int64(1_200_000), c.CurrentValue)
	assert.True(t, testNow.Equal(c.OpenedAt))
	assert.Equal(t, int64(1_200_000), testutil.GetAccountBalance(t, db, payee.ID))
	assert.Equal(t, 1, testutil.CountTransactionsByDescription(t, db, domain.CreditTag(c.ID)))

	tests := []struct {
		name    string
		mutate  func(c *domain.Credit)
		wantErr error
	}{
		{name: "zero principal", mutate: func(c *domain.Credit) { c.StartValue = 0 }, wantErr: domain.ErrInvalidAmount},
		{name: "zero period", mutate: func(c *domain.Credit) { c.PeriodMonths = 0 }, wantErr: domain.ErrInvalidPeriod},
		{name: "negative rate", mutate: func(c *domain.Credit) { c.AnnualRate = decimal.NewFromInt(-1) }, wantErr: domain.ErrInvalidRate},
		{name: "foreign account", mutate: func(c *domain.Credit) { c.PaymentAccountID = foreign.ID }, wantErr: domain.ErrAccountMismatch},
		{name: "unknown account", mutate: func(c *domain.Credit) { c.DisbursementAccountID = uuid.New() }, wantErr: domain.ErrAccountNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := domain.Credit{
				RecordID:              record,
				StartValue:            100_000,
				PeriodMonths:          6,
				AnnualRate:            decimal.NewFromInt(10),
				PaymentAccountID:      payer.ID,
				DisbursementAccountID: payee.ID,
			}
			tc.mutate(&in)

			_, err := fin.OpenCredit(ctx, in)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
	assert.Equal(t, int64(1_200_000), testutil.GetAccountBalance(t, db, payee.ID))
}

func TestOpenDeposit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, fin, _ := setupServices(t, db, 100)
	ctx := context.Background()

	record := testutil.SeedRecord(t, db)
	acct := testutil.SeedAccount(t, db, record, 150_000)

	d, err := fin.OpenDeposit(ctx, domain.Deposit{
		RecordID:       record,
		AccountID:      acct.ID,
		StartValue:     100_000,
		PeriodMonths:   12,
		AnnualRate:     decimal.NewFromInt(5),
		Capitalisation: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), testutil.GetAccountBalance(t, db, acct.ID))
	assert.Equal(t, 1, testutil.CountTransactionsByDescription(t, db, domain.DepositTag(d.ID)))

	_, err = fin.OpenDeposit(ctx, domain.Deposit{
		RecordID:     record,
		AccountID:    acct.ID,
		StartValue:   100_000,
		PeriodMonths: 12,
		AnnualRate:   decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, int64(50_000), testutil.GetAccountBalance(t, db, acct.ID))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM deposits WHERE record_id = $1`, record).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestPostTransaction_TracksRestrictions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, fin, _ := setupServices(t, db, 100)
	ctx := context.Background()

	record := testutil.SeedRecord(t, db)
	acct := testutil.SeedAccount(t, db, record, 10_000)

	rs, err := fin.CreateRestriction(ctx, record, "Food", 1_000)
	require.NoError(t, err)

	_, err = fin.CreateRestriction(ctx, record, "Food", 2_000)
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)

	for _, amount := range []int64{600, 900} {
		_, err := fin.PostTransaction(ctx, domain.Transaction{
			RecordID:  record,
			AccountID: acct.ID,
			Category:  "Food",
			Amount:    amount,
			Type:      domain.TransactionTypeExpense,
		})
		require.NoError(t, err)
	}

	_, err = fin.PostTransaction(ctx, domain.Transaction{
		RecordID:  record,
		AccountID: acct.ID,
		Category:  "Food",
		Amount:    50_000,
		Type:      domain.TransactionTypeExpense,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, int64(8_500), testutil.GetAccountBalance(t, db, acct.ID))
	assert.Equal(t, int64(1_500), testutil.GetRestrictionSpent(t, db, rs.ID))

	got, err := repository.NewRestrictionRepository(db).GetByID(ctx, rs.ID)
	require.NoError(t, err)
	assert.True(t, got.Exceeded())
}

func TestCreateRecurring_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, fin, _ := setupServices(t, db, 100)
	ctx := context.Background()

	record := testutil.SeedRecord(t, db)
	acct := testutil.SeedAccount(t, db, record, 0)

	def, err := fin.CreateRegularTransaction(ctx, domain.RegularTransaction{
		RecordID:   record,
		AccountID:  acct.ID,
		Category:   "Salary",
		Amount:     500_000,
		IsAdd:      true,
		PeriodDays: 30,
	})
	require.NoError(t, err)
	assert.True(t, testNow.Equal(def.CreatedAt))

	sub, err := fin.CreateSubscription(ctx, domain.Subscription{
		RecordID:   record,
		AccountID:  acct.ID,
		Category:   "Streaming",
		Amount:     1_500,
		Type:       domain.TransactionTypeExpense,
		PeriodDays: 30,
	})
	require.NoError(t, err)
	assert.True(t, sub.Active)
	assert.True(t, testNow.Equal(sub.StartDate))

	tests := []struct {
		name    string
		def     domain.RegularTransaction
		wantErr error
	}{
		{name: "zero amount", def: domain.RegularTransaction{RecordID: record, AccountID: acct.ID, Category: "Rent", PeriodDays: 7}, wantErr: domain.ErrInvalidAmount},
		{name: "blank category", def: domain.RegularTransaction{RecordID: record, AccountID: acct.ID, Category: " ", Amount: 1, PeriodDays: 7}, wantErr: domain.ErrInvalidCategory},
		{name: "zero period", def: domain.RegularTransaction{RecordID: record, AccountID: acct.ID, Category: "Rent", Amount: 1}, wantErr: domain.ErrInvalidPeriod},
		{name: "unknown account", def: domain.RegularTransaction{RecordID: record, AccountID: uuid.New(), Category: "Rent", Amount: 1, PeriodDays: 7}, wantErr: domain.ErrAccountNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fin.CreateRegularTransaction(ctx, tc.def)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	_, err = fin.CreateSubscription(ctx, domain.Subscription{
		RecordID:   record,
		AccountID:  acct.ID,
		Category:   "Streaming",
		Amount:     1_500,
		Type:       "refund",
		PeriodDays: 30,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
