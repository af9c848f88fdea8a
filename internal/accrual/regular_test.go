package accrual

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
	"github.com/josh-kwaku/finance-accrual/internal/period"
)

func regularDef(acct *domain.Account, category string, amount int64, isAdd bool, periodDays int, createdAt time.Time) domain.RegularTransaction {
	return domain.RegularTransaction{
		ID:         uuid.New(),
		RecordID:   acct.RecordID,
		AccountID:  acct.ID,
		Category:   category,
		Amount:     amount,
		IsAdd:      isAdd,
		PeriodDays: periodDays,
		CreatedAt:  createdAt,
	}
}

func TestMaterializeRegular_IncomeCatchUp(t *testing.T) {
	acct := newAccount(0)
	b := NewBook([]*domain.Account{acct}, nil)
	def := regularDef(acct, "Salary", 100, true, 3, daysAgo(10))

	res, err := MaterializeRegular(b, def, def.CreatedAt, testNow, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Created)
	assert.False(t, res.Halted)
	assert.Equal(t, int64(100*res.Created), acct.Balance)

	posted := b.Posted()
	require.Len(t, posted, 3)
	tag := domain.RegularTag(def.ID)
	for k, tx := range posted {
		assert.Equal(t, int64(100), tx.Amount)
		assert.Equal(t, domain.TransactionTypeIncome, tx.Type)
		assert.Equal(t, def.CreatedAt.Add(period.Days(3*(k+1))), tx.CreatedAt)
		require.NotNil(t, tx.Description)
		assert.Equal(t, tag, *tx.Description)
	}
}

func TestMaterializeRegular_ExpenseTracksRestriction(t *testing.T) {
	acct := newAccount(100)
	food := newRestriction("Food", 100)
	b := NewBook([]*domain.Account{acct}, []*domain.Restriction{food})
	def := regularDef(acct, "Food", 30, false, 2, daysAgo(4))

	res, err := MaterializeRegular(b, def, def.CreatedAt, testNow, 0)
	require.NoError(t, err)

	n := int64(res.Created)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 100-30*n, acct.Balance)
	assert.Equal(t, 30*n, food.Spent)
}

func TestMaterializeRegular_CannotFundFirstPeriod(t *testing.T) {
	acct := newAccount(10)
	b := NewBook([]*domain.Account{acct}, nil)
	def := regularDef(acct, "Rent", 100, false, 1, daysAgo(1))

	res, err := MaterializeRegular(b, def, def.CreatedAt, testNow, 0)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Created)
	assert.True(t, res.Halted)
	assert.Equal(t, int64(10), acct.Balance)
	assert.Empty(t, b.Posted())
}

func TestMaterializeRegular_HaltsWithoutSkippingAhead(t *testing.T) {
	acct := newAccount(50)
	b := NewBook([]*domain.Account{acct}, nil)
	def := regularDef(acct, "Gym", 30, false, 1, daysAgo(5))

	res, err := MaterializeRegular(b, def, def.CreatedAt, testNow, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.True(t, res.Halted)
	assert.Equal(t, int64(20), acct.Balance)

	// funds arrive; the next pass resumes from the second due instant
	acct.Balance += 1000
	anchor, ok := b.LatestPosted(func(tx domain.Transaction) bool { return tx.Category == "Gym" })
	require.True(t, ok)

	res, err = MaterializeRegular(b, def, anchor, testNow, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Created)
	posted := b.Posted()
	require.Len(t, posted, 5)
	assert.Equal(t, def.CreatedAt.Add(period.Days(2)), posted[1].CreatedAt)
	assert.Equal(t, testNow, posted[4].CreatedAt)
}

func TestMaterializeRegular_Idempotent(t *testing.T) {
	acct := newAccount(0)
	b := NewBook([]*domain.Account{acct}, nil)
	def := regularDef(acct, "Salary", 100, true, 2, daysAgo(7))

	first, err := MaterializeRegular(b, def, def.CreatedAt, testNow, 0)
	require.NoError(t, err)
	require.Equal(t, 3, first.Created)

	anchor, ok := b.LatestPosted(func(tx domain.Transaction) bool {
		return tx.Description != nil && *tx.Description == domain.RegularTag(def.ID)
	})
	require.True(t, ok)

	for range 3 {
		again, err := MaterializeRegular(b, def, anchor, testNow, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, again.Created)
	}
	assert.Equal(t, int64(300), acct.Balance)
}

func TestMaterializeRegular_Capped(t *testing.T) {
	acct := newAccount(0)
	b := NewBook([]*domain.Account{acct}, nil)
	def := regularDef(acct, "Salary", 1, true, 1, daysAgo(365))

	res, err := MaterializeRegular(b, def, def.CreatedAt, testNow, 0)
	require.NoError(t, err)
	assert.Equal(t, period.DefaultCatchUpLimit, res.Created)

	res, err = MaterializeRegular(b, def, def.CreatedAt, testNow, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Created)
}

func TestMaterializeRegular_MalformedSkipped(t *testing.T) {
	acct := newAccount(0)
	b := NewBook([]*domain.Account{acct}, nil)

	for _, def := range []domain.RegularTransaction{
		regularDef(acct, "Salary", 100, true, 0, daysAgo(10)),
		regularDef(acct, "Salary", 0, true, 1, daysAgo(10)),
	} {
		res, err := MaterializeRegular(b, def, def.CreatedAt, testNow, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Created)
	}
	assert.Empty(t, b.Posted())
}

func TestMaterializeRegular_MissingAccount(t *testing.T) {
	b := NewBook(nil, nil)
	def := regularDef(newAccount(0), "Salary", 100, true, 1, daysAgo(2))

	_, err := MaterializeRegular(b, def, def.CreatedAt, testNow, 0)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}
