package accrual

import (
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
)

var (
	testNow    = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	testRecord = uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
)

func newAccount(balance int64) *domain.Account {
	return &domain.Account{
		ID:       uuid.New(),
		RecordID: testRecord,
		Name:     "main",
		Balance:  balance,
	}
}

func newRestriction(category string, ceiling int64) *domain.Restriction {
	return &domain.Restriction{
		ID:       uuid.New(),
		RecordID: testRecord,
		Category: category,
		Ceiling:  ceiling,
		Active:   true,
	}
}

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

func monthsAgo(n int) time.Time {
	return testNow.AddDate(0, -n, 0)
}
