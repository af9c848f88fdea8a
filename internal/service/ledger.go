package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-accrual/internal/accrual"
	"github.com/josh-kwaku/finance-accrual/internal/domain"
)

// systemNow is the default clock. Postgres keeps microseconds, so instants
// are truncated to survive a round trip unchanged.
func systemNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts accountRepository, ids ...uuid.UUID) ([]*domain.Account, error) {
	sorted := uniqueIDs(ids)

	result := make([]*domain.Account, 0, len(sorted))
	for _, id := range sorted {
		acct, err := accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockAccountsInOrder %s: %w", id, err)
		}
		result = append(result, acct)
	}
	return result, nil
}

// openBook locks the accounts a pass may move and the active restrictions of
// the records involved, and wraps them in a Book.
func openBook(ctx context.Context, tx *sql.Tx, s Stores, accountIDs, recordIDs []uuid.UUID) (*accrual.Book, error) {
	accounts, err := lockAccountsInOrder(ctx, tx, s.Accounts, accountIDs...)
	if err != nil {
		return nil, fmt.Errorf("openBook: %w", err)
	}

	restrictions, err := s.Restrictions.ListActiveForUpdate(ctx, tx, uniqueIDs(recordIDs))
	if err != nil {
		return nil, fmt.Errorf("openBook: %w", err)
	}

	return accrual.NewBook(accounts, restrictions), nil
}

// flushBook writes everything posted on b: the transactions, the new account
// balances and the restriction counters.
func flushBook(ctx context.Context, tx *sql.Tx, s Stores, b *accrual.Book) error {
	for _, t := range b.Posted() {
		if err := s.Transactions.Create(ctx, tx, &t); err != nil {
			return fmt.Errorf("flushBook: %w", err)
		}
	}

	for _, a := range b.TouchedAccounts() {
		if err := s.Accounts.UpdateBalance(ctx, tx, a.ID, a.Balance, a.Version+1); err != nil {
			return fmt.Errorf("flushBook: account %s: %w", a.ID, err)
		}
		a.Version++
	}

	for _, r := range b.TouchedRestrictions() {
		if err := s.Restrictions.UpdateSpent(ctx, tx, r.ID, r.Spent); err != nil {
			return fmt.Errorf("flushBook: restriction %s: %w", r.ID, err)
		}
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
