// Package accrual holds the catch-up processors of the engine. They operate on
// a Book, the in-memory working set of one pass, and never touch the store.
package accrual

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
)

type restrictionKey struct {
	recordID uuid.UUID
	category string
}

// Book is the working set of a single pass: the accounts and active
// restrictions loaded (and locked) by the engine, plus everything posted
// since. The engine flushes it in one commit.
type Book struct {
	accounts     map[uuid.UUID]*domain.Account
	restrictions map[restrictionKey]*domain.Restriction

	posted              []domain.Transaction
	touchedAccounts     map[uuid.UUID]struct{}
	touchedRestrictions map[uuid.UUID]struct{}
}

func NewBook(accounts []*domain.Account, restrictions []*domain.Restriction) *Book {
	b := &Book{
		accounts:            make(map[uuid.UUID]*domain.Account, len(accounts)),
		restrictions:        make(map[restrictionKey]*domain.Restriction, len(restrictions)),
		touchedAccounts:     make(map[uuid.UUID]struct{}),
		touchedRestrictions: make(map[uuid.UUID]struct{}),
	}
	for _, a := range accounts {
		b.accounts[a.ID] = a
	}
	for _, r := range restrictions {
		if r.Active {
			b.restrictions[restrictionKey{r.RecordID, r.Category}] = r
		}
	}
	return b
}

func (b *Book) Account(id uuid.UUID) (*domain.Account, error) {
	a, ok := b.accounts[id]
	if !ok {
		return nil, fmt.Errorf("Account %s: %w", id, domain.ErrAccountNotFound)
	}
	return a, nil
}

// Post applies tx to its account and records it. The transaction takes the
// account's record when it names none; naming another record is a mismatch.
// Income that would overflow the balance and expenses the balance cannot
// cover are rejected without mutation. An expense also accrues into the
// active restriction for its record and category.
func (b *Book) Post(tx domain.Transaction) (domain.Transaction, error) {
	if tx.Amount <= 0 {
		return domain.Transaction{}, fmt.Errorf("Post: %w", domain.ErrInvalidAmount)
	}
	if !tx.Type.IsValid() {
		return domain.Transaction{}, fmt.Errorf("Post: type %q: %w", tx.Type, domain.ErrInvalidRequest)
	}

	acct, err := b.Account(tx.AccountID)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("Post: %w", err)
	}
	switch tx.RecordID {
	case uuid.Nil:
		tx.RecordID = acct.RecordID
	case acct.RecordID:
	default:
		return domain.Transaction{}, fmt.Errorf("Post: account %s: %w", acct.ID, domain.ErrAccountMismatch)
	}

	switch tx.Type {
	case domain.TransactionTypeIncome:
		if !acct.CanCredit(tx.Amount) {
			return domain.Transaction{}, fmt.Errorf("Post: %w", domain.ErrAmountOverflow)
		}
		acct.Balance += tx.Amount
	case domain.TransactionTypeExpense:
		if !acct.CanDebit(tx.Amount) {
			return domain.Transaction{}, fmt.Errorf("Post: %w", domain.ErrInsufficientFunds)
		}
		r, tracked := b.restrictions[restrictionKey{acct.RecordID, tx.Category}]
		if tracked && !r.CanAccrue(tx.Amount) {
			return domain.Transaction{}, fmt.Errorf("Post: restriction %s: %w", r.ID, domain.ErrAmountOverflow)
		}
		acct.Balance -= tx.Amount
		if tracked {
			r.Spent += tx.Amount
			b.touchedRestrictions[r.ID] = struct{}{}
		}
	}
	b.touchedAccounts[acct.ID] = struct{}{}

	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	b.posted = append(b.posted, tx)
	return tx, nil
}

// LatestPosted returns the creation instant of the newest transaction posted
// on this book that matches.
func (b *Book) LatestPosted(match func(domain.Transaction) bool) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, tx := range b.posted {
		if match(tx) && (!found || tx.CreatedAt.After(latest)) {
			latest = tx.CreatedAt
			found = true
		}
	}
	return latest, found
}

func (b *Book) Posted() []domain.Transaction {
	return b.posted
}

// TouchedAccounts returns the accounts whose balance changed, ordered by id.
func (b *Book) TouchedAccounts() []*domain.Account {
	out := make([]*domain.Account, 0, len(b.touchedAccounts))
	for id := range b.touchedAccounts {
		out = append(out, b.accounts[id])
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (b *Book) TouchedRestrictions() []*domain.Restriction {
	out := make([]*domain.Restriction, 0, len(b.touchedRestrictions))
	for _, r := range b.restrictions {
		if _, ok := b.touchedRestrictions[r.ID]; ok {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
