package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/finance-accrual/internal/accrual"
	"github.com/josh-kwaku/finance-accrual/internal/domain"
	"github.com/josh-kwaku/finance-accrual/internal/logging"
	"github.com/josh-kwaku/finance-accrual/internal/metrics"
	"github.com/josh-kwaku/finance-accrual/internal/repository"
)

const (
	EntryRegular       = "regular"
	EntrySubscriptions = "subscriptions"
	EntryMonthly       = "monthly"
)

type EngineConfig struct {
	CatchUpLimit int
	PenaltyRate  decimal.Decimal
}

// Engine runs the catch-up passes. Each pass reads its candidates, applies
// them on a Book and commits everything in a single transaction.
type Engine struct {
	db           *sql.DB
	stores       Stores
	credit       *accrual.CreditProcessor
	catchUpLimit int
	now          func() time.Time
}

func NewEngine(db *sql.DB, stores Stores, cfg EngineConfig) *Engine {
	return &Engine{
		db:           db,
		stores:       stores,
		credit:       accrual.NewCreditProcessor(cfg.PenaltyRate),
		catchUpLimit: cfg.CatchUpLimit,
		now:          systemNow,
	}
}

// SetClock replaces the engine clock. Every pass reads it once.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

type MonthlyReport struct {
	InstallmentsPaid int
	PenaltiesApplied int
	CreditsClosed    int
	EarlyRepayments  int
	DepositPeriods   int
	InterestAccrued  int64
	DepositsClosed   int
}

// ApplyRegularTransactions materializes every due occurrence of every
// regular transaction, oldest first, and returns how many were created.
func (e *Engine) ApplyRegularTransactions(ctx context.Context) (int, error) {
	ctx, log := logging.WithPass(ctx, EntryRegular)
	defer observePass(EntryRegular, time.Now())

	now := e.now()
	var created, halted int
	err := repository.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		created, halted = 0, 0

		defs, err := e.stores.Regulars.List(ctx, tx)
		if err != nil {
			return err
		}
		if len(defs) == 0 {
			return nil
		}

		accountIDs := make([]uuid.UUID, 0, len(defs))
		recordIDs := make([]uuid.UUID, 0, len(defs))
		for _, def := range defs {
			accountIDs = append(accountIDs, def.AccountID)
			recordIDs = append(recordIDs, def.RecordID)
		}

		book, err := openBook(ctx, tx, e.stores, accountIDs, recordIDs)
		if err != nil {
			return err
		}

		for _, def := range defs {
			anchor := def.CreatedAt
			last, ok, err := e.stores.Transactions.LatestByDescription(ctx, tx, domain.RegularTag(def.ID))
			if err != nil {
				return err
			}
			if ok {
				anchor = last
			}

			res, err := accrual.MaterializeRegular(book, def, anchor, now, e.catchUpLimit)
			if err != nil {
				return err
			}
			created += res.Created
			if res.Halted {
				halted++
				log.Warn("regular transaction halted",
					"regular_transaction_id", def.ID,
					"account_id", def.AccountID,
					"created", res.Created,
				)
			}
		}

		return flushBook(ctx, tx, e.stores, book)
	})
	if err != nil {
		metrics.PassFailures.WithLabelValues(EntryRegular).Inc()
		log.Error("regular pass rolled back", "error", err)
		return 0, fmt.Errorf("ApplyRegularTransactions: %w", err)
	}

	metrics.TransactionsPosted.WithLabelValues(metrics.SourceRegular).Add(float64(created))
	metrics.RegularHalted.Add(float64(halted))
	log.Info("regular transactions applied", "created", created, "halted", halted)
	return created, nil
}

// ProcessActiveSubscriptions charges each active subscription at most once
// when its period has elapsed since the last matching transaction.
func (e *Engine) ProcessActiveSubscriptions(ctx context.Context) (int, error) {
	ctx, log := logging.WithPass(ctx, EntrySubscriptions)
	defer observePass(EntrySubscriptions, time.Now())

	now := e.now()
	var charged int
	err := repository.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		charged = 0

		subs, err := e.stores.Subscriptions.ListActive(ctx, tx)
		if err != nil {
			return err
		}
		if len(subs) == 0 {
			return nil
		}

		accountIDs := make([]uuid.UUID, 0, len(subs))
		recordIDs := make([]uuid.UUID, 0, len(subs))
		for _, sub := range subs {
			accountIDs = append(accountIDs, sub.AccountID)
			recordIDs = append(recordIDs, sub.RecordID)
		}

		book, err := openBook(ctx, tx, e.stores, accountIDs, recordIDs)
		if err != nil {
			return err
		}

		for _, sub := range subs {
			anchor, err := e.subscriptionAnchor(ctx, tx, book, sub)
			if err != nil {
				return err
			}

			ok, err := accrual.ChargeSubscription(book, sub, anchor, now)
			if err != nil {
				return err
			}
			if ok {
				charged++
			}
		}

		return flushBook(ctx, tx, e.stores, book)
	})
	if err != nil {
		metrics.PassFailures.WithLabelValues(EntrySubscriptions).Inc()
		log.Error("subscription pass rolled back", "error", err)
		return 0, fmt.Errorf("ProcessActiveSubscriptions: %w", err)
	}

	metrics.TransactionsPosted.WithLabelValues(metrics.SourceSubscription).Add(float64(charged))
	log.Info("subscriptions processed", "charged", charged)
	return charged, nil
}

// subscriptionAnchor is the newest transaction sharing the subscription's
// record, category and type, whether committed earlier or posted in this
// pass. Without one the subscription is due on its start date.
func (e *Engine) subscriptionAnchor(ctx context.Context, tx *sql.Tx, book *accrual.Book, sub domain.Subscription) (time.Time, error) {
	anchor, found, err := e.stores.Transactions.LatestByCategory(ctx, tx, sub.RecordID, sub.Category, sub.Type)
	if err != nil {
		return time.Time{}, fmt.Errorf("subscriptionAnchor: %w", err)
	}

	posted, ok := book.LatestPosted(func(t domain.Transaction) bool {
		return accrual.MatchesSubscription(sub, t)
	})
	if ok && (!found || posted.After(anchor)) {
		anchor, found = posted, true
	}

	if !found {
		return accrual.SubscriptionAnchor(sub), nil
	}
	return anchor, nil
}

// ProcessMonthlyFinance advances every active credit and deposit through the
// months elapsed since it was last processed.
func (e *Engine) ProcessMonthlyFinance(ctx context.Context) (MonthlyReport, error) {
	ctx, log := logging.WithPass(ctx, EntryMonthly)
	defer observePass(EntryMonthly, time.Now())

	now := e.now()
	var report MonthlyReport
	var posted []domain.Transaction
	err := repository.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		report = MonthlyReport{}

		credits, err := e.stores.Credits.ListActiveForUpdate(ctx, tx)
		if err != nil {
			return err
		}
		deposits, err := e.stores.Deposits.ListActiveForUpdate(ctx, tx)
		if err != nil {
			return err
		}
		if len(credits) == 0 && len(deposits) == 0 {
			return nil
		}

		var accountIDs, recordIDs []uuid.UUID
		for _, c := range credits {
			accountIDs = append(accountIDs, c.PaymentAccountID)
			recordIDs = append(recordIDs, c.RecordID)
		}
		for _, d := range deposits {
			accountIDs = append(accountIDs, d.AccountID)
			recordIDs = append(recordIDs, d.RecordID)
		}

		book, err := openBook(ctx, tx, e.stores, accountIDs, recordIDs)
		if err != nil {
			return err
		}

		for _, c := range credits {
			res, err := e.credit.Advance(book, c, now)
			if err != nil {
				return err
			}

			report.InstallmentsPaid += res.Installments
			report.PenaltiesApplied += len(res.Penalties)
			if res.Closed {
				report.CreditsClosed++
				log.Info("credit term ended", "credit_id", c.ID)
			}
			if res.RepaidEarly {
				report.EarlyRepayments++
				log.Info("credit repaid early", "credit_id", c.ID)
			}

			for i := range res.Penalties {
				log.Warn("credit installment missed",
					"credit_id", c.ID,
					"account_id", c.PaymentAccountID,
					"penalty", res.Penalties[i].Amount,
				)
				if err := e.stores.Credits.AppendPenalty(ctx, tx, &res.Penalties[i]); err != nil {
					return err
				}
			}
			if err := e.stores.Credits.Update(ctx, tx, c); err != nil {
				return err
			}
		}

		for _, d := range deposits {
			res, err := accrual.AdvanceDeposit(book, d, now)
			if err != nil {
				return err
			}

			report.DepositPeriods += res.Accrued
			report.InterestAccrued += res.Interest
			if res.Closed {
				report.DepositsClosed++
				log.Info("deposit term ended", "deposit_id", d.ID)
			}
			if err := e.stores.Deposits.Update(ctx, tx, d); err != nil {
				return err
			}
		}

		posted = book.Posted()
		return flushBook(ctx, tx, e.stores, book)
	})
	if err != nil {
		metrics.PassFailures.WithLabelValues(EntryMonthly).Inc()
		log.Error("monthly pass rolled back", "error", err)
		return MonthlyReport{}, fmt.Errorf("ProcessMonthlyFinance: %w", err)
	}

	for _, t := range posted {
		switch t.Category {
		case accrual.CategoryCredit:
			metrics.TransactionsPosted.WithLabelValues(metrics.SourceCredit).Inc()
		case accrual.CategoryDeposit:
			metrics.TransactionsPosted.WithLabelValues(metrics.SourceDeposit).Inc()
		}
	}
	metrics.CreditPenalties.Add(float64(report.PenaltiesApplied))
	metrics.EntitiesClosed.WithLabelValues("credit", "term").Add(float64(report.CreditsClosed))
	metrics.EntitiesClosed.WithLabelValues("credit", "repaid_early").Add(float64(report.EarlyRepayments))
	metrics.EntitiesClosed.WithLabelValues("deposit", "term").Add(float64(report.DepositsClosed))

	log.Info("monthly finance processed",
		"installments_paid", report.InstallmentsPaid,
		"penalties_applied", report.PenaltiesApplied,
		"credits_closed", report.CreditsClosed,
		"early_repayments", report.EarlyRepayments,
		"deposit_periods", report.DepositPeriods,
		"interest_accrued", report.InterestAccrued,
		"deposits_closed", report.DepositsClosed,
	)
	return report, nil
}

func observePass(entryPoint string, started time.Time) {
	metrics.PassDuration.WithLabelValues(entryPoint).Observe(time.Since(started).Seconds())
}
