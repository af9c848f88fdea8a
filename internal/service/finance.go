package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-accrual/internal/accrual"
	"github.com/josh-kwaku/finance-accrual/internal/domain"
	"github.com/josh-kwaku/finance-accrual/internal/logging"
	"github.com/josh-kwaku/finance-accrual/internal/metrics"
	"github.com/josh-kwaku/finance-accrual/internal/repository"
)

// FinanceService holds the operations driven by a user rather than by the
// scheduler: defining recurring items, opening and closing credits and
// deposits, and posting one-off transactions.
type FinanceService struct {
	db     *sql.DB
	stores Stores
	credit *accrual.CreditProcessor
	now    func() time.Time
}

func NewFinanceService(db *sql.DB, stores Stores) *FinanceService {
	return &FinanceService{
		db:     db,
		stores: stores,
		credit: accrual.NewCreditProcessor(accrual.DefaultPenaltyRate),
		now:    systemNow,
	}
}

func (s *FinanceService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *FinanceService) CreateRegularTransaction(ctx context.Context, def domain.RegularTransaction) (*domain.RegularTransaction, error) {
	log := logging.FromContext(ctx)

	if err := validateEntry(def.Amount, def.Category); err != nil {
		return nil, fmt.Errorf("CreateRegularTransaction: %w", err)
	}
	if def.PeriodDays <= 0 {
		return nil, fmt.Errorf("CreateRegularTransaction: %w", domain.ErrInvalidPeriod)
	}
	if err := s.checkAccount(ctx, def.RecordID, def.AccountID); err != nil {
		return nil, fmt.Errorf("CreateRegularTransaction: %w", err)
	}

	def.ID = uuid.New()
	def.CreatedAt = s.now()
	if err := s.stores.Regulars.Create(ctx, &def); err != nil {
		return nil, fmt.Errorf("CreateRegularTransaction: %w", err)
	}

	log.Info("regular transaction created",
		"regular_transaction_id", def.ID,
		"account_id", def.AccountID,
		"period_days", def.PeriodDays,
	)
	return &def, nil
}

// CreateSubscription stores an active subscription. A zero start date means
// the first charge is due immediately.
func (s *FinanceService) CreateSubscription(ctx context.Context, sub domain.Subscription) (*domain.Subscription, error) {
	log := logging.FromContext(ctx)

	if err := validateEntry(sub.Amount, sub.Category); err != nil {
		return nil, fmt.Errorf("CreateSubscription: %w", err)
	}
	if sub.PeriodDays <= 0 {
		return nil, fmt.Errorf("CreateSubscription: %w", domain.ErrInvalidPeriod)
	}
	if !sub.Type.IsValid() {
		return nil, fmt.Errorf("CreateSubscription: type %q: %w", sub.Type, domain.ErrInvalidRequest)
	}
	if err := s.checkAccount(ctx, sub.RecordID, sub.AccountID); err != nil {
		return nil, fmt.Errorf("CreateSubscription: %w", err)
	}

	now := s.now()
	sub.ID = uuid.New()
	sub.Active = true
	sub.CreatedAt = now
	if sub.StartDate.IsZero() {
		sub.StartDate = now
	}
	if err := s.stores.Subscriptions.Create(ctx, &sub); err != nil {
		return nil, fmt.Errorf("CreateSubscription: %w", err)
	}

	log.Info("subscription created", "subscription_id", sub.ID, "account_id", sub.AccountID)
	return &sub, nil
}

// OpenCredit stores a new credit and disburses its principal into the
// disbursement account.
func (s *FinanceService) OpenCredit(ctx context.Context, c domain.Credit) (*domain.Credit, error) {
	log := logging.FromContext(ctx)

	if c.StartValue <= 0 {
		return nil, fmt.Errorf("OpenCredit: %w", domain.ErrInvalidAmount)
	}
	if c.PeriodMonths <= 0 {
		return nil, fmt.Errorf("OpenCredit: %w", domain.ErrInvalidPeriod)
	}
	if c.AnnualRate.IsNegative() {
		return nil, fmt.Errorf("OpenCredit: %w", domain.ErrInvalidRate)
	}
	if err := s.checkAccount(ctx, c.RecordID, c.PaymentAccountID); err != nil {
		return nil, fmt.Errorf("OpenCredit: payment account: %w", err)
	}
	if err := s.checkAccount(ctx, c.RecordID, c.DisbursementAccountID); err != nil {
		return nil, fmt.Errorf("OpenCredit: disbursement account: %w", err)
	}

	now := s.now()
	c.ID = uuid.New()
	c.CurrentValue = c.StartValue
	c.Active = true
	c.IsOver = false
	c.OverdueCount, c.PenaltySum, c.PaidPeriods = 0, 0, 0
	c.EarlyRepaymentRequested = false
	c.ClosedAt = nil
	c.Penalties = nil
	c.CreatedAt = now
	if c.OpenedAt.IsZero() {
		c.OpenedAt = now
	}

	tag := domain.CreditTag(c.ID)
	err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		book, err := openBook(ctx, tx, s.stores, []uuid.UUID{c.DisbursementAccountID}, []uuid.UUID{c.RecordID})
		if err != nil {
			return err
		}
		if _, err := book.Post(domain.Transaction{
			RecordID:    c.RecordID,
			AccountID:   c.DisbursementAccountID,
			Category:    accrual.CategoryCredit,
			Amount:      c.StartValue,
			Type:        domain.TransactionTypeIncome,
			Description: &tag,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		if err := s.stores.Credits.Create(ctx, tx, &c); err != nil {
			return err
		}
		return flushBook(ctx, tx, s.stores, book)
	})
	if err != nil {
		return nil, fmt.Errorf("OpenCredit: %w", err)
	}

	log.Info("credit opened",
		"credit_id", c.ID,
		"start_value", c.StartValue,
		"period_months", c.PeriodMonths,
		"annual_rate", c.AnnualRate.String(),
	)
	return &c, nil
}

// OpenDeposit stores a new deposit and takes its start value from the linked
// account.
func (s *FinanceService) OpenDeposit(ctx context.Context, d domain.Deposit) (*domain.Deposit, error) {
	log := logging.FromContext(ctx)

	if d.StartValue <= 0 {
		return nil, fmt.Errorf("OpenDeposit: %w", domain.ErrInvalidAmount)
	}
	if d.PeriodMonths <= 0 {
		return nil, fmt.Errorf("OpenDeposit: %w", domain.ErrInvalidPeriod)
	}
	if d.AnnualRate.IsNegative() {
		return nil, fmt.Errorf("OpenDeposit: %w", domain.ErrInvalidRate)
	}
	if err := s.checkAccount(ctx, d.RecordID, d.AccountID); err != nil {
		return nil, fmt.Errorf("OpenDeposit: %w", err)
	}

	now := s.now()
	d.ID = uuid.New()
	d.CurrentValue = d.StartValue
	d.Active = true
	d.IsOver = false
	d.AccruedPeriods = 0
	d.ClosedAt = nil
	d.CreatedAt = now
	if d.OpenedAt.IsZero() {
		d.OpenedAt = now
	}

	tag := domain.DepositTag(d.ID)
	err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		book, err := openBook(ctx, tx, s.stores, []uuid.UUID{d.AccountID}, []uuid.UUID{d.RecordID})
		if err != nil {
			return err
		}
		if _, err := book.Post(domain.Transaction{
			RecordID:    d.RecordID,
			AccountID:   d.AccountID,
			Category:    accrual.CategoryDeposit,
			Amount:      d.StartValue,
			Type:        domain.TransactionTypeExpense,
			Description: &tag,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		if err := s.stores.Deposits.Create(ctx, tx, &d); err != nil {
			return err
		}
		return flushBook(ctx, tx, s.stores, book)
	})
	if err != nil {
		return nil, fmt.Errorf("OpenDeposit: %w", err)
	}

	log.Info("deposit opened",
		"deposit_id", d.ID,
		"start_value", d.StartValue,
		"capitalisation", d.Capitalisation,
	)
	return &d, nil
}

func (s *FinanceService) CreateRestriction(ctx context.Context, recordID uuid.UUID, category string, ceiling int64) (*domain.Restriction, error) {
	if strings.TrimSpace(category) == "" {
		return nil, fmt.Errorf("CreateRestriction: %w", domain.ErrInvalidCategory)
	}
	if ceiling <= 0 {
		return nil, fmt.Errorf("CreateRestriction: %w", domain.ErrInvalidAmount)
	}

	rs := &domain.Restriction{
		ID:       uuid.New(),
		RecordID: recordID,
		Category: category,
		Ceiling:  ceiling,
		Active:   true,
	}
	if err := s.stores.Restrictions.Create(ctx, rs); err != nil {
		return nil, fmt.Errorf("CreateRestriction: %w", err)
	}

	logging.FromContext(ctx).Info("restriction created", "restriction_id", rs.ID, "category", category)
	return rs, nil
}

// PostTransaction records a one-off transaction under the same balance and
// restriction rules the engine applies.
func (s *FinanceService) PostTransaction(ctx context.Context, t domain.Transaction) (*domain.Transaction, error) {
	if err := validateEntry(t.Amount, t.Category); err != nil {
		return nil, fmt.Errorf("PostTransaction: %w", err)
	}
	if !t.Type.IsValid() {
		return nil, fmt.Errorf("PostTransaction: type %q: %w", t.Type, domain.ErrInvalidRequest)
	}
	if err := s.checkAccount(ctx, t.RecordID, t.AccountID); err != nil {
		return nil, fmt.Errorf("PostTransaction: %w", err)
	}

	t.ID = uuid.New()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}

	var posted domain.Transaction
	err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		book, err := openBook(ctx, tx, s.stores, []uuid.UUID{t.AccountID}, []uuid.UUID{t.RecordID})
		if err != nil {
			return err
		}
		posted, err = book.Post(t)
		if err != nil {
			return err
		}
		return flushBook(ctx, tx, s.stores, book)
	})
	if err != nil {
		return nil, fmt.Errorf("PostTransaction: %w", err)
	}

	metrics.TransactionsPosted.WithLabelValues(metrics.SourceManual).Inc()
	return &posted, nil
}

// RequestEarlyRepayment flags an active credit so that the next monthly pass
// pays off its outstanding value when the payment account covers it.
func (s *FinanceService) RequestEarlyRepayment(ctx context.Context, creditID uuid.UUID) error {
	if err := s.stores.Credits.SetEarlyRepaymentRequested(ctx, creditID); err != nil {
		return fmt.Errorf("RequestEarlyRepayment: %w", err)
	}
	logging.FromContext(ctx).Info("early repayment requested", "credit_id", creditID)
	return nil
}

// CloseCredit settles a credit from accountID. ErrInsufficientFunds means the
// closure was not performed and nothing changed. An early closure removes the
// credit; a normal one keeps it marked over.
func (s *FinanceService) CloseCredit(ctx context.Context, creditID, accountID uuid.UUID, isEarly bool) (*domain.Operation, error) {
	log := logging.FromContext(ctx)

	now := s.now()
	var op domain.Operation
	err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		c, err := s.stores.Credits.GetForUpdate(ctx, tx, creditID)
		if err != nil {
			return err
		}

		book, err := openBook(ctx, tx, s.stores, []uuid.UUID{accountID}, []uuid.UUID{c.RecordID})
		if err != nil {
			return err
		}

		op, err = s.credit.Close(book, c, accountID, isEarly, now)
		if err != nil {
			return err
		}

		if err := flushBook(ctx, tx, s.stores, book); err != nil {
			return err
		}
		if isEarly {
			err = s.stores.Credits.Delete(ctx, tx, c.ID)
		} else {
			err = s.stores.Credits.Update(ctx, tx, c)
		}
		if err != nil {
			return err
		}
		return s.stores.Operations.Create(ctx, tx, &op)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			log.Warn("credit closure not performed", "credit_id", creditID, "account_id", accountID)
		}
		return nil, fmt.Errorf("CloseCredit: %w", err)
	}

	metrics.TransactionsPosted.WithLabelValues(metrics.SourceCredit).Inc()
	metrics.EntitiesClosed.WithLabelValues("credit", closeHow(isEarly)).Inc()
	log.Info("credit closed",
		"credit_id", creditID,
		"account_id", accountID,
		"early", isEarly,
		"amount", op.Amount,
	)
	return &op, nil
}

// CloseDeposit pays a deposit out into accountID. An early closure removes
// the deposit; a normal one keeps it marked over.
func (s *FinanceService) CloseDeposit(ctx context.Context, depositID, accountID uuid.UUID, isEarly bool) (*domain.Operation, error) {
	log := logging.FromContext(ctx)

	now := s.now()
	var op domain.Operation
	err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		d, err := s.stores.Deposits.GetForUpdate(ctx, tx, depositID)
		if err != nil {
			return err
		}

		book, err := openBook(ctx, tx, s.stores, []uuid.UUID{accountID}, []uuid.UUID{d.RecordID})
		if err != nil {
			return err
		}

		op, err = accrual.CloseDeposit(book, d, accountID, isEarly, now)
		if err != nil {
			return err
		}

		if err := flushBook(ctx, tx, s.stores, book); err != nil {
			return err
		}
		if isEarly {
			err = s.stores.Deposits.Delete(ctx, tx, d.ID)
		} else {
			err = s.stores.Deposits.Update(ctx, tx, d)
		}
		if err != nil {
			return err
		}
		return s.stores.Operations.Create(ctx, tx, &op)
	})
	if err != nil {
		return nil, fmt.Errorf("CloseDeposit: %w", err)
	}

	metrics.TransactionsPosted.WithLabelValues(metrics.SourceDeposit).Inc()
	metrics.EntitiesClosed.WithLabelValues("deposit", closeHow(isEarly)).Inc()
	log.Info("deposit closed",
		"deposit_id", depositID,
		"account_id", accountID,
		"early", isEarly,
		"amount", op.Amount,
	)
	return &op, nil
}

// checkAccount verifies that accountID exists and belongs to recordID.
func (s *FinanceService) checkAccount(ctx context.Context, recordID, accountID uuid.UUID) error {
	acct, err := s.stores.Accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("account %s: %w", accountID, domain.ErrAccountNotFound)
		}
		return err
	}
	if acct.RecordID != recordID {
		return fmt.Errorf("account %s: %w", accountID, domain.ErrAccountMismatch)
	}
	return nil
}

func validateEntry(amount int64, category string) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if strings.TrimSpace(category) == "" {
		return domain.ErrInvalidCategory
	}
	return nil
}

func closeHow(isEarly bool) string {
	if isEarly {
		return "manual_early"
	}
	return "manual"
}
