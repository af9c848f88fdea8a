// Package scheduler triggers the engine entry points on fixed intervals from
// a single goroutine, so passes never overlap.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/josh-kwaku/finance-accrual/internal/config"
	"github.com/josh-kwaku/finance-accrual/internal/logging"
	"github.com/josh-kwaku/finance-accrual/internal/service"
)

type engine interface {
	ApplyRegularTransactions(ctx context.Context) (int, error)
	ProcessActiveSubscriptions(ctx context.Context) (int, error)
	ProcessMonthlyFinance(ctx context.Context) (service.MonthlyReport, error)
}

// Run describes the latest pass of one entry point.
type Run struct {
	At       time.Time `json:"at"`
	Duration string    `json:"duration"`
	Error    string    `json:"error,omitempty"`
}

type Scheduler struct {
	engine   engine
	logger   *slog.Logger
	schedule config.Schedule

	mu   sync.Mutex
	last map[string]Run
}

func New(engine engine, logger *slog.Logger, schedule config.Schedule) *Scheduler {
	return &Scheduler{
		engine:   engine,
		logger:   logger,
		schedule: schedule,
		last:     make(map[string]Run),
	}
}

// Start runs every entry point once, then on its own ticker until ctx is
// cancelled. Cancellation is observed between passes only; a pass in
// progress always finishes and commits or rolls back.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started",
		"regular_interval", s.schedule.RegularInterval,
		"subscription_interval", s.schedule.SubscriptionInterval,
		"monthly_interval", s.schedule.MonthlyInterval,
	)

	regular := time.NewTicker(s.schedule.RegularInterval)
	defer regular.Stop()
	subscriptions := time.NewTicker(s.schedule.SubscriptionInterval)
	defer subscriptions.Stop()
	monthly := time.NewTicker(s.schedule.MonthlyInterval)
	defer monthly.Stop()

	for _, entry := range []string{service.EntryRegular, service.EntrySubscriptions, service.EntryMonthly} {
		if ctx.Err() != nil {
			break
		}
		s.RunOnce(ctx, entry)
	}

	for {
		if ctx.Err() != nil {
			s.logger.Info("scheduler stopped")
			return
		}

		select {
		case <-ctx.Done():
		case <-regular.C:
			s.RunOnce(ctx, service.EntryRegular)
		case <-subscriptions.C:
			s.RunOnce(ctx, service.EntrySubscriptions)
		case <-monthly.C:
			s.RunOnce(ctx, service.EntryMonthly)
		}
	}
}

// RunOnce executes a single pass of the given entry point and records its
// outcome. The engine logs a failed pass itself; the next tick retries.
func (s *Scheduler) RunOnce(ctx context.Context, entry string) error {
	passCtx := logging.WithLogger(context.WithoutCancel(ctx), s.logger)

	started := time.Now()
	var err error
	switch entry {
	case service.EntryRegular:
		_, err = s.engine.ApplyRegularTransactions(passCtx)
	case service.EntrySubscriptions:
		_, err = s.engine.ProcessActiveSubscriptions(passCtx)
	case service.EntryMonthly:
		_, err = s.engine.ProcessMonthlyFinance(passCtx)
	default:
		s.logger.Error("unknown entry point", "entry_point", entry)
		return nil
	}

	run := Run{At: started.UTC(), Duration: time.Since(started).String()}
	if err != nil {
		run.Error = err.Error()
	}

	s.mu.Lock()
	s.last[entry] = run
	s.mu.Unlock()
	return err
}

// LastRuns returns the latest outcome per entry point.
func (s *Scheduler) LastRuns() map[string]Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Run, len(s.last))
	for k, v := range s.last {
		out[k] = v
	}
	return out
}
