package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/josh-kwaku/finance-accrual/internal/config"
	"github.com/josh-kwaku/finance-accrual/internal/handler"
	"github.com/josh-kwaku/finance-accrual/internal/logging"
	"github.com/josh-kwaku/finance-accrual/internal/repository"
	"github.com/josh-kwaku/finance-accrual/internal/scheduler"
	"github.com/josh-kwaku/finance-accrual/internal/service"
)

const serviceName = "finance-accrual"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "engine",
	Short:         "Recurring obligations and accrual engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the operational HTTP endpoints",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var runCmd = &cobra.Command{
	Use:       "run regular|subscriptions|monthly",
	Short:     "Run a single pass of one entry point and exit",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{service.EntryRegular, service.EntrySubscriptions, service.EntryMonthly},
	RunE:      runPass,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML file overriding the [schedule] and [engine] settings")
	migrateCmd.Flags().String("dir", "migrations", "Directory holding the *.up.sql files")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			return nil, fmt.Errorf("loadConfig: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("loadConfig: %w", err)
		}
	}
	return cfg, nil
}

func connect(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	return repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
}

func newEngine(db *sql.DB, cfg *config.Config) *service.Engine {
	return service.NewEngine(db, service.NewStores(db), service.EngineConfig{
		CatchUpLimit: cfg.Engine.CatchUpLimit,
		PenaltyRate:  decimal.NewFromFloat(cfg.Engine.PenaltyRate),
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.Init(serviceName, cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sched := scheduler.New(newEngine(db, cfg), logger, cfg.Schedule)

	addr := fmt.Sprintf(":%d", cfg.OpsPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler.NewRouter(handler.NewHealthHandler(db, sched)),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("ops server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", "error", err)
			stop()
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Start(ctx)
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ops server forced to shutdown: %w", err)
	}
	logger.Info("stopped")
	return nil
}

func runPass(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.Init(serviceName, cfg.LogLevel, cfg.AppEnv)
	ctx := logging.WithLogger(cmd.Context(), logger)

	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	eng := newEngine(db, cfg)
	out := cmd.OutOrStdout()
	switch args[0] {
	case service.EntryRegular:
		created, err := eng.ApplyRegularTransactions(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "regular transactions created: %d\n", created)
	case service.EntrySubscriptions:
		charged, err := eng.ProcessActiveSubscriptions(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "subscriptions charged: %d\n", charged)
	case service.EntryMonthly:
		report, err := eng.ProcessMonthlyFinance(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "installments paid: %d\npenalties applied: %d\ncredits closed: %d\nearly repayments: %d\n",
			report.InstallmentsPaid, report.PenaltiesApplied, report.CreditsClosed, report.EarlyRepayments)
		fmt.Fprintf(out, "deposit periods accrued: %d\ninterest accrued: %d\ndeposits closed: %d\n",
			report.DepositPeriods, report.InterestAccrued, report.DepositsClosed)
	}
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.Init(serviceName, cfg.LogLevel, cfg.AppEnv)

	dir, _ := cmd.Flags().GetString("dir")
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("migrations directory: %w", err)
	}

	db, err := connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := repository.Migrate(cmd.Context(), db, dir)
	if err != nil {
		return err
	}
	logger.Info("migrations applied", slog.Any("files", applied))
	return nil
}
