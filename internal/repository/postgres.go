package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

const (
	pingAttempts = 30
	pingBackoff  = time.Second
)

type PoolConfig struct {
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetimeS int
	ConnMaxIdleTimeS int
}

// NewPostgresDB opens a pool and waits for the database to answer, retrying
// once a second for up to thirty attempts or until ctx is done.
func NewPostgresDB(ctx context.Context, databaseURL string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresDB: open: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeS) * time.Second)

	for i := range pingAttempts {
		if err = db.PingContext(ctx); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1, "error", err)

		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("NewPostgresDB: ping: %w", ctx.Err())
		case <-time.After(pingBackoff):
		}
	}

	db.Close()
	return nil, fmt.Errorf("NewPostgresDB: gave up after %d attempts: %w", pingAttempts, err)
}
