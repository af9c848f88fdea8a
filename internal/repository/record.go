package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) Create(ctx context.Context, id uuid.UUID, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO records (id, name) VALUES ($1, $2)`, id, name,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}
